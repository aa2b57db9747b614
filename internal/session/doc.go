// Package session drives the per-frame speed pipeline for the three modes:
// a live camera session, a single recorded file, and a side-by-side
// comparison of two recordings.
//
// Each tracked stream owns its previous point, smoother and running max.
// A Loop pulls observations from a PoseSource and steps one Stream until
// the source ends or the context is cancelled; cancellation is observed
// between steps, never in the middle of one.
package session
