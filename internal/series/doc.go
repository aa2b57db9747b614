// Package series holds per-playback signal history and the comparison
// maths applied to it: uniform resampling onto a fixed point count and
// Pearson correlation.
//
// Each series is resampled over its own [first, last] time span, so two
// clips of different length or frame rate are compared by normalised
// progress through the clip rather than by wall-clock time.
package series
