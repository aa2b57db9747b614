// Package kinematics owns the per-frame signal maths of the speed pipeline.
//
// Responsibilities: point geometry, instantaneous speed from two timed
// points, exponential smoothing, and the running-maximum tracker with its
// throttled capture gate.
// Key types: Point3D, TimedPoint3D, Smoother, RunningMax.
//
// Every function here is total over its inputs: degenerate time deltas and
// missing points produce 0, never NaN. No state is held at package level;
// callers own one Smoother and one RunningMax per stream.
package kinematics
