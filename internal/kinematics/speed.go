package kinematics

// Speed3D returns the instantaneous speed between prev and curr over
// dtSeconds, in coordinate units per second.
//
// It returns 0 when prev is nil, or when dtSeconds is not finite or not
// positive (duplicate timestamps, detector stalls). Large values are not
// clamped; the smoother downstream dampens outliers.
func Speed3D(prev *TimedPoint3D, curr TimedPoint3D, dtSeconds float64) float64 {
	if prev == nil || !isFinite(dtSeconds) || dtSeconds <= 0 {
		return 0
	}
	v := Distance3D(prev.Point3D, curr.Point3D) / dtSeconds
	if !isFinite(v) {
		return 0
	}
	return v
}

// ElapsedSeconds returns the time between two stamped points in seconds.
func ElapsedSeconds(prev, curr TimedPoint3D) float64 {
	return (curr.T - prev.T) / 1000
}
