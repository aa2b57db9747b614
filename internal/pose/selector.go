package pose

import "github.com/banshee-data/limbspeed/internal/kinematics"

// Selector picks the tracked point for a target out of a frame.
// MinVisibility rejects landmarks the detector reports as barely visible;
// zero accepts every finite landmark.
type Selector struct {
	MinVisibility float64
}

// SelectTrackedPoint returns the world-space position of the target's
// primary landmark, falling back to its secondary landmark. It reports
// false when the frame has no world landmarks or neither landmark is
// usable; callers treat that as "no sample this frame".
func SelectTrackedPoint(f Frame, t Target) (kinematics.Point3D, bool) {
	return Selector{}.SelectTrackedPoint(f, t)
}

// SelectTrackedPoint is the package function with s's visibility floor.
func (s Selector) SelectTrackedPoint(f Frame, t Target) (kinematics.Point3D, bool) {
	return s.pick(WorldPoints(f), t)
}

// SelectImagePoint is SelectTrackedPoint over the image-plane landmarks,
// used for overlays.
func (s Selector) SelectImagePoint(f Frame, t Target) (kinematics.Point3D, bool) {
	return s.pick(ImagePoints(f), t)
}

func (s Selector) pick(lms []Landmark, t Target) (kinematics.Point3D, bool) {
	if len(lms) == 0 {
		return kinematics.Point3D{}, false
	}
	primary, fallback, ok := Indices(t)
	if !ok {
		return kinematics.Point3D{}, false
	}
	if lm, ok := s.landmark(lms, primary); ok {
		return lm.Point(), true
	}
	if lm, ok := s.landmark(lms, fallback); ok {
		return lm.Point(), true
	}
	return kinematics.Point3D{}, false
}

func (s Selector) landmark(lms []Landmark, idx int) (Landmark, bool) {
	if idx < 0 || idx >= len(lms) {
		return Landmark{}, false
	}
	lm := lms[idx]
	if !finite(lm.X) || !finite(lm.Y) || !finite(lm.Z) {
		return Landmark{}, false
	}
	if s.MinVisibility > 0 && lm.Visibility < s.MinVisibility {
		return Landmark{}, false
	}
	return lm, true
}

// KneeAngle returns the hip-knee-ankle angle on the image plane in degrees,
// and false when any of the three landmarks is missing.
func (s Selector) KneeAngle(f Frame, side Side) (float64, bool) {
	lms := ImagePoints(f)
	hip, knee, ankle := legIndices(side)
	h, ok1 := s.landmark(lms, hip)
	k, ok2 := s.landmark(lms, knee)
	a, ok3 := s.landmark(lms, ankle)
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	return kinematics.AngleAt(h.Point2D(), k.Point2D(), a.Point2D()), true
}
