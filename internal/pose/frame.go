package pose

// Frame is the result of running the detector on one video frame.
// It is one of NoPose, Pose2D or PoseWithWorld.
type Frame interface {
	isFrame()
}

// NoPose means the detector found nobody in the frame.
type NoPose struct{}

// Pose2D is a detection without world-space coordinates.
type Pose2D struct {
	Points []Landmark `json:"points"`
}

// PoseWithWorld is a detection carrying both image-plane and world-space
// landmarks in parallel lists.
type PoseWithWorld struct {
	Points []Landmark `json:"points"`
	World  []Landmark `json:"world"`
}

func (NoPose) isFrame()        {}
func (Pose2D) isFrame()        {}
func (PoseWithWorld) isFrame() {}

// Observation pairs a detector result with the stream timestamp of the
// frame it was computed from.
type Observation struct {
	TimestampMs float64
	Frame       Frame
}

// NewFrame builds the variant matching the lists a detector returned.
// An empty image-plane list means no pose; an empty world list means a
// 2D-only detection.
func NewFrame(points, world []Landmark) Frame {
	switch {
	case len(points) == 0:
		return NoPose{}
	case len(world) == 0:
		return Pose2D{Points: points}
	default:
		return PoseWithWorld{Points: points, World: world}
	}
}

// ImagePoints returns the image-plane landmarks of f, or nil for NoPose.
func ImagePoints(f Frame) []Landmark {
	switch v := f.(type) {
	case Pose2D:
		return v.Points
	case PoseWithWorld:
		return v.Points
	}
	return nil
}

// WorldPoints returns the world-space landmarks of f, or nil when the
// frame has none.
func WorldPoints(f Frame) []Landmark {
	if v, ok := f.(PoseWithWorld); ok {
		return v.World
	}
	return nil
}
