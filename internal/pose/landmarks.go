package pose

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/limbspeed/internal/kinematics"
)

// Landmark indices in the 33-point body model.
const (
	Nose           = 0
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is one detected keypoint. Image-plane landmarks carry
// normalised [0,1] X/Y and a relative Z; world landmarks are metre-scale
// around the hip centre.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Point returns the landmark position.
func (l Landmark) Point() kinematics.Point3D {
	return kinematics.Point3D{X: l.X, Y: l.Y, Z: l.Z}
}

// Point2D returns the landmark position on the X/Y plane.
func (l Landmark) Point2D() kinematics.Point2D {
	return kinematics.Point2D{X: l.X, Y: l.Y}
}

// Side selects the left or right limb.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Part selects the tracked extremity.
type Part string

const (
	Foot Part = "foot"
	Hand Part = "hand"
)

// Target names the body point whose speed is tracked.
type Target struct {
	Side Side `json:"side"`
	Part Part `json:"part"`
}

// DefaultTarget is the right foot.
var DefaultTarget = Target{Side: Right, Part: Foot}

func (t Target) String() string {
	return string(t.Side) + " " + string(t.Part)
}

// Validate checks that side and part are known values.
func (t Target) Validate() error {
	if _, err := ParseSide(string(t.Side)); err != nil {
		return err
	}
	_, err := ParsePart(string(t.Part))
	return err
}

// ParseSide parses "left" or "right", case-insensitively.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	}
	return "", fmt.Errorf("invalid side %q: must be left or right", s)
}

// ParsePart parses "foot" or "hand", case-insensitively.
func ParsePart(s string) (Part, error) {
	switch Part(strings.ToLower(strings.TrimSpace(s))) {
	case Foot:
		return Foot, nil
	case Hand:
		return Hand, nil
	}
	return "", fmt.Errorf("invalid part %q: must be foot or hand", s)
}

// Indices returns the primary and fallback landmark indices for t.
// Feet track the foot index (toe) and fall back to the ankle; hands track
// the index finger and fall back to the wrist.
func Indices(t Target) (primary, fallback int, ok bool) {
	switch {
	case t.Side == Left && t.Part == Foot:
		return LeftFootIndex, LeftAnkle, true
	case t.Side == Right && t.Part == Foot:
		return RightFootIndex, RightAnkle, true
	case t.Side == Left && t.Part == Hand:
		return LeftIndex, LeftWrist, true
	case t.Side == Right && t.Part == Hand:
		return RightIndex, RightWrist, true
	}
	return 0, 0, false
}

// legIndices returns hip, knee and ankle indices for side.
func legIndices(side Side) (hip, knee, ankle int) {
	if side == Left {
		return LeftHip, LeftKnee, LeftAnkle
	}
	return RightHip, RightKnee, RightAnkle
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
