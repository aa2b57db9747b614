// Package pose models the output of the external pose detector and picks the
// tracked body point out of it.
//
// A detector result is a Frame: NoPose, Pose2D (image-plane landmarks only)
// or PoseWithWorld (image-plane plus world-space landmarks). Landmark
// indices follow the 33-point BlazePose body model.
//
// This package never calls a detector and holds no state.
package pose
