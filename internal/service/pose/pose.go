// Package pose holds the keypoint types produced by a pose-estimation model
// and the narrow capability the tracker consumes.
package pose

import (
	"context"
	"errors"
	"math"
)

// Part is the name of an anatomical landmark.
type Part string

const (
	Nose          Part = "nose"
	Neck          Part = "neck"
	RightShoulder Part = "rightShoulder"
	RightElbow    Part = "rightElbow"
	RightWrist    Part = "rightWrist"
	LeftShoulder  Part = "leftShoulder"
	LeftElbow     Part = "leftElbow"
	LeftWrist     Part = "leftWrist"
	RightHip      Part = "rightHip"
	RightKnee     Part = "rightKnee"
	RightAnkle    Part = "rightAnkle"
	LeftHip       Part = "leftHip"
	LeftKnee      Part = "leftKnee"
	LeftAnkle     Part = "leftAnkle"
	RightEye      Part = "rightEye"
	LeftEye       Part = "leftEye"
	RightEar      Part = "rightEar"
	LeftEar       Part = "leftEar"
)

// COCOParts lists parts in the heat-map order of the COCO body model.
var COCOParts = []Part{
	Nose, Neck,
	RightShoulder, RightElbow, RightWrist,
	LeftShoulder, LeftElbow, LeftWrist,
	RightHip, RightKnee, RightAnkle,
	LeftHip, LeftKnee, LeftAnkle,
	RightEye, LeftEye, RightEar, LeftEar,
}

var ErrUnsupportedFrame = errors.New("unsupported frame source")

// Point is a pixel position within a frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint is a single landmark estimate.
type Keypoint struct {
	Part     Part    `json:"part"`
	Position Point   `json:"position"`
	Score    float64 `json:"score"`
}

// Pose is the set of keypoints found for one person.
type Pose struct {
	Score     float64    `json:"score"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Find returns the first keypoint with the given part name.
func (p *Pose) Find(part Part) (Keypoint, bool) {
	if p == nil {
		return Keypoint{}, false
	}
	for _, kp := range p.Keypoints {
		if kp.Part == part {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// Mirror flips every keypoint horizontally around a frame of the given width.
func (p *Pose) Mirror(width int) {
	if p == nil {
		return
	}
	for i := range p.Keypoints {
		p.Keypoints[i].Position.X = float64(width) - p.Keypoints[i].Position.X
	}
}

// Options are the fixed estimation parameters.
type Options struct {
	ScaleFactor    float64
	FlipHorizontal bool
	OutputStride   int
}

// DefaultOptions matches the tracker defaults: half scale, mirrored, stride 16.
func DefaultOptions() Options {
	return Options{
		ScaleFactor:    0.5,
		FlipHorizontal: true,
		OutputStride:   16,
	}
}

// Frame is a single video frame handed to an Estimator.
type Frame interface {
	Size() (width, height int)
}

// Estimator turns a frame into a single pose.
type Estimator interface {
	EstimateSinglePose(ctx context.Context, frame Frame, opts Options) (*Pose, error)
}

// ValidInputResolution returns the network input size for a frame side,
// scaled and snapped so that it is one more than a multiple of stride.
func ValidInputResolution(size int, scale float64, stride int) int {
	if stride <= 0 {
		stride = 1
	}
	even := float64(size)*scale - 1
	res := int(even - math.Mod(even, float64(stride)) + 1)
	if res < 1 {
		return 1
	}
	return res
}
