// Package opencv implements pose.Estimator on top of the gocv DNN module
// using an OpenPose COCO body model.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"fishfollow/internal/service/pose"

	"gocv.io/x/gocv"
)

// MatFrame is a frame backed by an OpenCV matrix.
type MatFrame interface {
	pose.Frame
	Mat() gocv.Mat
}

type Config struct {
	ModelPath  string
	ConfigPath string
	Backend    string
	Target     string
	Threshold  float64 // Parts whose heat-map peak is below this are dropped
}

// Net is a loaded pose network. Forward passes are serialized.
type Net struct {
	net       gocv.Net
	threshold float64
	mu        sync.Mutex
	closed    bool
}

var ErrNetClosed = errors.New("pose network closed")

// Load reads the model files and prepares the network for inference.
func Load(ctx context.Context, cfg Config) (*Net, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if _, err := os.Stat(cfg.ConfigPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.ParseNetBackend(cfg.Backend))
	errTarget := net.SetPreferableTarget(gocv.ParseNetTarget(cfg.Target))
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	if err := ctx.Err(); err != nil {
		net.Close()
		return nil, err
	}

	return &Net{net: net, threshold: cfg.Threshold}, nil
}

// EstimateSinglePose runs one forward pass and picks the strongest peak of
// every part heat map.
func (n *Net) EstimateSinglePose(ctx context.Context, frame pose.Frame, opts pose.Options) (*pose.Pose, error) {
	if n.isClosed() {
		return nil, ErrNetClosed
	}
	mf, ok := frame.(MatFrame)
	if !ok {
		return nil, pose.ErrUnsupportedFrame
	}
	mat := mf.Mat()
	if mat.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := frame.Size()
	inW := pose.ValidInputResolution(width, opts.ScaleFactor, opts.OutputStride)
	inH := pose.ValidInputResolution(height, opts.ScaleFactor, opts.OutputStride)

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(inW, inH), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	prob, err := n.forward(blob)
	if err != nil {
		return nil, err
	}
	defer prob.Close()

	dims := prob.Size()
	if len(dims) != 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	parts, h, w := dims[1], dims[2], dims[3]
	if parts > len(pose.COCOParts) {
		parts = len(pose.COCOParts)
	}

	peaks := make([]peak, 0, parts)
	for i := 0; i < parts; i++ {
		heatmap, err := prob.FromPtr(h, w, gocv.MatTypeCV32F, 0, i)
		if err != nil {
			return nil, fmt.Errorf("failed to read heat map %d: %w", i, err)
		}
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(heatmap)
		heatmap.Close()
		peaks = append(peaks, peak{score: float64(maxVal), loc: maxLoc})
	}

	result := collectKeypoints(peaks, float64(width)/float64(w), float64(height)/float64(h), n.threshold)
	if opts.FlipHorizontal {
		result.Mirror(width)
	}
	return result, nil
}

// forward holds the lock across the closed check and the pass so Close
// cannot release the network mid-inference.
func (n *Net) forward(blob gocv.Mat) (gocv.Mat, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return gocv.Mat{}, ErrNetClosed
	}
	n.net.SetInput(blob, "")
	return n.net.Forward(""), nil
}

// peak is the maximum of one part heat map, in heat-map cells.
type peak struct {
	score float64
	loc   image.Point
}

// collectKeypoints maps peaks (in COCO part order) to frame pixels, dropping
// those scoring below threshold. The pose score averages the kept keypoints.
func collectKeypoints(peaks []peak, sx, sy, threshold float64) *pose.Pose {
	result := &pose.Pose{Keypoints: make([]pose.Keypoint, 0, len(peaks))}
	var total float64
	for i, p := range peaks {
		if i >= len(pose.COCOParts) || p.score < threshold {
			continue
		}
		total += p.score
		result.Keypoints = append(result.Keypoints, pose.Keypoint{
			Part:     pose.COCOParts[i],
			Position: pose.Point{X: float64(p.loc.X) * sx, Y: float64(p.loc.Y) * sy},
			Score:    p.score,
		})
	}
	if len(result.Keypoints) > 0 {
		result.Score = total / float64(len(result.Keypoints))
	}
	return result
}

func (n *Net) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// Close releases the network. Later calls are no-ops.
func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	return n.net.Close()
}
