package camera

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	"fishfollow/internal/logger"
	"fishfollow/internal/service/pose"

	"gocv.io/x/gocv"
)

const metadataPollInterval = 50 * time.Millisecond

// Frame is a captured frame resized to the surface dimensions.
type Frame struct {
	mat gocv.Mat
}

func (f *Frame) Size() (int, int) {
	return f.mat.Cols(), f.mat.Rows()
}

func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

// JPEG encodes the frame for the viewer preview.
func (f *Frame) JPEG() ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", f.mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func (f *Frame) Close() error {
	return f.mat.Close()
}

// Surface is the video element of the page: a square of Size pixels bound to
// a capture device once Load succeeds.
type Surface struct {
	device      string
	constraints Constraints
	size        int
	logger      *logger.Logger

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

func NewSurface(device string, constraints Constraints, size int, logger *logger.Logger) *Surface {
	return &Surface{
		device:      device,
		constraints: constraints,
		size:        size,
		logger:      logger,
	}
}

// Load opens the device, applies the constraints and returns once the stream
// delivers a frame with usable dimensions.
func (s *Surface) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(deviceID(s.device))
	if err != nil || !capture.IsOpened() {
		if capture != nil {
			capture.Close()
		}
		return fmt.Errorf("open device %s: %w", s.device, ErrCaptureUnsupported)
	}

	if s.constraints.Width != nil {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(*s.constraints.Width))
	}
	if s.constraints.Height != nil {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(*s.constraints.Height))
	}

	if err := waitForMetadata(ctx, capture); err != nil {
		capture.Close()
		return err
	}

	s.capture = capture
	s.logger.Info("Camera %s streaming at %.0fx%.0f", s.device,
		capture.Get(gocv.VideoCaptureFrameWidth), capture.Get(gocv.VideoCaptureFrameHeight))
	return nil
}

func waitForMetadata(ctx context.Context, capture *gocv.VideoCapture) error {
	mat := gocv.NewMat()
	defer mat.Close()

	ticker := time.NewTicker(metadataPollInterval)
	defer ticker.Stop()

	for {
		if capture.Read(&mat) && !mat.Empty() && mat.Cols() > 0 && mat.Rows() > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Frame grabs the current frame. The caller closes it.
func (s *Surface) Frame(ctx context.Context) (pose.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil, fmt.Errorf("camera not loaded")
	}

	raw := gocv.NewMat()
	defer raw.Close()
	if ok := s.capture.Read(&raw); !ok || raw.Empty() {
		return nil, fmt.Errorf("failed to read frame from device %s", s.device)
	}

	resized := gocv.NewMat()
	if err := gocv.Resize(raw, &resized, image.Pt(s.size, s.size), 0, 0, gocv.InterpolationLinear); err != nil {
		resized.Close()
		return nil, fmt.Errorf("failed to resize frame: %w", err)
	}
	return &Frame{mat: resized}, nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}

// deviceID passes numeric ids as ints so OpenCV treats them as local cameras.
func deviceID(device string) interface{} {
	if id, err := strconv.Atoi(device); err == nil {
		return id
	}
	return device
}
