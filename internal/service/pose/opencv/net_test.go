package opencv

import (
	"context"
	"errors"
	"image"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"fishfollow/internal/service/pose"

	"gocv.io/x/gocv"
)

type plainFrame struct{}

func (plainFrame) Size() (int, int) { return 513, 513 }

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), Config{
		ModelPath:  filepath.Join(dir, "missing.caffemodel"),
		ConfigPath: filepath.Join(dir, "missing.prototxt"),
	})
	if err == nil || !strings.Contains(err.Error(), "model file not found") {
		t.Errorf("Expected missing model error, got %v", err)
	}
}

func TestEstimateSinglePose_RejectsNonMatFrames(t *testing.T) {
	n := &Net{}
	_, err := n.EstimateSinglePose(context.Background(), plainFrame{}, pose.DefaultOptions())
	if !errors.Is(err, pose.ErrUnsupportedFrame) {
		t.Errorf("Expected ErrUnsupportedFrame, got %v", err)
	}
}

func TestNet_ClosedRejectsInference(t *testing.T) {
	n := &Net{closed: true}

	if _, err := n.EstimateSinglePose(context.Background(), plainFrame{}, pose.DefaultOptions()); !errors.Is(err, ErrNetClosed) {
		t.Errorf("Expected ErrNetClosed, got %v", err)
	}
	if _, err := n.forward(gocv.Mat{}); !errors.Is(err, ErrNetClosed) {
		t.Errorf("Expected forward on a closed net to fail with ErrNetClosed, got %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("Closing twice should be a no-op, got %v", err)
	}
}

func TestCollectKeypoints(t *testing.T) {
	peaks := []peak{
		{score: 0.05, loc: image.Pt(10, 4)}, // nose
		{score: 0.8, loc: image.Pt(20, 30)}, // neck
		{score: 0.6, loc: image.Pt(1, 2)},   // rightShoulder
	}

	t.Run("zero threshold keeps a weak nose", func(t *testing.T) {
		p := collectKeypoints(peaks, 8, 8, 0)
		nose, ok := p.Find(pose.Nose)
		if !ok {
			t.Fatal("Expected nose to be kept")
		}
		if nose.Position.X != 80 || nose.Position.Y != 32 {
			t.Errorf("Unexpected nose position %+v", nose.Position)
		}
		if len(p.Keypoints) != 3 {
			t.Errorf("Expected 3 keypoints, got %d", len(p.Keypoints))
		}
	})

	t.Run("threshold drops weak parts and averages kept ones", func(t *testing.T) {
		p := collectKeypoints(peaks, 1, 1, 0.1)
		if _, ok := p.Find(pose.Nose); ok {
			t.Error("Expected weak nose to be dropped")
		}
		if math.Abs(p.Score-0.7) > 1e-9 {
			t.Errorf("Expected score 0.7 over kept keypoints, got %v", p.Score)
		}
	})

	t.Run("nothing kept", func(t *testing.T) {
		p := collectKeypoints(peaks, 1, 1, 1)
		if len(p.Keypoints) != 0 || p.Score != 0 {
			t.Errorf("Expected empty pose, got %+v", p)
		}
	})
}
