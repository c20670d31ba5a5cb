package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.MaxVideoSize != 513 {
		t.Errorf("Expected MaxVideoSize 513, got %d", cfg.MaxVideoSize)
	}
	if cfg.CaptureInterval != 500*time.Millisecond {
		t.Errorf("Expected CaptureInterval 500ms, got %v", cfg.CaptureInterval)
	}
	if cfg.ImageScaleFactor != 0.5 {
		t.Errorf("Expected ImageScaleFactor 0.5, got %v", cfg.ImageScaleFactor)
	}
	if cfg.OutputStride != 16 {
		t.Errorf("Expected OutputStride 16, got %d", cfg.OutputStride)
	}
	if !cfg.FlipHorizontal {
		t.Error("Expected FlipHorizontal to default to true")
	}
	if cfg.InitialPosition != 40 {
		t.Errorf("Expected InitialPosition 40, got %v", cfg.InitialPosition)
	}
	if cfg.KeypointThreshold != 0 {
		t.Errorf("Expected KeypointThreshold 0, got %v", cfg.KeypointThreshold)
	}
	if cfg.TransitionDuration != "2s" {
		t.Errorf("Expected TransitionDuration 2s, got %s", cfg.TransitionDuration)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CAMERA_MOBILE", "true")
	t.Setenv("CAPTURE_INTERVAL_MS", "250")
	t.Setenv("IMAGE_SCALE_FACTOR", "0.75")
	t.Setenv("FLIP_HORIZONTAL", "false")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if !cfg.CameraMobile {
		t.Error("Expected CameraMobile to be true")
	}
	if cfg.CaptureInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.CaptureInterval)
	}
	if cfg.ImageScaleFactor != 0.75 {
		t.Errorf("Expected 0.75, got %v", cfg.ImageScaleFactor)
	}
	if cfg.FlipHorizontal {
		t.Error("Expected FlipHorizontal to be false")
	}
}

func TestGetEnvHelpers_InvalidValues(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_FLOAT", "1.2.3")
	t.Setenv("TEST_BOOL", "maybe")

	if got := getEnvAsInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt fallback = %d, expected 7", got)
	}
	if got := getEnvAsFloat("TEST_FLOAT", 2.5); got != 2.5 {
		t.Errorf("getEnvAsFloat fallback = %v, expected 2.5", got)
	}
	if got := getEnvAsBool("TEST_BOOL", true); !got {
		t.Error("getEnvAsBool fallback should be true")
	}
}
