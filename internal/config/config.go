package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	CameraDevice string
	CameraMobile bool // Mobile devices pick their own capture resolution
	MaxVideoSize int  // Side of the square video surface in pixels

	CaptureInterval   time.Duration // Delay between tracking cycles
	ImageScaleFactor  float64
	OutputStride      int
	FlipHorizontal    bool
	InitialPosition   float64 // Starting top/left offset in percent
	KeypointThreshold float64

	ModelPath       string
	ModelConfigPath string
	ModelBackend    string
	ModelTarget     string

	ImageURL           string
	ImageWidth         string
	TransitionDuration string
	StreamVideo        bool // Push camera frames to viewers alongside positions

	StaticDirectory string
	LogDirectory    string
}

// Load reads an optional .env file and then builds the configuration from the
// environment, falling back to defaults for every unset key.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnvAsInt("PORT", 8080),
		CameraDevice:       getEnv("CAMERA_DEVICE", "0"),
		CameraMobile:       getEnvAsBool("CAMERA_MOBILE", false),
		MaxVideoSize:       getEnvAsInt("MAX_VIDEO_SIZE", 513),
		CaptureInterval:    time.Duration(getEnvAsInt("CAPTURE_INTERVAL_MS", 500)) * time.Millisecond,
		ImageScaleFactor:   getEnvAsFloat("IMAGE_SCALE_FACTOR", 0.5),
		OutputStride:       getEnvAsInt("OUTPUT_STRIDE", 16),
		FlipHorizontal:     getEnvAsBool("FLIP_HORIZONTAL", true),
		InitialPosition:    getEnvAsFloat("INITIAL_POSITION", 40),
		KeypointThreshold:  getEnvAsFloat("KEYPOINT_THRESHOLD", 0),
		ModelPath:          getEnv("MODEL_PATH", filepath.Join(".", "models", "pose_iter_440000.caffemodel")),
		ModelConfigPath:    getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "openpose_pose_coco.prototxt")),
		ModelBackend:       getEnv("MODEL_BACKEND", "default"),
		ModelTarget:        getEnv("MODEL_TARGET", "cpu"),
		ImageURL:           getEnv("IMAGE_URL", "https://aralroca.github.io/fishFollow-posenet-tfjs/fish.gif"),
		ImageWidth:         getEnv("IMAGE_WIDTH", "200px"),
		TransitionDuration: getEnv("TRANSITION_DURATION", "2s"),
		StreamVideo:        getEnvAsBool("STREAM_VIDEO", false),
		StaticDirectory:    getEnv("STATIC_DIR", filepath.Join(".", "static")),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
