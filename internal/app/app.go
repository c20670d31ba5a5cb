package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"fishfollow/internal/config"
	"fishfollow/internal/logger"
	"fishfollow/internal/routes"
	"fishfollow/internal/service"
	"fishfollow/internal/service/camera"
	"fishfollow/internal/service/pose"
	"fishfollow/internal/service/pose/opencv"
	"fishfollow/internal/service/tracking"
	"fishfollow/internal/service/websocket"
)

// model is a loaded estimator that owns native resources.
type model interface {
	pose.Estimator
	io.Closer
}

type App struct {
	config     *config.Config
	logger     *logger.Logger
	surface    *camera.Surface
	tracker    *tracking.Tracker
	hubService *websocket.HubService
	manager    *service.Manager

	modelMu       sync.Mutex
	model         model
	modelReleased bool
}

func NewApp() *App {
	cfg := config.Load()
	logger := logger.NewLogger(cfg)

	tracker := tracking.New(tracking.Config{
		Interval: cfg.CaptureInterval,
		Options: pose.Options{
			ScaleFactor:    cfg.ImageScaleFactor,
			FlipHorizontal: cfg.FlipHorizontal,
			OutputStride:   cfg.OutputStride,
		},
		FrameSize:       cfg.MaxVideoSize,
		InitialPosition: cfg.InitialPosition,
	}, logger)

	hub := websocket.NewHubService(logger)
	mng := service.NewManager(tracker, hub, cfg, logger)

	surface := camera.NewSurface(cfg.CameraDevice, camera.NewConstraints(cfg.CameraMobile, cfg.MaxVideoSize), cfg.MaxVideoSize, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		surface:    surface,
		tracker:    tracker,
		hubService: hub,
		manager:    mng,
	}
}

// Run serves the page and tracks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	defer a.logger.Close()
	defer a.surface.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.hubService.Run(ctx)

	router := routes.SetupRoutes(a.manager, a.config, a.logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Surface is mounted with the page; the model arrives whenever it finishes loading.
	a.tracker.SetSurface(a.surface)
	go a.loadModel(ctx)
	go func() {
		if err := a.tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("Tracking stopped: %v", err)
		}
	}()

	fmt.Printf("🐟 Fish Follow\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📷 Camera: %s\n", a.config.CameraDevice)
	fmt.Printf("🤖 Pose Model: %s\n", a.config.ModelPath)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("failed to shut down server: %w", err)
		}
	}

	cancel()
	<-a.tracker.Done()
	a.releaseModel()
	a.logger.Info("Server stopped")
	return runErr
}

func (a *App) loadModel(ctx context.Context) {
	net, err := opencv.Load(ctx, opencv.Config{
		ModelPath:  a.config.ModelPath,
		ConfigPath: a.config.ModelConfigPath,
		Backend:    a.config.ModelBackend,
		Target:     a.config.ModelTarget,
		Threshold:  a.config.KeypointThreshold,
	})
	if err != nil {
		a.logger.Error("Could not load pose model: %v", err)
		return
	}
	a.storeModel(net)
}

// storeModel hands a loaded model to the tracker unless shutdown already
// released models, in which case it is closed right away.
func (a *App) storeModel(m model) {
	a.modelMu.Lock()
	defer a.modelMu.Unlock()

	if a.modelReleased {
		m.Close()
		return
	}
	a.model = m
	a.tracker.SetEstimator(m)
	a.logger.Info("Pose model loaded from %s", a.config.ModelPath)
}

// releaseModel closes the model. It must run after the tracker loop has
// returned so no inference is in flight.
func (a *App) releaseModel() {
	a.modelMu.Lock()
	defer a.modelMu.Unlock()

	a.modelReleased = true
	if a.model == nil {
		return
	}
	if err := a.model.Close(); err != nil {
		a.logger.Warning("Failed to release pose model: %v", err)
	}
	a.model = nil
}
