// Package tracking runs the timer-driven loop that follows the nose keypoint.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"fishfollow/internal/logger"
	"fishfollow/internal/service/pose"
)

var (
	// ErrNotReady means the surface or the model has not arrived yet.
	ErrNotReady = errors.New("surface or model not ready")
	// ErrSetup means the video surface could not be loaded. It ends tracking.
	ErrSetup = errors.New("video setup failed")
)

// Surface is the video source the tracker pulls frames from.
type Surface interface {
	Load(ctx context.Context) error
	Frame(ctx context.Context) (pose.Frame, error)
}

type Config struct {
	Interval        time.Duration
	Options         pose.Options
	FrameSize       int // Pixel size the keypoint coordinates are scaled against
	InitialPosition float64
}

// Tracker owns the position state. It is idle until both the surface and the
// estimator are set, and tracking afterwards.
type Tracker struct {
	cfg    Config
	logger *logger.Logger

	mu          sync.RWMutex
	surface     Surface
	estimator   pose.Estimator
	loaded      bool
	state       State
	subscribers map[int]func(State)
	nextID      int
	onFrame     func(pose.Frame)
	onAlert     func(string)

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, logger *logger.Logger) *Tracker {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = 513
	}
	return &Tracker{
		cfg:         cfg,
		logger:      logger,
		state:       NewState(cfg.InitialPosition),
		subscribers: make(map[int]func(State)),
		done:        make(chan struct{}),
	}
}

func (t *Tracker) SetSurface(s Surface) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.surface = s
	t.loaded = false
}

func (t *Tracker) SetEstimator(e pose.Estimator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.estimator = e
}

// OnFrame registers a hook called with every frame before inference.
func (t *Tracker) OnFrame(fn func(pose.Frame)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFrame = fn
}

// OnAlert registers the user-facing alert for terminal setup failures.
func (t *Tracker) OnAlert(fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAlert = fn
}

// Subscribe calls fn after every position change. The returned func removes it.
func (t *Tracker) Subscribe(fn func(State)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.subscribers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subscribers, id)
	}
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Cycle runs one capture, infer and update step.
func (t *Tracker) Cycle(ctx context.Context) error {
	t.mu.RLock()
	surface, estimator, loaded, onFrame := t.surface, t.estimator, t.loaded, t.onFrame
	t.mu.RUnlock()

	if surface == nil || estimator == nil {
		return ErrNotReady
	}

	if !loaded {
		if err := surface.Load(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.alert(err.Error())
			return fmt.Errorf("%w: %w", ErrSetup, err)
		}
		t.mu.Lock()
		t.loaded = true
		t.mu.Unlock()
	}

	frame, err := surface.Frame(ctx)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	if c, ok := frame.(io.Closer); ok {
		defer c.Close()
	}

	if onFrame != nil {
		onFrame(frame)
	}

	p, err := estimator.EstimateSinglePose(ctx, frame, t.cfg.Options)
	if err != nil {
		return fmt.Errorf("estimate pose: %w", err)
	}

	nose, ok := p.Find(pose.Nose)
	if !ok {
		return nil
	}

	size := float64(t.cfg.FrameSize)
	t.update(Position{
		Top:  nose.Position.Y * 100 / size,
		Left: nose.Position.X * 100 / size,
	})
	return nil
}

func (t *Tracker) update(next Position) {
	t.mu.Lock()
	t.state = t.state.advance(next)
	state := t.state
	subs := make([]func(State), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (t *Tracker) alert(message string) {
	t.mu.RLock()
	fn := t.onAlert
	t.mu.RUnlock()

	if fn != nil {
		fn(message)
	}
}

// Run schedules cycles with a fixed delay after each one finishes until ctx
// is cancelled, Stop is called or the surface fails to load.
func (t *Tracker) Run(ctx context.Context) error {
	t.runMu.Lock()
	if t.cancel != nil {
		t.runMu.Unlock()
		return fmt.Errorf("tracker already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.runMu.Unlock()

	defer close(t.done)
	defer cancel()

	t.logger.Info("Tracking loop started, interval %v", t.cfg.Interval)

	timer := time.NewTimer(t.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Tracking loop stopped")
			return ctx.Err()
		case <-timer.C:
		}

		err := t.Cycle(ctx)
		switch {
		case err == nil, errors.Is(err, ErrNotReady):
		case errors.Is(err, ErrSetup):
			t.logger.Error("Tracking aborted: %v", err)
			return err
		case ctx.Err() != nil:
			t.logger.Info("Tracking loop stopped")
			return ctx.Err()
		default:
			t.logger.Warning("Tracking cycle failed: %v", err)
		}

		timer.Reset(t.cfg.Interval)
	}
}

// Stop cancels a running loop.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// Done is closed once Run returns.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}
