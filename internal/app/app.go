// Package app runs the watch loop: camera frames go through the hand
// detector and the most confident hand is sent to the direction classifier.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/predict"
)

// Loop defaults.
const (
	// DefaultRate is the maximum number of classifier calls per second.
	DefaultRate = 5.0
	// DefaultMinScore is the detector confidence a hand needs to be classified.
	DefaultMinScore = 0.5
)

// ErrAlreadyRunning is returned by Start when the loop is active.
var ErrAlreadyRunning = errors.New("watch loop already running")

// Predictor is the part of predict.Client the loop needs.
type Predictor interface {
	GetPredictedLabel(ctx context.Context, landmarks landmark.Set) (predict.Label, bool)
}

// Config holds configuration options for the application.
type Config struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Predictor Predictor

	// Rate caps classifier calls per second. Frames over the budget are
	// dropped rather than queued.
	Rate float64

	// MinScore is passed to detector.Best.
	MinScore float64

	// Interval between frame reads. Defaults to one camera frame.
	Interval time.Duration

	Logger logrus.FieldLogger
}

// Stats counts what the loop has processed since it was created.
type Stats struct {
	Frames    int `json:"frames"`
	Hands     int `json:"hands"`
	Throttled int `json:"throttled"`
	Labels    int `json:"labels"`
	Absent    int `json:"absent"`
}

// App owns the camera and detector for the lifetime of the watch loop.
type App struct {
	config  Config
	limiter *rate.Limiter
	log     logrus.FieldLogger

	mu      sync.RWMutex
	enabled bool
	cancel  context.CancelFunc
	done    chan struct{}
	stats   Stats
}

// New creates a new App. Detection starts enabled.
func New(config Config) *App {
	if config.Rate <= 0 {
		config.Rate = DefaultRate
	}
	if config.MinScore <= 0 {
		config.MinScore = DefaultMinScore
	}
	if config.Interval <= 0 {
		fps := capture.DefaultFPS
		if config.Camera != nil && config.Camera.FPS() > 0 {
			fps = config.Camera.FPS()
		}
		config.Interval = time.Second / time.Duration(fps)
	}
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	burst := int(config.Rate)
	if burst < 1 {
		burst = 1
	}

	return &App{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), burst),
		log:     log.WithField("component", "watch"),
		enabled: true,
	}
}

// SetEnabled pauses or resumes classification. Frames are still read while
// paused so the camera does not buffer stale images.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether classification is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether the loop goroutine is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done != nil
}

// Stats returns a snapshot of the loop counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// Start opens the camera and runs the loop in the background until Stop is
// called or ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		return ErrAlreadyRunning
	}
	if err := a.config.Camera.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		a.loop(ctx)
	}()

	a.log.Info("[watch] started")
	return nil
}

// Stop halts the loop, waits for it to exit, and releases the camera and
// detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := a.config.Camera.Close(); err != nil {
		a.log.WithError(err).Warn("[watch] closing camera")
	}
	if a.config.Detector != nil {
		if err := a.config.Detector.Close(); err != nil {
			a.log.WithError(err).Warn("[watch] closing detector")
		}
	}

	a.log.Info("[watch] stopped")
}

// Run starts the loop and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.Stop()
	return nil
}
