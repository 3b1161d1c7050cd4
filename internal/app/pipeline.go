package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/predict"
)

// loop reads one frame per tick until ctx is done.
func (a *App) loop(ctx context.Context) {
	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.step(ctx)
		}
	}
}

// step processes a single frame. It returns the label and whether one was
// produced, so tests can drive the loop one frame at a time.
//
// Each frame goes through:
//  1. read from the camera
//  2. hand detection, keeping the most confident hand above MinScore
//  3. the rate limiter; over-budget frames are dropped
//  4. one independent GetPredictedLabel call
func (a *App) step(ctx context.Context) (predict.Label, bool) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		a.log.WithError(err).Debug("[watch] reading frame")
		return predict.LabelNone, false
	}
	a.count(func(s *Stats) { s.Frames++ })

	if !a.IsEnabled() || a.config.Detector == nil {
		frame.Close()
		return predict.LabelNone, false
	}

	hands, err := a.config.Detector.Detect(frame)
	frame.Close()
	if err != nil {
		a.log.WithError(err).Warn("[watch] detecting hands")
		return predict.LabelNone, false
	}

	hand, ok := detector.Best(hands, a.config.MinScore)
	if !ok {
		return predict.LabelNone, false
	}
	a.count(func(s *Stats) { s.Hands++ })

	if !a.limiter.Allow() {
		a.count(func(s *Stats) { s.Throttled++ })
		return predict.LabelNone, false
	}

	label, ok := a.config.Predictor.GetPredictedLabel(ctx, hand.Landmarks)
	if !ok {
		a.count(func(s *Stats) { s.Absent++ })
		return predict.LabelNone, false
	}

	a.count(func(s *Stats) { s.Labels++ })
	a.log.WithFields(logrus.Fields{
		"label":      label,
		"handedness": hand.Handedness,
		"score":      hand.Score,
	}).Debug("[watch] direction")
	return label, true
}

func (a *App) count(fn func(*Stats)) {
	a.mu.Lock()
	fn(&a.stats)
	a.mu.Unlock()
}
