// Package detector bridges to an external hand landmark detector.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// Hand is one detected hand.
type Hand struct {
	Landmarks  landmark.Set `json:"landmarks"`
	Handedness string       `json:"handedness"` // "Left" or "Right"
	Score      float64      `json:"score"`
}

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hands.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// IdleTimeout stops the detector process after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}

// Best returns the most confident hand at or above minScore.
func Best(hands []Hand, minScore float64) (Hand, bool) {
	var best Hand
	found := false
	for _, h := range hands {
		if h.Score < minScore {
			continue
		}
		if !found || h.Score > best.Score {
			best = h
			found = true
		}
	}
	return best, found
}
