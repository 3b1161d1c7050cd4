// Package landmark provides the hand skeleton types and the geometry used to
// prepare them for classification.
package landmark

import (
	"errors"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// MidFinger is the landmark used as the scale reference during normalization.
const MidFinger = MiddleMCP

// FlatLen is the number of values in a flattened landmark set.
const FlatLen = NumLandmarks * 3

var (
	// ErrInvalidShape is returned when a set does not hold exactly NumLandmarks points.
	ErrInvalidShape = errors.New("landmark set must contain exactly 21 points")
	// ErrNonFinite is returned when a coordinate is NaN or infinite.
	ErrNonFinite = errors.New("landmark coordinate is not a finite number")
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point3D) finite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z)
}

// Set is an ordered hand skeleton. Index order is anatomical and fixed.
type Set []Point3D

// Distance calculates the Euclidean distance between two 3D points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Validate reports whether s can be sent to a classifier.
func Validate(s Set) error {
	if len(s) != NumLandmarks {
		return ErrInvalidShape
	}
	for _, p := range s {
		if !p.finite() {
			return ErrNonFinite
		}
	}
	return nil
}

// Clone returns a copy of s that shares no memory with it.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Translate returns s with origin subtracted from every point.
func (s Set) Translate(origin Point3D) Set {
	out := make(Set, len(s))
	for i, p := range s {
		out[i] = Point3D{
			X: p.X - origin.X,
			Y: p.Y - origin.Y,
			Z: p.Z - origin.Z,
		}
	}
	return out
}

// Scale returns the normalization divisor for s: the larger of the
// wrist-to-mid-finger distance and the farthest point from the wrist.
// s must hold NumLandmarks points.
func Scale(s Set) float64 {
	wrist := s[Wrist]
	ref := Distance(wrist, s[MidFinger])

	var farthest float64
	for _, p := range s {
		if d := Distance(wrist, p); d > farthest {
			farthest = d
		}
	}

	return math.Max(ref, farthest)
}

// Normalize returns s with the wrist moved to the origin and every point
// divided by Scale(s).
//
// A set with the wrong number of points is returned as is. When the scale is
// zero or not finite a copy of the input is returned unchanged.
func Normalize(s Set) Set {
	if len(s) != NumLandmarks {
		return s
	}

	scale := Scale(s)
	if scale == 0 || !isFinite(scale) {
		return s.Clone()
	}

	normalized := s.Translate(s[Wrist])
	for i := range normalized {
		normalized[i].X /= scale
		normalized[i].Y /= scale
		normalized[i].Z /= scale
	}

	return normalized
}

// Flatten lays s out point-major as x0, y0, z0, x1, y1, z1, ...
func Flatten(s Set) []float64 {
	flat := make([]float64, 0, len(s)*3)
	for _, p := range s {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return flat
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
