package predict

import (
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/landmark"
)

// Encoder is a named strategy that prepares a validated landmark set for the
// wire. Transform must be pure.
type Encoder struct {
	Name      string
	Transform func(landmark.Set) landmark.Set
}

// Encode returns the flattened wire values for s.
func (e Encoder) Encode(s landmark.Set) []float64 {
	return landmark.Flatten(e.Transform(s))
}

var (
	// Normalized sends wrist-relative points divided by the hand scale.
	Normalized = Encoder{Name: "normalized", Transform: landmark.Normalize}

	// Relative sends wrist-relative points without scaling.
	Relative = Encoder{Name: "relative", Transform: func(s landmark.Set) landmark.Set {
		return s.Translate(s[landmark.Wrist])
	}}

	// Absolute sends the points as detected.
	Absolute = Encoder{Name: "absolute", Transform: landmark.Set.Clone}
)

var encoders = map[string]Encoder{
	Normalized.Name: Normalized,
	Relative.Name:   Relative,
	Absolute.Name:   Absolute,
}

// EncoderByName looks up a built-in encoder.
func EncoderByName(name string) (Encoder, error) {
	e, ok := encoders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Encoder{}, fmt.Errorf("unknown encoder %q", name)
	}
	return e, nil
}

// ParseEncoders resolves names in order. Duplicates are rejected so the same
// request is never sent twice.
func ParseEncoders(names []string) ([]Encoder, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Encoder, 0, len(names))
	for _, name := range names {
		e, err := EncoderByName(name)
		if err != nil {
			return nil, err
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("encoder %q listed twice", e.Name)
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out, nil
}
