package plugin

import (
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/mudra/internal/predict"
)

// Binding runs Action of Plugin whenever Label is recognized.
type Binding struct {
	Label  predict.Label       `json:"label" validate:"required,oneof=up down left right"`
	Plugin string              `json:"plugin" validate:"required"`
	Action string              `json:"action" validate:"required"`
	Params jsoniter.RawMessage `json:"params,omitempty"`
}

type bindingsFile struct {
	Bindings []Binding `json:"bindings" validate:"dive"`
}

// LoadBindings reads a bindings file of the form {"bindings": [...]}.
// A missing file yields no bindings.
func LoadBindings(path string) ([]Binding, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f bindingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid bindings in %s: %w", path, err)
	}

	return f.Bindings, nil
}
