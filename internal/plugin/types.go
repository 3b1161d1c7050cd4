// Package plugin runs external actions when a direction is recognized.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// The executable reads one Request as JSON on stdin and writes one Response
// as JSON on stdout.
package plugin

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name" validate:"required"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable" validate:"required"`
	Actions     []string `json:"actions" validate:"min=1"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin for one recognized direction.
type Request struct {
	Action    string              `json:"action"`
	Label     string              `json:"label"`
	RequestID string              `json:"request_id,omitempty"`
	Params    jsoniter.RawMessage `json:"params,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Data    jsoniter.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
