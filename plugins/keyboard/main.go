// Command keyboard is a mudra action plugin for macOS. It presses the arrow
// key matching the recognized direction, or a configured keystroke, via
// AppleScript.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request represents the input from the plugin executor.
type Request struct {
	Action string              `json:"action"`
	Label  string              `json:"label"`
	Params jsoniter.RawMessage `json:"params,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// KeystrokeParams defines parameters for the keystroke action.
type KeystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// arrowKeyCodes are the macOS virtual key codes for the arrow keys.
var arrowKeyCodes = map[string]int{
	"left":  123,
	"right": 124,
	"down":  125,
	"up":    126,
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	json.NewEncoder(os.Stdout).Encode(handle(os.Stdin, runAppleScript))
}

func handle(in io.Reader, run func(string) error) Response {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	script, err := buildScript(req)
	if err != nil {
		return Response{Error: err.Error()}
	}
	if err := run(script); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return Response{Success: true}
}

func buildScript(req Request) (string, error) {
	switch req.Action {
	case "arrow":
		code, ok := arrowKeyCodes[req.Label]
		if !ok {
			return "", fmt.Errorf("no arrow key for label %q", req.Label)
		}
		return fmt.Sprintf(`tell application "System Events" to key code %d`, code), nil

	case "keystroke":
		var p KeystrokeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return "", fmt.Errorf("failed to parse params: %w", err)
		}
		if p.Key == "" {
			return "", fmt.Errorf("key is required")
		}
		return keystrokeScript(p.Key, p.Modifiers), nil

	default:
		return "", fmt.Errorf("unknown action: %s", req.Action)
	}
}

// keystrokeScript generates an AppleScript for the given key and modifiers.
// Unknown modifiers are ignored.
func keystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke %q`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke %q using {%s}`, key, strings.Join(appleModifiers, ", "))
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	output, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
