package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/landmark"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func predictCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "predict [file|-]",
		Short: "Classify one landmark set read from a file or stdin",
		Long: `Reads a JSON array of 21 {"x","y","z"} points, or an object with a
"landmarks" field holding one, and prints the direction or "none".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}

			data, err := readInput(cmd.InOrStdin(), src)
			if err != nil {
				return err
			}
			points, err := parseLandmarks(data)
			if err != nil {
				return err
			}

			client, err := e.client()
			if err != nil {
				return err
			}

			label, _ := client.GetPredictedLabel(cmd.Context(), points)
			fmt.Fprintln(cmd.OutOrStdout(), label.String())
			return nil
		},
	}
}

func readInput(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(src)
}

// parseLandmarks accepts either a bare point array or {"landmarks": [...]}.
// The length is not checked here; the client treats a wrong length as absent.
func parseLandmarks(data []byte) (landmark.Set, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no landmarks given")
	}

	if data[0] == '{' {
		var wrapped struct {
			Landmarks landmark.Set `json:"landmarks"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse landmarks: %w", err)
		}
		return wrapped.Landmarks, nil
	}

	var points landmark.Set
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parse landmarks: %w", err)
	}
	return points, nil
}
