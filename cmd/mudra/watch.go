package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/predict"
	"github.com/ayusman/mudra/internal/tray"
)

func watchCmd(e *env) *cobra.Command {
	var withTray bool
	var cameraID int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Classify hands seen by the camera until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("camera") {
				e.cfg.CameraID = cameraID
			}

			var t *tray.Tray
			var extra []predict.Observer

			d, err := e.dispatcher()
			if err != nil {
				return err
			}
			if d != nil {
				defer d.Close()
				extra = append(extra, d)
			}

			if withTray {
				t = tray.New()
				extra = append(extra, t)
			}

			a, err := e.watcher(extra...)
			if err != nil {
				return err
			}

			if t == nil {
				return a.Run(cmd.Context())
			}
			return runWithTray(cmd.Context(), a, t)
		},
	}

	cmd.Flags().BoolVar(&withTray, "tray", false, "show the last direction in the system tray")
	cmd.Flags().IntVar(&cameraID, "camera", 0, "camera device ID (overrides MUDRA_CAMERA_ID)")
	return cmd
}

// watcher wires camera, detector and client into a watch loop.
func (e *env) watcher(extra ...predict.Observer) (*app.App, error) {
	client, err := e.client(extra...)
	if err != nil {
		return nil, err
	}

	dc := detector.DefaultConfig()
	return app.New(app.Config{
		Camera:    capture.NewCamera(e.cfg.CameraID),
		Detector:  newDetector(dc, e.log),
		Predictor: client,
		Rate:      e.cfg.Rate,
		MinScore:  dc.MinConfidence,
		Logger:    e.log,
	}), nil
}

// newDetector prefers MediaPipe and falls back to a detector that never
// sees a hand.
func newDetector(dc detector.Config, log *logrus.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(dc, log)
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, no hands will be detected")
		return detector.NewMockDetector()
	}
	log.Info("Using MediaPipe hand detection")
	return mp
}

// runWithTray runs the loop in the background while the tray owns the
// calling goroutine.
func runWithTray(ctx context.Context, a *app.App, t *tray.Tray) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}
