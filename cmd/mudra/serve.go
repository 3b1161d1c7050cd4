package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/predict"
	"github.com/ayusman/mudra/internal/server"
)

func serveCmd(e *env) *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				e.cfg.Addr = addr
			}

			hub := server.NewHub(e.log)
			observers := []predict.Observer{hub}

			d, err := e.dispatcher()
			if err != nil {
				return err
			}
			if d != nil {
				defer d.Close()
				observers = append(observers, d)
			}

			client, err := e.client(observers...)
			if err != nil {
				return err
			}

			cfg := server.Config{
				Predictor: client,
				Store:     e.store,
				Hub:       hub,
				Logger:    e.log,
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			if watch {
				a, err := e.watcher(observers...)
				if err != nil {
					return err
				}
				cfg.Watch = a
				g.Go(func() error { return a.Run(ctx) })
			}

			srv := server.New(cfg)
			g.Go(func() error { return srv.Run(ctx, e.cfg.Addr) })

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides MUDRA_ADDR)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also run the camera watch loop")
	return cmd
}
