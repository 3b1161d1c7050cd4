package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/plugin"
)

func pluginsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List action plugins and direction bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			m := plugin.NewManager(e.cfg.PluginDir, e.log)
			if err := m.Discover(); err != nil {
				return fmt.Errorf("discover plugins: %w", err)
			}
			bindings, err := plugin.LoadBindings(e.cfg.Bindings)
			if err != nil {
				return err
			}

			plugins := m.List()
			if len(plugins) == 0 {
				fmt.Fprintf(out, "No plugins found in %s.\n", m.PluginDir())
			} else {
				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "PLUGIN\tVERSION\tACTIONS")
				for _, p := range plugins {
					fmt.Fprintf(w, "%s\t%s\t%s\n", p.Manifest.Name, p.Manifest.Version, strings.Join(p.Manifest.Actions, ","))
				}
				w.Flush()
			}

			if len(bindings) == 0 {
				fmt.Fprintf(out, "No bindings in %s.\n", e.cfg.Bindings)
				return nil
			}

			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "LABEL\tPLUGIN\tACTION")
			for _, b := range bindings {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Label, b.Plugin, b.Action)
			}
			return w.Flush()
		},
	}
}
