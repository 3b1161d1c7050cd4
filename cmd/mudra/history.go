package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/predict"
)

func historyCmd(e *env) *cobra.Command {
	var limit int
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recorded predictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.store == nil {
				return errHistoryDisabled
			}
			out := cmd.OutOrStdout()

			if clearAll {
				n, err := e.store.Predictions().DeleteAll()
				if err != nil {
					return fmt.Errorf("clear history: %w", err)
				}
				fmt.Fprintf(out, "Deleted %d predictions.\n", n)
				return nil
			}

			predictions, err := e.store.Predictions().List(limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if len(predictions) == 0 {
				fmt.Fprintln(out, "No predictions recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TIME\tLABEL\tENCODER\tSTATUS\tFAILURE\tLATENCY")
			fmt.Fprintln(w, "----\t-----\t-------\t------\t-------\t-------")
			for _, p := range predictions {
				failure := p.Failure
				if failure == "" {
					failure = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%dms\n",
					p.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					predict.Label(p.Label).String(), p.Encoder, p.Status, failure, p.LatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of predictions to show, 0 for all")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every recorded prediction")
	return cmd
}
