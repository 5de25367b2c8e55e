package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/hotspot-report/internal/duckdb"
	"github.com/inodb/hotspot-report/internal/output"
)

func newRunsCmd() *cobra.Command {
	var archive string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived reports",
		Long:  "List, print, search and delete reports archived with report --archive.",
		Example: `  hotspot-report runs list --sample S1
  hotspot-report runs show <run-id>
  hotspot-report runs search EGFR`,
	}
	cmd.PersistentFlags().StringVar(&archive, "archive", "", "DuckDB archive (default: report.archive from config)")

	open := func() (*duckdb.Store, error) {
		path := archive
		if path == "" {
			path = viper.GetString(keyArchive)
		}
		if path == "" {
			return nil, &usageError{fmt.Errorf("no archive given; use --archive or set %s", keyArchive)}
		}
		return duckdb.Open(path)
	}

	var sample string
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first; inputs changed since are marked (modified)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), sample)
			if err != nil {
				return err
			}
			tw := output.NewTabWriter(cmd.OutOrStdout())
			if err := tw.WriteHeader([]string{"run_id", "sample", "created_at", "rows", "inputs"}); err != nil {
				return err
			}
			for _, r := range runs {
				inputs := make([]string, len(r.Inputs))
				for i, in := range r.Inputs {
					inputs[i] = in.Role + "=" + in.Path
					if in.Modified() {
						inputs[i] += " (modified)"
					}
				}
				if err := tw.Write([]string{
					r.ID, r.Sample, r.CreatedAt.Format(time.RFC3339),
					fmt.Sprint(r.Rows), strings.Join(inputs, ","),
				}); err != nil {
					return err
				}
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&sample, "sample", "s", "", "Only runs of this sample")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the rows of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.RunRows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRows(cmd, rows)
		},
	}

	search := &cobra.Command{
		Use:   "search <term>",
		Short: "Print archived rows containing term, prefixed by their run id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.SearchRows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRows(cmd, rows)
		},
	}

	del := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteRun(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(list, show, search, del)
	return cmd
}

// printRows writes archived rows tab separated, without a header.
func printRows(cmd *cobra.Command, rows [][]string) error {
	w := cmd.OutOrStdout()
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(r, "\t")); err != nil {
			return err
		}
	}
	return nil
}
