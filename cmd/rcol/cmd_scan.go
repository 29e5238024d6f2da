package main

import (
	"fmt"

	"github.com/glissade/rcol/pkg/catalog"
	"github.com/glissade/rcol/pkg/jazz"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Walk a directory tree and record every container in the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			if catalogPath == "" {
				catalogPath = cfg.Catalog.Path
			}
			catalogPath, err = expandUserPath(catalogPath)
			if err != nil {
				return err
			}

			store, err := catalog.Open(catalogPath)
			if err != nil {
				return err
			}
			defer store.Close()

			scanner := catalog.NewScanner(store, jazz.NewRegistry(), newLogger(cfg))
			scan, err := scanner.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scan %s: %d files, %d chunks, %d diagnostics\n",
				scan.ID, scan.Files, scan.Chunks, scan.Diagnostics)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog database (default from config)")
	return cmd
}
