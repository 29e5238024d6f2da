package main

import (
	"errors"
	"fmt"

	"github.com/glissade/rcol/pkg/catalog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query recorded scans",
	}
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog database (default from config)")

	cmd.AddCommand(newCatalogListCmd(&catalogPath))
	cmd.AddCommand(newCatalogShowCmd(&catalogPath))
	return cmd
}

// openCatalog resolves the catalog path from the flag, falling back to
// the config file, and opens the store.
func openCatalog(cmd *cobra.Command, path string) (*catalog.Store, error) {
	if path == "" {
		cfg, err := configFromCmd(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.Catalog.Path
	}
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	return catalog.Open(path)
}

func newCatalogListCmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(cmd, *catalogPath)
			if err != nil {
				return err
			}
			defer store.Close()

			scans, err := store.Scans(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(scans) == 0 {
				fmt.Fprintln(out, "no scans recorded")
				return nil
			}
			rows := make([]table.Row, 0, len(scans))
			for _, s := range scans {
				rows = append(rows, table.Row{
					s.ID,
					s.Root,
					s.StartedAt.Local().Format("2006-01-02 15:04:05"),
					s.Files,
					s.Chunks,
					s.Diagnostics,
				})
			}
			fmt.Fprintln(out, renderTable(
				table.Row{"ID", "ROOT", "STARTED", "FILES", "CHUNKS", "DIAGS"},
				rows, 4, 5, 6))
			return nil
		},
	}
}

func newCatalogShowCmd(catalogPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "show [scan-id]",
		Short: "Show one scan's containers, or one container's chunks with --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(cmd, *catalogPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			var scan *catalog.Scan
			if len(args) == 1 {
				scan, err = store.ScanByID(ctx, args[0])
				if err != nil {
					return err
				}
			} else {
				scans, err := store.Scans(ctx)
				if err != nil {
					return err
				}
				if len(scans) == 0 {
					return errors.New("no scans recorded")
				}
				scan = &scans[0]
			}

			out := cmd.OutOrStdout()
			if file != "" {
				detail, err := store.ContainerDetail(ctx, scan.ID, file)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "scan %s: %s\n", scan.ID, file)
				rows := make([]table.Row, 0, len(detail.Chunks))
				for i, ch := range detail.Chunks {
					rows = append(rows, table.Row{i, ch.Tag, ch.Kind, ch.Size, ch.Known})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"INDEX", "TAG", "KIND", "BYTES", "KNOWN"},
					rows, 1, 4))
				for _, d := range detail.Diagnostics {
					if d.Chunk >= 0 {
						fmt.Fprintf(out, "  chunk %d (%s): %s: %s\n", d.Chunk, d.Tag, d.Kind, d.Message)
					} else {
						fmt.Fprintf(out, "  file: %s: %s\n", d.Kind, d.Message)
					}
				}
				return nil
			}

			containers, err := store.Containers(ctx, scan.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "scan %s: root %s, %d files\n", scan.ID, scan.Root, scan.Files)
			rows := make([]table.Row, 0, len(containers))
			for _, c := range containers {
				rows = append(rows, table.Row{
					c.Path, c.Version, c.PublicChunks, c.TotalChunks, c.ExternalRefs, c.Diagnostics,
				})
			}
			fmt.Fprintln(out, renderTable(
				table.Row{"PATH", "VERSION", "PUBLIC", "CHUNKS", "RESOURCES", "DIAGS"},
				rows, 2, 3, 4, 5, 6))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "show chunk detail for one scanned path")
	return cmd
}
