package main

import (
	"fmt"
	"os"

	"github.com/glissade/rcol/pkg/jazz"
	"github.com/glissade/rcol/pkg/rcol"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "rcol",
		Short:         "Inspect, validate, and archive chunked resource containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default ~/.config/rcol/config.toml)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newRoundtripCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newCatalogCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rcol:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rcol 0.1.0-dev")
		},
	}
}

// decodeContainerFile reads and decodes one container with the full block
// registry. Decode only fails on structural damage, so most malformed files
// still come back as a container carrying diagnostics.
func decodeContainerFile(path string) (*rcol.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := rcol.Decode(data, jazz.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}
