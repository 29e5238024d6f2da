package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/glissade/rcol/pkg/bundle"
	"github.com/glissade/rcol/pkg/jazz"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "restore <bundle>",
		Short: "Rebuild the original container file from a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			b, err := bundle.Read(data)
			if err != nil {
				return fmt.Errorf("read bundle %s: %w", args[0], err)
			}
			c, err := b.Restore(jazz.NewRegistry())
			if err != nil {
				return fmt.Errorf("restore %s: %w", args[0], err)
			}
			encoded, err := c.Encode()
			if err != nil {
				return err
			}

			if output == "" {
				if strings.HasSuffix(args[0], ".rcb") {
					output = strings.TrimSuffix(args[0], ".rcb")
				} else {
					output = args[0] + ".rcol"
				}
			}
			if err := os.WriteFile(output, encoded, 0o644); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d chunks (%d bytes)\n", output, c.NumChunks(), len(encoded))
			for _, d := range c.Diagnostics {
				fmt.Fprintf(out, "  %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "container path (default input without .rcb)")
	return cmd
}
