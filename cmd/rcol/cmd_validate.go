package main

import (
	"fmt"

	"github.com/glissade/rcol/pkg/jazz"
	"github.com/glissade/rcol/pkg/rcol"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check containers for decode damage, broken references, and orphans",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			total := 0
			for _, path := range args {
				c, err := decodeContainerFile(path)
				if err != nil {
					return err
				}
				rcol.ValidateReferences(c)
				jazz.Analyze(c)
				if len(c.Diagnostics) == 0 {
					fmt.Fprintf(out, "%s: ok\n", path)
					continue
				}
				total += len(c.Diagnostics)
				fmt.Fprintf(out, "%s: %d findings\n", path, len(c.Diagnostics))
				for _, d := range c.Diagnostics {
					fmt.Fprintf(out, "  %s\n", d)
				}
			}
			if strict && total > 0 {
				return fmt.Errorf("%d findings", total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit nonzero when any finding is reported")
	return cmd
}
