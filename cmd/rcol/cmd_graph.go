package main

import (
	"fmt"
	"io"

	"github.com/glissade/rcol/pkg/jazz"
	"github.com/glissade/rcol/pkg/rcol"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	var dot bool

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Report state-machine reachability, or emit the reference graph as DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := decodeContainerFile(args[0])
			if err != nil {
				return err
			}
			report := jazz.Analyze(c)
			if dot {
				writeDOT(cmd.OutOrStdout(), c, report)
				return nil
			}
			printGraphReport(cmd.OutOrStdout(), c, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dot, "dot", false, "emit the reference graph in Graphviz DOT form")
	return cmd
}

func printGraphReport(out io.Writer, c *rcol.Container, report *jazz.GraphReport) {
	if len(report.Roots) == 0 {
		fmt.Fprintln(out, "no state machine chunks")
		return
	}
	for _, root := range report.Roots {
		members := report.ByRoot[root]
		fmt.Fprintf(out, "root %d (%s): reaches %d chunks\n", root, c.ChunkAt(root).Tag, len(members))
		for _, i := range members {
			ch := c.ChunkAt(i)
			fmt.Fprintf(out, "  %d %s %s\n", i, ch.Tag, chunkKind(ch))
		}
	}
	if len(report.Orphans) > 0 {
		fmt.Fprintf(out, "orphans: %d\n", len(report.Orphans))
		for _, i := range report.Orphans {
			ch := c.ChunkAt(i)
			fmt.Fprintf(out, "  %d %s %s\n", i, ch.Tag, chunkKind(ch))
		}
	}
}

// writeDOT renders every chunk as a node and every in-range outbound
// reference as an edge. Roots draw bold, orphans dashed. Out-of-range
// references are omitted; validate is the command that reports those.
func writeDOT(out io.Writer, c *rcol.Container, report *jazz.GraphReport) {
	roots := make(map[int]bool, len(report.Roots))
	for _, i := range report.Roots {
		roots[i] = true
	}
	orphans := make(map[int]bool, len(report.Orphans))
	for _, i := range report.Orphans {
		orphans[i] = true
	}

	fmt.Fprintln(out, "digraph container {")
	fmt.Fprintln(out, "\trankdir=LR;")
	fmt.Fprintln(out, "\tnode [shape=box fontname=\"monospace\"];")
	total := c.NumChunks()
	for i := 0; i < total; i++ {
		ch := c.ChunkAt(i)
		attrs := fmt.Sprintf("label=%q", fmt.Sprintf("%d %s\n%s", i, ch.Tag, chunkKind(ch)))
		switch {
		case roots[i]:
			attrs += " penwidth=2"
		case orphans[i]:
			attrs += " style=dashed"
		}
		fmt.Fprintf(out, "\tc%d [%s];\n", i, attrs)
	}
	for i := 0; i < total; i++ {
		for _, ref := range jazz.OutboundRefs(c.ChunkAt(i).Block) {
			if ref.IsNull() || int(ref) >= total {
				continue
			}
			fmt.Fprintf(out, "\tc%d -> c%d;\n", i, uint32(ref))
		}
	}
	fmt.Fprintln(out, "}")
}
