package main

import (
	"fmt"
	"strings"

	"github.com/glissade/rcol/pkg/rcol"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type inspectReport struct {
	Path         string              `json:"path"`
	Version      uint32              `json:"version"`
	PublicChunks int                 `json:"public_chunks"`
	TotalChunks  int                 `json:"total_chunks"`
	Resources    []string            `json:"resources,omitempty"`
	Chunks       []inspectChunk      `json:"chunks"`
	Diagnostics  []inspectDiagnostic `json:"diagnostics,omitempty"`
}

type inspectChunk struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Kind  string `json:"kind"`
	Scope string `json:"scope"`
	Bytes int    `json:"bytes"`
	Refs  int    `json:"refs"`
	Note  string `json:"note,omitempty"`
}

type inspectDiagnostic struct {
	Chunk   int    `json:"chunk"`
	Tag     string `json:"tag,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newInspectCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a container's chunks, resources, and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := decodeContainerFile(args[0])
			if err != nil {
				return err
			}
			report := buildInspectReport(args[0], c)
			if jsonOut {
				return writeJSON(cmd, report)
			}
			printInspectReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
	return cmd
}

func buildInspectReport(path string, c *rcol.Container) inspectReport {
	report := inspectReport{
		Path:         path,
		Version:      c.Version,
		PublicChunks: len(c.Public),
		TotalChunks:  c.NumChunks(),
	}
	for _, key := range c.Resources {
		report.Resources = append(report.Resources, key.String())
	}
	for i, ch := range c.Chunks() {
		scope := "internal"
		if i < len(c.Public) {
			scope = "public"
		}
		refs := 0
		if referencer, ok := ch.Block.(rcol.Referencer); ok {
			refs = len(referencer.References())
		}
		report.Chunks = append(report.Chunks, inspectChunk{
			Index: i,
			Tag:   ch.Tag,
			Kind:  chunkKind(ch),
			Scope: scope,
			Bytes: len(ch.Raw),
			Refs:  refs,
			Note:  ch.Note,
		})
	}
	for _, d := range c.Diagnostics {
		report.Diagnostics = append(report.Diagnostics, inspectDiagnostic{
			Chunk:   d.Chunk,
			Tag:     d.Tag,
			Kind:    string(d.Kind),
			Message: d.Message,
		})
	}
	return report
}

func printInspectReport(cmd *cobra.Command, report inspectReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:    %s\n", report.Path)
	fmt.Fprintf(out, "version: %d\n", report.Version)
	fmt.Fprintf(out, "chunks:  %d (%d public, %d internal)\n",
		report.TotalChunks, report.PublicChunks, report.TotalChunks-report.PublicChunks)

	rows := make([]table.Row, 0, len(report.Chunks))
	for _, ch := range report.Chunks {
		rows = append(rows, table.Row{ch.Index, ch.Tag, ch.Kind, ch.Scope, ch.Bytes, ch.Refs})
	}
	fmt.Fprintln(out, renderTable(
		table.Row{"INDEX", "TAG", "KIND", "SCOPE", "BYTES", "REFS"},
		rows, 1, 5, 6))

	if len(report.Resources) > 0 {
		fmt.Fprintln(out, "resources:")
		for _, key := range report.Resources {
			fmt.Fprintf(out, "  %s\n", key)
		}
	}
	if len(report.Diagnostics) > 0 {
		fmt.Fprintln(out, "diagnostics:")
		for _, d := range report.Diagnostics {
			diag := rcol.Diagnostic{Chunk: d.Chunk, Tag: d.Tag, Kind: rcol.DiagKind(d.Kind), Message: d.Message}
			fmt.Fprintf(out, "  %s\n", diag)
		}
	}
}

// chunkKind names a chunk's decoded type for display. Demoted and
// unregistered chunks both show as raw.
func chunkKind(ch *rcol.Chunk) string {
	if ch.Block == nil {
		return "raw"
	}
	if _, ok := ch.Block.(*rcol.RawBlock); ok {
		return "raw"
	}
	name := fmt.Sprintf("%T", ch.Block)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
