package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestRoundtripCmdReportsByteIdentical(t *testing.T) {
	path := writeContainerFixture(t)

	var out bytes.Buffer
	cmd := newRoundtripCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("roundtrip Execute: %v\noutput:\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "byte-identical") {
		t.Fatalf("roundtrip output = %q, want to contain %q", out.String(), "byte-identical")
	}
}

func TestRoundtripCmdFlagsTrailingSlack(t *testing.T) {
	path := writeContainerFixture(t)

	// Bytes after the key table decode cleanly but are not reproduced
	// by a re-encode, so the file must be reported as unstable.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, 0xAA, 0xBB, 0xCC, 0xDD)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRoundtripCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path})
	err = cmd.Execute()
	if err == nil {
		t.Fatalf("roundtrip of padded file succeeded:\n%s", out.String())
	}
	if !strings.Contains(err.Error(), "1 of 1 files failed") {
		t.Errorf("roundtrip error = %q, want to mention the failure count", err)
	}
	if !strings.Contains(out.String(), "differs at offset") {
		t.Errorf("roundtrip output = %q, want to contain %q", out.String(), "differs at offset")
	}
	if !strings.Contains(out.String(), "normalization is stable") {
		t.Errorf("roundtrip output = %q, want the stability note", out.String())
	}
}
