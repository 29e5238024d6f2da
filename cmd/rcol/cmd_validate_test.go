package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glissade/rcol/pkg/jazz"
	"github.com/glissade/rcol/pkg/rcol"
)

func writeDanglingRefFixture(t *testing.T) string {
	t.Helper()

	c := rcol.New()
	sm := jazz.NewStateMachine()
	sm.States = []rcol.ChunkRef{7}
	c.AddPublic(sm)

	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "dangling.jazz")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestValidateCmdReportsFindings(t *testing.T) {
	path := writeDanglingRefFixture(t)

	var out bytes.Buffer
	cmd := newValidateCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate Execute: %v\noutput:\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "1 findings") {
		t.Errorf("validate output = %q, want the finding count", out.String())
	}
	if !strings.Contains(out.String(), "ref-out-of-range") {
		t.Errorf("validate output = %q, want to contain %q", out.String(), "ref-out-of-range")
	}
}

func TestValidateCmdStrictFailsOnFindings(t *testing.T) {
	path := writeDanglingRefFixture(t)

	var out bytes.Buffer
	cmd := newValidateCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path, "--strict"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("strict validate of a damaged file succeeded:\n%s", out.String())
	}
}

func TestValidateCmdCleanFile(t *testing.T) {
	path := writeContainerFixture(t)

	var out bytes.Buffer
	cmd := newValidateCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path, "--strict"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate Execute: %v\noutput:\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), ": ok") {
		t.Errorf("validate output = %q, want %q", out.String(), ": ok")
	}
}
