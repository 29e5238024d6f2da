package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestExportVerifyRestoreRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	src := writeContainerFixture(t)
	original, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	bundlePath := src + ".rcb"

	var exportOut bytes.Buffer
	exportCmd := newExportCmd()
	exportCmd.SetOut(&exportOut)
	exportCmd.SetErr(&exportOut)
	exportCmd.SetArgs([]string{src, "--compression", "zstd"})
	if err := exportCmd.Execute(); err != nil {
		t.Fatalf("export Execute: %v\noutput:\n%s", err, exportOut.String())
	}
	if !strings.Contains(exportOut.String(), "digest: ") {
		t.Fatalf("export output = %q, want a digest line", exportOut.String())
	}

	var verifyOut bytes.Buffer
	verifyCmd := newVerifyCmd()
	verifyCmd.SetOut(&verifyOut)
	verifyCmd.SetErr(&verifyOut)
	verifyCmd.SetArgs([]string{bundlePath})
	if err := verifyCmd.Execute(); err != nil {
		t.Fatalf("verify Execute: %v\noutput:\n%s", err, verifyOut.String())
	}
	if !strings.Contains(verifyOut.String(), "ok: verified") {
		t.Errorf("verify output = %q, want to contain %q", verifyOut.String(), "ok: verified")
	}
	if !strings.Contains(verifyOut.String(), "unsigned") {
		t.Errorf("verify output = %q, want the unsigned note", verifyOut.String())
	}

	restored := filepath.Join(filepath.Dir(src), "restored.rcol")
	var restoreOut bytes.Buffer
	restoreCmd := newRestoreCmd()
	restoreCmd.SetOut(&restoreOut)
	restoreCmd.SetErr(&restoreOut)
	restoreCmd.SetArgs([]string{bundlePath, "-o", restored})
	if err := restoreCmd.Execute(); err != nil {
		t.Fatalf("restore Execute: %v\noutput:\n%s", err, restoreOut.String())
	}

	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, original) {
		t.Fatal("restored container differs from the original bytes")
	}
}

func TestExportCmdSignsAndVerifyChecksSignature(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	src := writeContainerFixture(t)
	keyPath := writeTestKeyFile(t)
	bundlePath := src + ".rcb"

	var exportOut bytes.Buffer
	exportCmd := newExportCmd()
	exportCmd.SetOut(&exportOut)
	exportCmd.SetErr(&exportOut)
	exportCmd.SetArgs([]string{src, "--sign", "--key", keyPath})
	if err := exportCmd.Execute(); err != nil {
		t.Fatalf("export --sign Execute: %v\noutput:\n%s", err, exportOut.String())
	}
	if !strings.Contains(exportOut.String(), "signature: "+bundlePath+".sig") {
		t.Fatalf("export output = %q, want the signature path", exportOut.String())
	}

	var verifyOut bytes.Buffer
	verifyCmd := newVerifyCmd()
	verifyCmd.SetOut(&verifyOut)
	verifyCmd.SetErr(&verifyOut)
	verifyCmd.SetArgs([]string{bundlePath})
	if err := verifyCmd.Execute(); err != nil {
		t.Fatalf("verify Execute: %v\noutput:\n%s", err, verifyOut.String())
	}
	if !strings.Contains(verifyOut.String(), "signed by: ssh-ed25519") {
		t.Errorf("verify output = %q, want the signer line", verifyOut.String())
	}
}

func writeTestKeyFile(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}
