package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// loadSigner resolves and parses the SSH private key used to sign bundle
// digests. An empty keyPath probes the usual ~/.ssh key files.
func loadSigner(keyPath string) (ssh.Signer, string, error) {
	resolved, err := resolveSigningKeyPath(keyPath)
	if err != nil {
		return nil, "", err
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("read signing key %q: %w", resolved, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, "", fmt.Errorf("parse signing key %q: %w", resolved, err)
	}
	return signer, resolved, nil
}

func resolveSigningKeyPath(path string) (string, error) {
	if path != "" {
		return expandUserPath(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	candidates := []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
	for _, candidate := range candidates {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no default SSH private key found in ~/.ssh (id_ed25519, id_ecdsa, id_rsa)")
}
