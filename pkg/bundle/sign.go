package bundle

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// signaturePrefix versions the detached signature string format.
const signaturePrefix = "rcolsig-v1"

// Sign produces a detached signature over a bundle digest using an
// SSH private key. The string embeds the signer's public key, so
// verification needs no separate key distribution:
//
//	rcolsig-v1:<format>:<base64 public key>:<base64 signature blob>
func Sign(digest Digest, signer ssh.Signer) (string, error) {
	sig, err := signer.Sign(rand.Reader, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign bundle digest: %w", err)
	}
	pubB64 := base64.StdEncoding.EncodeToString(signer.PublicKey().Marshal())
	sigB64 := base64.StdEncoding.EncodeToString(sig.Blob)
	return fmt.Sprintf("%s:%s:%s:%s", signaturePrefix, sig.Format, pubB64, sigB64), nil
}

// Verify checks a detached signature against a bundle digest and
// returns the embedded public key on success. The caller decides
// whether that key is trusted; Verify only proves the digest was
// signed by it.
func Verify(digest Digest, signature string) (ssh.PublicKey, error) {
	parts := strings.Split(strings.TrimSpace(signature), ":")
	if len(parts) != 4 || parts[0] != signaturePrefix {
		return nil, errors.New("malformed bundle signature")
	}
	pubBytes, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("decode signer public key: %w", err)
	}
	pub, err := ssh.ParsePublicKey(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signer public key: %w", err)
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("decode signature blob: %w", err)
	}
	sig := &ssh.Signature{Format: parts[1], Blob: blob}
	if err := pub.Verify(digest[:], sig); err != nil {
		return nil, fmt.Errorf("bundle signature rejected: %w", err)
	}
	return pub, nil
}
