package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/glissade/rcol/pkg/bundle"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
)

func newVerifyCmd() *cobra.Command {
	var sigPath string

	cmd := &cobra.Command{
		Use:   "verify <bundle>",
		Short: "Verify a bundle's checksums and, when present, its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			b, err := bundle.Read(data)
			if err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ok: verified %d payload digest(s) and the bundle checksum\n", len(b.Entries))
			fmt.Fprintf(out, "digest: %s\n", b.Digest)

			explicit := cmd.Flags().Changed("sig")
			if sigPath == "" {
				sigPath = args[0] + ".sig"
			}
			sig, err := os.ReadFile(sigPath)
			if err != nil {
				if !explicit && errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintln(out, "unsigned: no signature file found")
					return nil
				}
				return err
			}
			pub, err := bundle.Verify(b.Digest, string(sig))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "signed by: %s %s\n", pub.Type(), ssh.FingerprintSHA256(pub))
			return nil
		},
	}

	cmd.Flags().StringVar(&sigPath, "sig", "", "signature file (default <bundle>.sig)")
	return cmd
}
