package main

import (
	"fmt"
	"os"

	"github.com/glissade/rcol/pkg/bundle"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		output      string
		compression string
		sign        bool
		keyPath     string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Pack a container into a compressed, checksummed bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			if compression == "" {
				compression = cfg.Bundle.Compression
			}
			codec, err := bundle.ParseCompression(compression)
			if err != nil {
				return err
			}

			c, err := decodeContainerFile(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + ".rcb"
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			digest, err := bundle.Write(f, c, bundle.Options{Compression: codec})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(output)
				return fmt.Errorf("write bundle: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d chunks, %s compression\n", output, c.NumChunks(), codec)
			fmt.Fprintf(out, "digest: %s\n", digest)

			if !sign {
				return nil
			}
			if keyPath == "" {
				keyPath = cfg.Signing.Key
			}
			signer, resolvedKey, err := loadSigner(keyPath)
			if err != nil {
				return err
			}
			sig, err := bundle.Sign(digest, signer)
			if err != nil {
				return err
			}
			sigPath := output + ".sig"
			if err := os.WriteFile(sigPath, []byte(sig+"\n"), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "signature: %s (key %s)\n", sigPath, resolvedKey)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle path (default <file>.rcb)")
	cmd.Flags().StringVar(&compression, "compression", "", "payload codec: none, lz4, or zstd (default from config)")
	cmd.Flags().BoolVar(&sign, "sign", false, "sign the bundle digest with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for --sign (default from config, else ~/.ssh)")
	return cmd
}
