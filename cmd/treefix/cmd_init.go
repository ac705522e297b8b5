package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/substrateos/treefix/pkg/repo"
)

func newInitCmd() *cobra.Command {
	var hashAlgo string
	var defaultRef string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty snapshot repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			cfg := repo.DefaultConfig()
			if hashAlgo != "" {
				cfg.Hash = hashAlgo
			}
			if defaultRef != "" {
				cfg.DefaultRef = defaultRef
			}

			r, err := repo.Init(abs, cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty repository in %s (hash=%s)\n", r.Dir, r.Store.Algorithm())
			return nil
		},
	}

	cmd.Flags().StringVar(&hashAlgo, "hash", "", "content hash algorithm (sha256 or xxh3)")
	cmd.Flags().StringVar(&defaultRef, "default-ref", "", "ref commits target by default")

	return cmd
}
