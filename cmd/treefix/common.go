package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/substrateos/treefix/pkg/repo"
)

// openRepo opens the repository named by the --repo flag.
func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	path, err := cmd.Flags().GetString("repo")
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	return repo.Open(abs)
}

// shortHash abbreviates a hash for display.
func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
