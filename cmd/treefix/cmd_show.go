package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var refName string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a ref's commit and the files in its tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			if refName == "" {
				refName = r.Config.DefaultRef
			}

			h, err := r.ResolveRef(refName)
			if err != nil {
				return err
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "commit %s\n", h)
			fmt.Fprintf(out, "tree %s\n", c.TreeHash)
			if c.Parent != "" {
				fmt.Fprintf(out, "parent %s\n", c.Parent)
			}
			fmt.Fprintf(out, "Date: %s\n", time.Unix(c.Timestamp, 0).UTC().Format(time.RFC1123))
			if c.Signature != "" {
				fmt.Fprintf(out, "signature: %s\n", c.Signature)
			}

			detached, err := r.Store.ReadDetachedMetadata(h)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(detached))
			for k := range detached {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "detached %s: %s\n", k, detached[k])
			}

			entries, err := r.FlattenTree(c.TreeHash)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s\n", shortHash(string(e.FileHash)), e.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&refName, "ref", "", "ref to show (default: repo config)")

	return cmd
}
