package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var refName string
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history for a ref",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			if refName == "" {
				refName = r.Config.DefaultRef
			}

			start, err := r.ResolveRef(refName)
			if err != nil {
				return err
			}
			commits, err := r.Log(start, limit)
			if err != nil {
				return err
			}

			current := start
			for _, c := range commits {
				fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", current)
				fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", time.Unix(c.Timestamp, 0).UTC().Format(time.RFC1123))
				keys := make([]string, 0, len(c.Metadata))
				for k := range c.Metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", k, c.Metadata[k])
				}
				fmt.Fprintln(cmd.OutOrStdout())
				current = c.Parent
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&refName, "ref", "", "ref to walk (default: repo config)")
	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits (0 = all)")

	return cmd
}
