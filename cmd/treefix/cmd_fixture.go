package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/substrateos/treefix/pkg/fixture"
)

func newFixtureCmd() *cobra.Command {
	var (
		keep    bool
		update  bool
		doRound bool
	)

	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Build the canned example fixture and print its layout",
		Long: `Creates a temp directory with a source repository holding the
canned v0 snapshot under ` + fixture.TestRef + `. Useful for eyeballing
what higher-level tests operate on.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.New()
			if err != nil {
				return err
			}
			if !keep {
				defer f.Close()
			}

			if update {
				if err := f.Update(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			rev, err := f.SrcRepo.ResolveRef(fixture.TestRef)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "ref %s -> %s\n", fixture.TestRef, rev)

			c, err := f.SrcRepo.Store.ReadCommit(rev)
			if err != nil {
				return err
			}
			entries, err := f.SrcRepo.FlattenTree(c.TreeHash)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s\n", shortHash(string(e.FileHash)), e.Path)
			}

			if doRound {
				tarPath, err := f.ExportTar()
				if err != nil {
					return err
				}
				imported, err := f.ImportTar(tarPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "round trip: %s\n", imported)
			}

			if keep {
				fmt.Fprintf(out, "fixture kept at %s\n", f.Dir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "do not remove the fixture directory")
	cmd.Flags().BoolVar(&update, "update", false, "also commit the v1 contents")
	cmd.Flags().BoolVar(&doRound, "round-trip", false, "export and re-import the commit")

	return cmd
}
