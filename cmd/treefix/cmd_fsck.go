package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFsckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fsck",
		Short: "Verify that every stored object still hashes to its name",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			hashes, err := r.Store.ListHashes()
			if err != nil {
				return err
			}

			var corrupt int
			for _, h := range hashes {
				if err := r.Store.Verify(h); err != nil {
					corrupt++
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}
			if corrupt > 0 {
				return fmt.Errorf("fsck: %d of %d objects corrupt", corrupt, len(hashes))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fsck: %d objects ok\n", len(hashes))
			return nil
		},
	}
}
