package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/substrateos/treefix/pkg/archive"
)

func newImportCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an exported tar stream into the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if inPath != "" && inPath != "-" {
				f, err := os.Open(inPath)
				if err != nil {
					return fmt.Errorf("open %s: %w", inPath, err)
				}
				defer f.Close()
				in = f
			}

			h, err := archive.Import(r, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported commit %s\n", h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "input", "i", "-", "input file (- for stdin)")

	return cmd
}
