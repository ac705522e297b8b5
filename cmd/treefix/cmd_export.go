package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/substrateos/treefix/pkg/archive"
)

func newExportCmd() *cobra.Command {
	var (
		refName       string
		outPath       string
		formatVersion uint32
		useZstd       bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a ref's commit as a tar stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			if refName == "" {
				refName = r.Config.DefaultRef
			}
			if !cmd.Flags().Changed("format-version") {
				formatVersion = r.Config.FormatVersion
			}
			rev, err := r.ResolveRef(refName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}

			opts := archive.Options{FormatVersion: formatVersion, Zstd: useZstd}
			if err := archive.Export(r, rev, refName, out, opts); err != nil {
				return err
			}
			if outPath != "" && outPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %s (%s) to %s\n", refName, shortHash(string(rev)), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&refName, "ref", "", "ref to export (default: repo config)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().Uint32Var(&formatVersion, "format-version", 0, "archive format version")
	cmd.Flags().BoolVar(&useZstd, "zstd", false, "compress the stream with zstd")

	return cmd
}
