package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/substrateos/treefix/pkg/fixture"
	"github.com/substrateos/treefix/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var (
		defsPath  string
		refName   string
		timestamp int64
		noSELinux bool
		metadata  []string
		signKey   string
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit a snapshot built from file definitions",
		Long: `Reads file definitions (one per line: "r PATH CONTENT",
"l PATH TARGET", "d PATH", with "m [UID GID MODE]" directives) and
commits the resulting tree under a ref. The timestamp is caller
supplied so identical inputs always produce identical commits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			var text []byte
			if defsPath == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(defsPath)
			}
			if err != nil {
				return fmt.Errorf("read definitions: %w", err)
			}

			md := make(map[string]string)
			for _, kv := range metadata {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("metadata must be KEY=VALUE, got %q", kv)
				}
				md[k] = v
			}

			var signer repo.CommitSigner
			if signKey != "" {
				signer, _, err = newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
			}

			w := &fixture.Writer{Repo: r, SELinux: r.Config.SELinux && !noSELinux}
			h, err := w.CommitDefs(fixture.ParseDefs(string(text)), repo.CommitOptions{
				Ref:       refName,
				Timestamp: timestamp,
				Metadata:  md,
				Signer:    signer,
			})
			if err != nil {
				return err
			}

			ref := refName
			if ref == "" {
				ref = r.Config.DefaultRef
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s]\n", ref, shortHash(string(h)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&defsPath, "file", "f", "-", "file definitions path (- for stdin)")
	cmd.Flags().StringVar(&refName, "ref", "", "ref to advance (default: repo config)")
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "commit timestamp, seconds since epoch")
	cmd.Flags().BoolVar(&noSELinux, "no-selinux", false, "skip security label xattrs")
	cmd.Flags().StringArrayVar(&metadata, "add-metadata", nil, "commit metadata KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key to sign the commit with")

	return cmd
}
