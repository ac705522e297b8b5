// Package fixture builds synthetic, reproducible filesystem snapshots
// for exercising the content-addressed tree store: a textual
// file-definition grammar, a security-label classifier, and an
// orchestrator that parses definitions, assembles a mutable tree, and
// commits it atomically under a named ref.
package fixture

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/substrateos/treefix/pkg/archive"
	"github.com/substrateos/treefix/pkg/object"
	"github.com/substrateos/treefix/pkg/repo"
)

// TestRef is the ref all fixture commits advance.
const TestRef = "exampleos/x86_64/stable"

// DefaultTimestamp is the fixed commit time used for every fixture
// commit: Fri, 29 Aug 1997 10:30:42 PST. Fixing it keeps commit
// checksums reproducible across runs.
const DefaultTimestamp int64 = 872879442

// Fixture owns a temp directory holding a source repository (where
// snapshots are committed) and an empty destination repository (the
// target for import round trips).
type Fixture struct {
	Dir      string
	SrcRepo  *repo.Repo
	DestRepo *repo.Repo

	FormatVersion uint32
	SELinux       bool
	Signer        repo.CommitSigner
}

// NewBase allocates the temp directory and initializes the src and dest
// repositories without committing anything.
func NewBase() (*Fixture, error) {
	dir, err := os.MkdirTemp("", "treefix-*")
	if err != nil {
		return nil, fmt.Errorf("fixture: tempdir: %w", err)
	}

	srcCfg := repo.DefaultConfig()
	srcCfg.DefaultRef = TestRef
	srcRepo, err := repo.Init(filepath.Join(dir, "src", "repo"), srcCfg)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("fixture: init src repo: %w", err)
	}

	destCfg := repo.DefaultConfig()
	destCfg.DefaultRef = TestRef
	destRepo, err := repo.Init(filepath.Join(dir, "dest", "repo"), destCfg)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("fixture: init dest repo: %w", err)
	}

	return &Fixture{
		Dir:           dir,
		SrcRepo:       srcRepo,
		DestRepo:      destRepo,
		FormatVersion: 0,
		SELinux:       true,
	}, nil
}

// New builds a fixture with the v0 contents already committed.
func New() (*Fixture, error) {
	f, err := NewBase()
	if err != nil {
		return nil, err
	}
	if _, err := f.CommitFileDefs(ParseDefs(ContentsV0)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Close removes the fixture's temp directory.
func (f *Fixture) Close() error {
	return os.RemoveAll(f.Dir)
}

// Writer returns the definition writer for the source repository.
func (f *Fixture) Writer() *Writer {
	return &Writer{Repo: f.SrcRepo, SELinux: f.SELinux}
}

// CommitFileDefs consumes a definition stream and commits the resulting
// tree under TestRef with the fixed timestamp and the canned commit
// metadata. Any error aborts the batch: the ref does not move.
func (f *Fixture) CommitFileDefs(defs iter.Seq2[*FileDef, error]) (object.Hash, error) {
	return f.Writer().CommitDefs(defs, repo.CommitOptions{
		Ref:       TestRef,
		Timestamp: DefaultTimestamp,
		Metadata: map[string]string{
			"version":           "42.0",
			"buildsys.checksum": "41af286dc0b172ed2f1ca934fd2278de4a1192302ffa07087cea2682e7d372e3",
		},
		DetachedMetadata: map[string]string{
			"my-detached-key": "my-detached-value",
		},
		Signer: f.Signer,
	})
}

// Update commits the v1 contents on top of the current snapshot,
// extending the linear history under TestRef.
func (f *Fixture) Update() error {
	if _, err := f.CommitFileDefs(ParseDefs(ContentsV1)); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// ExportTar exports the current TestRef commit to a tar file inside the
// fixture directory and returns its path.
func (f *Fixture) ExportTar() (string, error) {
	rev, err := f.SrcRepo.ResolveRef(TestRef)
	if err != nil {
		return "", fmt.Errorf("export tar: %w", err)
	}

	path := filepath.Join(f.Dir, "exampleos-export.tar")
	outf, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export tar: %w", err)
	}
	opts := archive.Options{FormatVersion: f.FormatVersion}
	if err := archive.Export(f.SrcRepo, rev, TestRef, outf, opts); err != nil {
		outf.Close()
		os.Remove(path)
		return "", fmt.Errorf("export tar: %w", err)
	}
	if err := outf.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("export tar: %w", err)
	}
	return path, nil
}

// ImportTar imports an exported tar into the destination repository and
// returns the imported commit hash.
func (f *Fixture) ImportTar(path string) (object.Hash, error) {
	inf, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("import tar: %w", err)
	}
	defer inf.Close()

	commit, err := archive.Import(f.DestRepo, inf)
	if err != nil {
		return "", fmt.Errorf("import tar: %w", err)
	}
	return commit, nil
}
