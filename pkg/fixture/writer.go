package fixture

import (
	"fmt"
	"iter"

	"github.com/substrateos/treefix/pkg/mtree"
	"github.com/substrateos/treefix/pkg/object"
	"github.com/substrateos/treefix/pkg/repo"
)

// Writer places parsed file definitions into one repository: it
// content-addresses each leaf, materializes ancestor directories with
// their own per-path labels, and commits the finished tree atomically.
type Writer struct {
	Repo    *repo.Repo
	SELinux bool // attach security labels as xattrs
}

// RequireDirMeta writes (or dedups) the directory-metadata object for a
// root/root 0755 directory at the given path, labeled by the path's own
// label when labeling is on, and returns its checksum.
func (w *Writer) RequireDirMeta(path string) (object.Hash, error) {
	meta := &object.DirMetaObj{UID: 0, GID: 0, Mode: 0o755}
	if w.SELinux {
		meta.Xattrs = LabelForPath(path).Xattrs()
	}
	return w.Repo.Store.WriteDirMeta(meta)
}

// WriteFileDef places one file definition into the mutable tree.
func (w *Writer) WriteFileDef(root *mtree.Tree, def *FileDef) error {
	parts := def.PathComponents()
	parent, err := root.EnsureParentDirs(parts, w.RequireDirMeta)
	if err != nil {
		return fmt.Errorf("write filedef %q: %w", def.Path, err)
	}
	name := parts[len(parts)-1]

	var xattrs object.Xattrs
	if w.SELinux {
		xattrs = LabelForPath(def.Path).Xattrs()
	}

	var checksum object.Hash
	switch def.Kind {
	case KindRegular:
		checksum, err = w.Repo.Store.WriteFile(&object.FileObj{
			UID:     def.UID,
			GID:     def.GID,
			Mode:    def.Mode,
			Xattrs:  xattrs,
			Content: []byte(def.Content),
		})
	case KindSymlink:
		checksum, err = w.Repo.Store.WriteSymlink(&object.SymlinkObj{
			UID:    def.UID,
			GID:    def.GID,
			Xattrs: xattrs,
			Target: def.Target,
		})
	case KindDirectory:
		// An explicit directory spec overrides the implicit root/root
		// 0755 metadata an earlier placement may have assigned.
		d, err := parent.EnsureDir(name)
		if err != nil {
			return fmt.Errorf("write filedef %q: %w", def.Path, err)
		}
		meta, err := w.Repo.Store.WriteDirMeta(&object.DirMetaObj{
			UID:    def.UID,
			GID:    def.GID,
			Mode:   def.Mode,
			Xattrs: xattrs,
		})
		if err != nil {
			return fmt.Errorf("write filedef %q: %w", def.Path, err)
		}
		d.SetMetadataChecksum(meta)
		return nil
	default:
		return fmt.Errorf("write filedef %q: unhandled kind %d", def.Path, def.Kind)
	}
	if err != nil {
		return fmt.Errorf("write filedef %q: %w", def.Path, err)
	}
	if err := parent.ReplaceFile(name, checksum); err != nil {
		return fmt.Errorf("write filedef %q: %w", def.Path, err)
	}
	return nil
}

// CommitDefs consumes a definition stream, builds the tree, and commits
// it inside one transaction. The first error in the stream or in
// placement aborts the transaction: remaining definitions are not
// processed and the ref does not move.
func (w *Writer) CommitDefs(defs iter.Seq2[*FileDef, error], opts repo.CommitOptions) (object.Hash, error) {
	root := mtree.New()
	tx := w.Repo.Begin()
	defer tx.Abort()

	for def, err := range defs {
		if err != nil {
			return "", fmt.Errorf("commit filedefs: %w", err)
		}
		if err := w.WriteFileDef(root, def); err != nil {
			return "", fmt.Errorf("commit filedefs: %w", err)
		}
	}

	rootHash, err := w.Repo.WriteMutableTree(root)
	if err != nil {
		return "", fmt.Errorf("commit filedefs: %w", err)
	}

	commitHash, err := w.Repo.CommitTree(tx, rootHash, opts)
	if err != nil {
		return "", fmt.Errorf("commit filedefs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit filedefs: %w", err)
	}
	return commitHash, nil
}
