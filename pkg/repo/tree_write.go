package repo

import (
	"fmt"
	"path"

	"github.com/substrateos/treefix/pkg/mtree"
	"github.com/substrateos/treefix/pkg/object"
)

// WriteMutableTree serializes a finished mutable tree into the store,
// depth-first, and returns the root tree's checksum. Every directory
// must have its metadata checksum set (mtree.ErrIncompleteTree
// otherwise). Structurally distinct directories with identical content
// collapse to one stored object.
func (r *Repo) WriteMutableTree(mt *mtree.Tree) (object.Hash, error) {
	if err := mt.CheckComplete(); err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return r.writeTreeNode(mt, "")
}

func (r *Repo) writeTreeNode(node *mtree.Tree, prefix string) (object.Hash, error) {
	var entries []object.TreeEntry

	for _, name := range node.FileNames() {
		h, _ := node.File(name)
		entries = append(entries, object.TreeEntry{
			Name:     name,
			FileHash: h,
		})
	}
	for _, name := range node.SubdirNames() {
		child, _ := node.Subdir(name)
		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subHash, err := r.writeTreeNode(child, childPrefix)
		if err != nil {
			return "", err
		}
		entries = append(entries, object.TreeEntry{
			Name:        name,
			IsDir:       true,
			SubtreeHash: subHash,
		})
	}

	treeObj := &object.TreeObj{
		MetaHash: node.MetadataChecksum(),
		Entries:  entries,
	}
	h, err := r.Store.WriteTree(treeObj)
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// TreeFileEntry is a single leaf in a flattened tree.
type TreeFileEntry struct {
	Path     string
	FileHash object.Hash
}

// FlattenTree walks a stored tree recursively, returning all leaf
// entries with their full slash-separated paths.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir {
			sub, err := r.flattenTreeRec(entry.SubtreeHash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path:     fullPath,
				FileHash: entry.FileHash,
			})
		}
	}
	return result, nil
}
