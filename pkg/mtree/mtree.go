// Package mtree provides the mutable, in-memory directory tree used to
// assemble a snapshot before it is serialized into content-addressed
// tree objects. Nodes hold checksums, not nested content: two
// directories whose metadata and children hash identically collapse to
// one stored object even though the builder navigates them as a tree.
package mtree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/substrateos/treefix/pkg/object"
)

var (
	// ErrEmptyComponent reports an empty path component ("", "a//b").
	ErrEmptyComponent = errors.New("empty path component")

	// ErrNotDirectory reports a child that exists as a file where a
	// directory is required, or vice versa.
	ErrNotDirectory = errors.New("child is not a directory")

	// ErrIncompleteTree reports a directory whose metadata checksum was
	// never set. A finished tree must have every node's metadata bound;
	// hitting this is a builder defect, not a user error.
	ErrIncompleteTree = errors.New("incomplete tree: directory metadata checksum unset")
)

// MetadataFunc mints the directory-metadata checksum for a directory at
// the given slash-separated path ("" is the root). The builder calls it
// once per directory that is materialized without an explicit spec.
type MetadataFunc func(path string) (object.Hash, error)

// Tree is one mutable directory node. Child names are unique across
// files and subdirectories.
type Tree struct {
	metaHash object.Hash
	files    map[string]object.Hash
	subdirs  map[string]*Tree
}

// New returns an empty directory node with no metadata checksum.
func New() *Tree {
	return &Tree{
		files:   make(map[string]object.Hash),
		subdirs: make(map[string]*Tree),
	}
}

// MetadataChecksum returns the directory's metadata checksum, empty if
// it has not been set yet.
func (t *Tree) MetadataChecksum() object.Hash {
	return t.metaHash
}

// SetMetadataChecksum binds (or rebinds) the directory's metadata
// checksum. An explicit directory spec overrides whatever an earlier
// implicit materialization assigned.
func (t *Tree) SetMetadataChecksum(h object.Hash) {
	t.metaHash = h
}

// File returns the checksum bound to a file child.
func (t *Tree) File(name string) (object.Hash, bool) {
	h, ok := t.files[name]
	return h, ok
}

// Subdir returns a directory child.
func (t *Tree) Subdir(name string) (*Tree, bool) {
	d, ok := t.subdirs[name]
	return d, ok
}

// FileNames returns the names of file children, sorted.
func (t *Tree) FileNames() []string {
	names := make([]string, 0, len(t.files))
	for name := range t.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubdirNames returns the names of directory children, sorted.
func (t *Tree) SubdirNames() []string {
	names := make([]string, 0, len(t.subdirs))
	for name := range t.subdirs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReplaceFile binds a leaf checksum (regular file or symlink object) to
// name, replacing any previous binding. The name must not collide with
// an existing subdirectory.
func (t *Tree) ReplaceFile(name string, h object.Hash) error {
	if name == "" {
		return fmt.Errorf("replace file: %w", ErrEmptyComponent)
	}
	if _, isDir := t.subdirs[name]; isDir {
		return fmt.Errorf("replace file %q: name already bound to a directory", name)
	}
	t.files[name] = h
	return nil
}

// EnsureDir returns the directory child for name, creating it if
// missing. Creation is idempotent: asking twice yields the same node.
func (t *Tree) EnsureDir(name string) (*Tree, error) {
	if name == "" {
		return nil, fmt.Errorf("ensure dir: %w", ErrEmptyComponent)
	}
	if _, isFile := t.files[name]; isFile {
		return nil, fmt.Errorf("ensure dir %q: %w", name, ErrNotDirectory)
	}
	if d, ok := t.subdirs[name]; ok {
		return d, nil
	}
	d := New()
	t.subdirs[name] = d
	return d, nil
}

// EnsureParentDirs walks all but the last of the path's components from
// this node, materializing missing intermediate directories, and
// returns the immediate parent for the final component. Every directory
// traversed (this node included) that has no metadata checksum yet gets
// one from metaFor, keyed by that directory's own path. Repeated
// invocations for overlapping paths share the already-created nodes.
func (t *Tree) EnsureParentDirs(parts []string, metaFor MetadataFunc) (*Tree, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("ensure parent dirs: %w", ErrEmptyComponent)
	}
	cur := t
	if cur.metaHash == "" {
		h, err := metaFor("")
		if err != nil {
			return nil, fmt.Errorf("ensure parent dirs: root metadata: %w", err)
		}
		cur.metaHash = h
	}
	for i, part := range parts[:len(parts)-1] {
		d, err := cur.EnsureDir(part)
		if err != nil {
			return nil, fmt.Errorf("ensure parent dirs %q: %w", strings.Join(parts, "/"), err)
		}
		if d.metaHash == "" {
			dirPath := strings.Join(parts[:i+1], "/")
			h, err := metaFor(dirPath)
			if err != nil {
				return nil, fmt.Errorf("ensure parent dirs %q: metadata for %q: %w", strings.Join(parts, "/"), dirPath, err)
			}
			d.metaHash = h
		}
		cur = d
	}
	return cur, nil
}

// Walk visits every directory node depth-first (parents before
// children), calling fn with the node's slash-separated path.
func (t *Tree) Walk(fn func(path string, node *Tree) error) error {
	return t.walk("", fn)
}

func (t *Tree) walk(prefix string, fn func(string, *Tree) error) error {
	if err := fn(prefix, t); err != nil {
		return err
	}
	for _, name := range t.SubdirNames() {
		childPath := name
		if prefix != "" {
			childPath = prefix + "/" + name
		}
		if err := t.subdirs[name].walk(childPath, fn); err != nil {
			return err
		}
	}
	return nil
}

// CheckComplete verifies that every node in the tree has its metadata
// checksum set.
func (t *Tree) CheckComplete() error {
	return t.Walk(func(path string, node *Tree) error {
		if node.metaHash == "" {
			if path == "" {
				path = "/"
			}
			return fmt.Errorf("%w (at %q)", ErrIncompleteTree, path)
		}
		return nil
	})
}
