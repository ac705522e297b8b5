package object

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Objects are immutable and
// append-only; writing content that already exists is a no-op.
type Store struct {
	root string
	algo Algorithm
}

// NewStore creates a Store rooted at the given directory using the
// default hash algorithm. The objects/ subdirectory is created lazily on
// first write.
func NewStore(root string) *Store {
	return NewStoreWithAlgorithm(root, DefaultAlgorithm)
}

// NewStoreWithAlgorithm creates a Store using the given hash algorithm.
// All readers and writers of one store directory must agree on it.
func NewStoreWithAlgorithm(root string, algo Algorithm) *Store {
	if algo == "" {
		algo = DefaultAlgorithm
	}
	return &Store{root: root, algo: algo}
}

// Algorithm reports the store's content-hash algorithm.
func (s *Store) Algorithm() Algorithm {
	return s.algo
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if len(h) < 3 {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The on-disk
// format is "type len\0content". Writes are atomic: data goes to a temp
// file which is then renamed into place. Duplicate content is detected
// by checksum before any I/O happens.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(s.algo, objType, data)

	// Dedup fast path: identical canonical bytes are already stored.
	if s.Has(h) {
		return h, nil
	}

	envelope := fmt.Sprintf("%s %d\x00", objType, len(data))
	raw := append([]byte(envelope), data...)
	if err := s.writeRaw(h, raw); err != nil {
		return "", err
	}
	return h, nil
}

func (s *Store) writeRaw(h Hash, raw []byte) error {
	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write rename: %w", err)
	}
	return nil
}

// WriteRaw stores pre-enveloped object bytes, verifying that their
// checksum matches the claimed hash. Used by archive import.
func (s *Store) WriteRaw(h Hash, raw []byte) error {
	objType, data, err := parseEnvelope(h, raw)
	if err != nil {
		return err
	}
	want := HashObject(s.algo, objType, data)
	if want != h {
		return fmt.Errorf("object import %s: checksum mismatch (computed %s)", h, want)
	}
	if s.Has(h) {
		return nil
	}
	return s.writeRaw(h, raw)
}

// ReadRaw retrieves the enveloped bytes of an object, as stored on disk.
// Used by archive export.
func (s *Store) ReadRaw(h Hash) ([]byte, error) {
	raw, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return raw, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	raw, err := s.ReadRaw(h)
	if err != nil {
		return "", nil, err
	}
	return parseEnvelope(h, raw)
}

// parseEnvelope splits "type len\0content" and validates the length.
func parseEnvelope(h Hash, raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object %s: invalid format (no NUL)", h)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object %s: invalid header %q", h, header)
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object %s: invalid length %q: %w", h, parts[1], err)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}
	return objType, content, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteFile serializes and stores a FileObj.
func (s *Store) WriteFile(f *FileObj) (Hash, error) {
	return s.Write(TypeFile, MarshalFile(f))
}

// ReadFile reads and deserializes a FileObj.
func (s *Store) ReadFile(h Hash) (*FileObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeFile {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeFile)
	}
	return UnmarshalFile(data)
}

// WriteSymlink serializes and stores a SymlinkObj.
func (s *Store) WriteSymlink(l *SymlinkObj) (Hash, error) {
	return s.Write(TypeSymlink, MarshalSymlink(l))
}

// ReadSymlink reads and deserializes a SymlinkObj.
func (s *Store) ReadSymlink(h Hash) (*SymlinkObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeSymlink {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeSymlink)
	}
	return UnmarshalSymlink(data)
}

// WriteDirMeta serializes and stores a DirMetaObj.
func (s *Store) WriteDirMeta(d *DirMetaObj) (Hash, error) {
	return s.Write(TypeDirMeta, MarshalDirMeta(d))
}

// ReadDirMeta reads and deserializes a DirMetaObj.
func (s *Store) ReadDirMeta(h Hash) (*DirMetaObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeDirMeta {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeDirMeta)
	}
	return UnmarshalDirMeta(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTree {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeTree)
	}
	return UnmarshalTree(data)
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeCommit)
	}
	return UnmarshalCommit(data)
}
