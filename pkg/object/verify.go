package object

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListHashes returns every object hash physically present in the store,
// sorted. Temp files from in-flight writes are skipped.
func (s *Store) ListHashes() ([]Hash, error) {
	root := filepath.Join(s.root, "objects")
	var hashes []Hash

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
		if len(parts) != 2 || len(parts[0]) != 2 {
			return nil
		}
		hashes = append(hashes, Hash(parts[0]+parts[1]))
		return nil
	})
	if os.IsNotExist(err) {
		return hashes, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return hashes, nil
}

// Verify re-reads an object and checks that its stored bytes still hash
// to its name.
func (s *Store) Verify(h Hash) error {
	objType, data, err := s.Read(h)
	if err != nil {
		return err
	}
	computed := HashObject(s.algo, objType, data)
	if computed != h {
		return fmt.Errorf("object %s: corrupt (bytes hash to %s)", h, computed)
	}
	return nil
}
