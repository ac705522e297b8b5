package object

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Detached metadata is key/value data attached to a commit after the
// fact (signatures, provenance) without entering the commit checksum.
// It lives under meta/<commit-hash> and, unlike objects, may be
// replaced.

func (s *Store) detachedPath(h Hash) string {
	return filepath.Join(s.root, "meta", string(h))
}

// WriteDetachedMetadata atomically writes the detached metadata for a
// commit, replacing any previous value.
func (s *Store) WriteDetachedMetadata(commit Hash, md map[string]string) error {
	dir := filepath.Join(s.root, "meta")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("detached metadata mkdir: %w", err)
	}

	var buf bytes.Buffer
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s %s\n", k, md[k])
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("detached metadata tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("detached metadata write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("detached metadata close: %w", err)
	}
	if err := os.Rename(tmpName, s.detachedPath(commit)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("detached metadata rename: %w", err)
	}
	return nil
}

// ReadDetachedMetadata reads the detached metadata for a commit. A
// commit without detached metadata returns an empty map.
func (s *Store) ReadDetachedMetadata(commit Hash) (map[string]string, error) {
	data, err := os.ReadFile(s.detachedPath(commit))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("detached metadata read %s: %w", commit, err)
	}

	md := make(map[string]string)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("detached metadata read %s: malformed line %q", commit, line)
		}
		md[k] = v
	}
	return md, nil
}
