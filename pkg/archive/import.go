package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/substrateos/treefix/pkg/object"
	"github.com/substrateos/treefix/pkg/repo"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Import reads an exported stream into the repository's store and
// advances the archived ref to the archived commit under a transaction.
// Every object's checksum is verified on the way in; a corrupt or
// truncated stream leaves the ref untouched (objects already written
// remain as harmless content-addressed orphans).
func Import(r *repo.Repo, rd io.Reader) (object.Hash, error) {
	br := bufio.NewReader(rd)
	magic, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("import: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("import: zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	}

	var (
		refName    string
		commitHash object.Hash
		sawFormat  bool
	)

	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("import: read tar: %w", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return "", fmt.Errorf("import: read %s: %w", hdr.Name, err)
		}

		switch {
		case hdr.Name == "format":
			version, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
			if err != nil {
				return "", fmt.Errorf("import: bad format version %q: %w", strings.TrimSpace(string(data)), err)
			}
			if version > MaxFormatVersion {
				return "", fmt.Errorf("import: unsupported format version %d", version)
			}
			sawFormat = true
		case hdr.Name == "algorithm":
			algo := strings.TrimSpace(string(data))
			if algo != string(r.Store.Algorithm()) {
				return "", fmt.Errorf("import: archive hashed with %q, store uses %q", algo, r.Store.Algorithm())
			}
		case hdr.Name == "ref":
			refName = strings.TrimSpace(string(data))
		case hdr.Name == "commit":
			commitHash = object.Hash(strings.TrimSpace(string(data)))
		case strings.HasPrefix(hdr.Name, "meta/"):
			commit := object.Hash(strings.TrimPrefix(hdr.Name, "meta/"))
			md, err := parseDetached(data)
			if err != nil {
				return "", fmt.Errorf("import: %s: %w", hdr.Name, err)
			}
			if err := r.Store.WriteDetachedMetadata(commit, md); err != nil {
				return "", fmt.Errorf("import: %w", err)
			}
		case strings.HasPrefix(hdr.Name, "objects/"):
			rest := strings.TrimPrefix(hdr.Name, "objects/")
			h := object.Hash(strings.ReplaceAll(rest, "/", ""))
			if err := r.Store.WriteRaw(h, data); err != nil {
				return "", fmt.Errorf("import: %w", err)
			}
		default:
			return "", fmt.Errorf("import: unexpected entry %q", hdr.Name)
		}
	}

	if !sawFormat {
		return "", fmt.Errorf("import: not an archive stream (no format entry)")
	}
	if refName == "" || commitHash == "" {
		return "", fmt.Errorf("import: archive missing ref or commit entry")
	}
	if !r.Store.Has(commitHash) {
		return "", fmt.Errorf("import: archive commit %s missing from stream", commitHash)
	}

	tx := r.Begin()
	defer tx.Abort()
	if err := tx.SetRef(refName, commitHash); err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	return commitHash, nil
}

func parseDetached(data []byte) (map[string]string, error) {
	md := make(map[string]string)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("malformed detached metadata line %q", line)
		}
		md[k] = v
	}
	return md, nil
}
