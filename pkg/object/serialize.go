package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// The canonical form for all object types is a text header of "key value"
// lines, a blank separator line, then the body. Map-valued fields (xattrs,
// commit metadata) are emitted in sorted key order so that identical
// logical content always yields identical bytes, and therefore an
// identical checksum.

func writeXattrs(buf *bytes.Buffer, xa Xattrs) {
	names := make([]string, 0, len(xa))
	for name := range xa {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(buf, "xattr %s %s\n", name, xa[name])
	}
}

func parseXattrLine(val string) (string, string, error) {
	name, value, ok := strings.Cut(val, " ")
	if !ok {
		return "", "", fmt.Errorf("malformed xattr %q", val)
	}
	return name, value, nil
}

func splitHeaderBody(data []byte) (string, []byte, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return "", nil, fmt.Errorf("missing header/body separator")
	}
	return string(data[:idx]), data[idx+2:], nil
}

// ---------------------------------------------------------------------------
// FileObj
// ---------------------------------------------------------------------------

// MarshalFile serializes a FileObj:
//
//	uid N
//	gid N
//	mode O (octal)
//	xattr NAME VALUE   (zero or more, sorted)
//
//	<content bytes>
func MarshalFile(f *FileObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "uid %d\n", f.UID)
	fmt.Fprintf(&buf, "gid %d\n", f.GID)
	fmt.Fprintf(&buf, "mode %o\n", f.Mode)
	writeXattrs(&buf, f.Xattrs)
	buf.WriteByte('\n')
	buf.Write(f.Content)
	return buf.Bytes()
}

// UnmarshalFile parses a FileObj from its serialized form.
func UnmarshalFile(data []byte) (*FileObj, error) {
	header, body, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal file: %w", err)
	}
	f := &FileObj{Content: make([]byte, len(body))}
	copy(f.Content, body)

	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal file: malformed header line %q", line)
		}
		switch key {
		case "uid":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal file: bad uid %q: %w", val, err)
			}
			f.UID = uint32(n)
		case "gid":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal file: bad gid %q: %w", val, err)
			}
			f.GID = uint32(n)
		case "mode":
			n, err := strconv.ParseUint(val, 8, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal file: bad mode %q: %w", val, err)
			}
			f.Mode = uint32(n)
		case "xattr":
			name, value, err := parseXattrLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal file: %w", err)
			}
			if f.Xattrs == nil {
				f.Xattrs = make(Xattrs)
			}
			f.Xattrs[name] = value
		default:
			return nil, fmt.Errorf("unmarshal file: unknown header key %q", key)
		}
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// SymlinkObj
// ---------------------------------------------------------------------------

// MarshalSymlink serializes a SymlinkObj; the body is the link target.
func MarshalSymlink(s *SymlinkObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "uid %d\n", s.UID)
	fmt.Fprintf(&buf, "gid %d\n", s.GID)
	writeXattrs(&buf, s.Xattrs)
	buf.WriteByte('\n')
	buf.WriteString(s.Target)
	return buf.Bytes()
}

// UnmarshalSymlink parses a SymlinkObj from its serialized form.
func UnmarshalSymlink(data []byte) (*SymlinkObj, error) {
	header, body, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal symlink: %w", err)
	}
	s := &SymlinkObj{Target: string(body)}

	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal symlink: malformed header line %q", line)
		}
		switch key {
		case "uid":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal symlink: bad uid %q: %w", val, err)
			}
			s.UID = uint32(n)
		case "gid":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal symlink: bad gid %q: %w", val, err)
			}
			s.GID = uint32(n)
		case "xattr":
			name, value, err := parseXattrLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal symlink: %w", err)
			}
			if s.Xattrs == nil {
				s.Xattrs = make(Xattrs)
			}
			s.Xattrs[name] = value
		default:
			return nil, fmt.Errorf("unmarshal symlink: unknown header key %q", key)
		}
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// DirMetaObj
// ---------------------------------------------------------------------------

// MarshalDirMeta serializes a DirMetaObj. The body is always empty;
// directory contents are a separate TreeObj.
func MarshalDirMeta(d *DirMetaObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "uid %d\n", d.UID)
	fmt.Fprintf(&buf, "gid %d\n", d.GID)
	fmt.Fprintf(&buf, "mode %o\n", d.Mode)
	writeXattrs(&buf, d.Xattrs)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// UnmarshalDirMeta parses a DirMetaObj from its serialized form.
func UnmarshalDirMeta(data []byte) (*DirMetaObj, error) {
	header, body, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal dirmeta: %w", err)
	}
	if len(body) != 0 {
		return nil, fmt.Errorf("unmarshal dirmeta: unexpected body (%d bytes)", len(body))
	}
	d := &DirMetaObj{}

	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal dirmeta: malformed header line %q", line)
		}
		switch key {
		case "uid":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal dirmeta: bad uid %q: %w", val, err)
			}
			d.UID = uint32(n)
		case "gid":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal dirmeta: bad gid %q: %w", val, err)
			}
			d.GID = uint32(n)
		case "mode":
			n, err := strconv.ParseUint(val, 8, 32)
			if err != nil {
				return nil, fmt.Errorf("unmarshal dirmeta: bad mode %q: %w", val, err)
			}
			d.Mode = uint32(n)
		case "xattr":
			name, value, err := parseXattrLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal dirmeta: %w", err)
			}
			if d.Xattrs == nil {
				d.Xattrs = make(Xattrs)
			}
			d.Xattrs[name] = value
		default:
			return nil, fmt.Errorf("unmarshal dirmeta: unknown header key %q", key)
		}
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Entries are sorted by Name for
// deterministic output. Each body line is one entry:
//
//	NAME d SUBTREEHASH   (directory)
//	NAME f FILEHASH      (regular file or symlink)
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "meta %s\n", string(tr.MetaHash))
	buf.WriteByte('\n')
	for _, e := range sorted {
		if e.IsDir {
			fmt.Fprintf(&buf, "%s d %s\n", e.Name, string(e.SubtreeHash))
		} else {
			fmt.Fprintf(&buf, "%s f %s\n", e.Name, string(e.FileHash))
		}
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	header, body, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	tr := &TreeObj{}

	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal tree: malformed header line %q", line)
		}
		switch key {
		case "meta":
			tr.MetaHash = Hash(val)
		default:
			return nil, fmt.Errorf("unmarshal tree: unknown header key %q", key)
		}
	}

	text := strings.TrimRight(string(body), "\n")
	if text == "" {
		return tr, nil
	}
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		entry := TreeEntry{Name: parts[0]}
		switch parts[1] {
		case "d":
			entry.IsDir = true
			entry.SubtreeHash = Hash(parts[2])
		case "f":
			entry.FileHash = Hash(parts[2])
		default:
			return nil, fmt.Errorf("unmarshal tree: unknown entry kind %q", parts[1])
		}
		tr.Entries = append(tr.Entries, entry)
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H           (optional)
//	timestamp T
//	meta KEY VALUE     (zero or more, sorted)
//	signature S        (optional)
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	if c.Parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", string(c.Parent))
	}
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "meta %s %s\n", k, c.Metadata[k])
	}
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	header, body, err := splitHeaderBody(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal commit: %w", err)
	}
	if len(body) != 0 {
		return nil, fmt.Errorf("unmarshal commit: unexpected body (%d bytes)", len(body))
	}
	c := &CommitObj{}

	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			if c.Parent != "" {
				return nil, fmt.Errorf("unmarshal commit: multiple parents")
			}
			c.Parent = Hash(val)
		case "timestamp":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: bad timestamp %q: %w", val, err)
			}
			c.Timestamp = ts
		case "meta":
			mk, mv, ok := strings.Cut(val, " ")
			if !ok {
				return nil, fmt.Errorf("unmarshal commit: malformed metadata %q", val)
			}
			if c.Metadata == nil {
				c.Metadata = make(map[string]string)
			}
			c.Metadata[mk] = mv
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	return c, nil
}

// CommitSigningPayload returns the canonical bytes a signer signs: the
// commit serialized with its Signature field cleared.
func CommitSigningPayload(c *CommitObj) []byte {
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}
