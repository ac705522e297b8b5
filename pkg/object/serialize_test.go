package object

import (
	"bytes"
	"testing"
)

func TestMarshalFileDeterministicXattrOrder(t *testing.T) {
	a := &FileObj{UID: 1, GID: 2, Mode: 0o600, Xattrs: Xattrs{"b": "2", "a": "1", "c": "3"}, Content: []byte("x")}
	b := &FileObj{UID: 1, GID: 2, Mode: 0o600, Xattrs: Xattrs{"c": "3", "a": "1", "b": "2"}, Content: []byte("x")}
	if !bytes.Equal(MarshalFile(a), MarshalFile(b)) {
		t.Error("xattr insertion order leaked into canonical bytes")
	}
}

func TestUnmarshalFileRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		[]byte("no separator"),
		[]byte("uid abc\ngid 0\nmode 644\n\n"),
		[]byte("uid 0\nbogus 1\nmode 644\n\n"),
	}
	for _, data := range cases {
		if _, err := UnmarshalFile(data); err == nil {
			t.Errorf("UnmarshalFile(%q) should fail", data)
		}
	}
}

func TestSymlinkRoundTripPreservesTarget(t *testing.T) {
	l := &SymlinkObj{UID: 5, GID: 6, Target: "../relative/target", Xattrs: Xattrs{XattrSELinux: "system_u:object_r:usr_t:s0"}}
	got, err := UnmarshalSymlink(MarshalSymlink(l))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if got.Target != l.Target || got.UID != 5 || got.GID != 6 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDirMetaRejectsBody(t *testing.T) {
	if _, err := UnmarshalDirMeta([]byte("uid 0\ngid 0\nmode 755\n\nstray")); err == nil {
		t.Error("dirmeta with body should fail")
	}
}

func TestMarshalTreeSortsEntries(t *testing.T) {
	tr := &TreeObj{
		MetaHash: "aaaa",
		Entries: []TreeEntry{
			{Name: "zeta", FileHash: "ffff"},
			{Name: "alpha", IsDir: true, SubtreeHash: "dddd"},
		},
	}
	data := MarshalTree(tr)
	got, err := UnmarshalTree(data)
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(got.Entries))
	}
	if got.Entries[0].Name != "alpha" || !got.Entries[0].IsDir {
		t.Errorf("first entry should be the alpha dir, got %+v", got.Entries[0])
	}
	if got.Entries[1].FileHash != "ffff" {
		t.Errorf("zeta file hash: got %q", got.Entries[1].FileHash)
	}
	if got.MetaHash != "aaaa" {
		t.Errorf("meta hash: got %q", got.MetaHash)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	c := &CommitObj{
		TreeHash:  "abcd",
		Parent:    "ef01",
		Timestamp: 872879442,
		Metadata:  map[string]string{"version": "42.0", "buildsys.checksum": "41af"},
		Signature: "sshsig-v1:ssh-ed25519:pub:sig",
	}
	got, err := UnmarshalCommit(MarshalCommit(c))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if got.TreeHash != c.TreeHash || got.Parent != c.Parent || got.Timestamp != c.Timestamp {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Metadata["version"] != "42.0" {
		t.Errorf("metadata: got %v", got.Metadata)
	}
	if got.Signature != c.Signature {
		t.Errorf("signature: got %q", got.Signature)
	}
}

func TestCommitSingleParentEnforced(t *testing.T) {
	if _, err := UnmarshalCommit([]byte("tree a\nparent b\nparent c\ntimestamp 1\n\n")); err == nil {
		t.Error("multiple parents should be rejected")
	}
}

func TestCommitSigningPayloadExcludesSignature(t *testing.T) {
	unsigned := &CommitObj{TreeHash: "abcd", Timestamp: 1}
	signed := &CommitObj{TreeHash: "abcd", Timestamp: 1, Signature: "something"}
	if !bytes.Equal(CommitSigningPayload(unsigned), CommitSigningPayload(signed)) {
		t.Error("signing payload must not depend on the signature field")
	}
	if bytes.Equal(MarshalCommit(signed), CommitSigningPayload(signed)) {
		t.Error("signed serialization should differ from the signing payload")
	}
}
