package repo

import (
	"fmt"
	"testing"

	"github.com/substrateos/treefix/pkg/mtree"
	"github.com/substrateos/treefix/pkg/object"
)

// buildTestTree materializes a tiny tree in r's store and returns the
// root hash.
func buildTestTree(t *testing.T, r *Repo, content string) object.Hash {
	t.Helper()
	mt := mtree.New()
	meta := func(path string) (object.Hash, error) {
		return r.Store.WriteDirMeta(&object.DirMetaObj{Mode: 0o755})
	}
	parent, err := mt.EnsureParentDirs([]string{"usr", "bin", "tool"}, meta)
	if err != nil {
		t.Fatalf("EnsureParentDirs: %v", err)
	}
	fh, err := r.Store.WriteFile(&object.FileObj{Mode: 0o644, Content: []byte(content)})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := parent.ReplaceFile("tool", fh); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	root, err := r.WriteMutableTree(mt)
	if err != nil {
		t.Fatalf("WriteMutableTree: %v", err)
	}
	return root
}

func TestCommitTreeFirstAndSecond(t *testing.T) {
	r := initRepo(t)
	root1 := buildTestTree(t, r, "v0")

	tx := r.Begin()
	c1, err := r.CommitTree(tx, root1, CommitOptions{Timestamp: 100})
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit: %v", err)
	}

	got, err := r.ResolveRef(r.Config.DefaultRef)
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != c1 {
		t.Errorf("ref: got %s, want %s", got, c1)
	}

	obj1, err := r.Store.ReadCommit(c1)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if obj1.Parent != "" {
		t.Errorf("first commit parent: got %q, want empty", obj1.Parent)
	}
	if obj1.Timestamp != 100 {
		t.Errorf("timestamp: got %d, want 100", obj1.Timestamp)
	}

	// Second commit links to the first.
	root2 := buildTestTree(t, r, "v1")
	tx2 := r.Begin()
	c2, err := r.CommitTree(tx2, root2, CommitOptions{Timestamp: 200})
	if err != nil {
		t.Fatalf("second CommitTree: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("tx2.Commit: %v", err)
	}

	obj2, err := r.Store.ReadCommit(c2)
	if err != nil {
		t.Fatalf("ReadCommit c2: %v", err)
	}
	if obj2.Parent != c1 {
		t.Errorf("second commit parent: got %s, want %s", obj2.Parent, c1)
	}

	log, err := r.Log(c2, 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("log length: got %d, want 2", len(log))
	}
	if log[0].Timestamp != 200 || log[1].Timestamp != 100 {
		t.Errorf("log order wrong: %d, %d", log[0].Timestamp, log[1].Timestamp)
	}
}

func TestCommitTreeDeterministic(t *testing.T) {
	mk := func() object.Hash {
		r := initRepo(t)
		root := buildTestTree(t, r, "same")
		tx := r.Begin()
		c, err := r.CommitTree(tx, root, CommitOptions{
			Timestamp: 872879442,
			Metadata:  map[string]string{"version": "42.0"},
		})
		if err != nil {
			t.Fatalf("CommitTree: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("tx.Commit: %v", err)
		}
		return c
	}
	if c1, c2 := mk(), mk(); c1 != c2 {
		t.Errorf("identical input produced different commits: %s vs %s", c1, c2)
	}
}

func TestCommitTreeDetachedMetadata(t *testing.T) {
	r := initRepo(t)
	root := buildTestTree(t, r, "x")

	tx := r.Begin()
	c, err := r.CommitTree(tx, root, CommitOptions{
		Timestamp:        1,
		DetachedMetadata: map[string]string{"my-detached-key": "my-detached-value"},
	})
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit: %v", err)
	}

	md, err := r.Store.ReadDetachedMetadata(c)
	if err != nil {
		t.Fatalf("ReadDetachedMetadata: %v", err)
	}
	if md["my-detached-key"] != "my-detached-value" {
		t.Errorf("detached metadata: got %v", md)
	}

	// Detached metadata must not influence the commit checksum.
	r2 := initRepo(t)
	root2 := buildTestTree(t, r2, "x")
	tx2 := r2.Begin()
	c2, err := r2.CommitTree(tx2, root2, CommitOptions{Timestamp: 1})
	if err != nil {
		t.Fatalf("CommitTree without detached: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("tx2.Commit: %v", err)
	}
	if c != c2 {
		t.Errorf("detached metadata leaked into commit hash: %s vs %s", c, c2)
	}
}

func TestCommitTreeSigner(t *testing.T) {
	r := initRepo(t)
	root := buildTestTree(t, r, "signed")

	var signedPayload []byte
	signer := func(payload []byte) (string, error) {
		signedPayload = payload
		return "fake-signature", nil
	}

	tx := r.Begin()
	c, err := r.CommitTree(tx, root, CommitOptions{Timestamp: 5, Signer: signer})
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit: %v", err)
	}

	obj, err := r.Store.ReadCommit(c)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if obj.Signature != "fake-signature" {
		t.Errorf("signature: got %q", obj.Signature)
	}
	if len(signedPayload) == 0 {
		t.Error("signer never saw a payload")
	}
}

func TestCommitTreeSignerFailureAborts(t *testing.T) {
	r := initRepo(t)
	root := buildTestTree(t, r, "unsignable")

	tx := r.Begin()
	defer tx.Abort()
	_, err := r.CommitTree(tx, root, CommitOptions{
		Timestamp: 5,
		Signer: func([]byte) (string, error) {
			return "", fmt.Errorf("no key")
		},
	})
	if err == nil {
		t.Fatal("CommitTree with failing signer should error")
	}
	tx.Abort()
	if h, _ := r.LookupRef(r.Config.DefaultRef); h != "" {
		t.Errorf("ref moved despite signer failure: %s", h)
	}
}
