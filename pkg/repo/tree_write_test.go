package repo

import (
	"errors"
	"testing"

	"github.com/substrateos/treefix/pkg/mtree"
	"github.com/substrateos/treefix/pkg/object"
)

func dirMeta(t *testing.T, r *Repo, mode uint32) object.Hash {
	t.Helper()
	h, err := r.Store.WriteDirMeta(&object.DirMetaObj{Mode: mode})
	if err != nil {
		t.Fatalf("WriteDirMeta: %v", err)
	}
	return h
}

func TestWriteMutableTreeIncomplete(t *testing.T) {
	r := initRepo(t)

	mt := mtree.New()
	// Root metadata never set.
	if _, err := r.WriteMutableTree(mt); !errors.Is(err, mtree.ErrIncompleteTree) {
		t.Errorf("got %v, want ErrIncompleteTree", err)
	}

	mt.SetMetadataChecksum(dirMeta(t, r, 0o755))
	sub, err := mt.EnsureDir("usr")
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	_ = sub // metadata left unset on purpose
	if _, err := r.WriteMutableTree(mt); !errors.Is(err, mtree.ErrIncompleteTree) {
		t.Errorf("got %v, want ErrIncompleteTree for unset subdir", err)
	}
}

func TestWriteMutableTreeDeterministic(t *testing.T) {
	build := func(r *Repo) object.Hash {
		meta := dirMeta(t, r, 0o755)
		mt := mtree.New()
		mt.SetMetadataChecksum(meta)
		for _, name := range []string{"zeta", "alpha", "mid"} {
			d, err := mt.EnsureDir(name)
			if err != nil {
				t.Fatalf("EnsureDir %s: %v", name, err)
			}
			d.SetMetadataChecksum(meta)
		}
		fh, err := r.Store.WriteFile(&object.FileObj{Mode: 0o644, Content: []byte("hi")})
		if err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := mt.ReplaceFile("readme", fh); err != nil {
			t.Fatalf("ReplaceFile: %v", err)
		}
		root, err := r.WriteMutableTree(mt)
		if err != nil {
			t.Fatalf("WriteMutableTree: %v", err)
		}
		return root
	}

	r1 := initRepo(t)
	r2 := initRepo(t)
	if h1, h2 := build(r1), build(r2); h1 != h2 {
		t.Errorf("same structure hashed differently: %s vs %s", h1, h2)
	}
}

func TestWriteMutableTreeDedupsIdenticalSubdirs(t *testing.T) {
	r := initRepo(t)
	meta := dirMeta(t, r, 0o755)

	mt := mtree.New()
	mt.SetMetadataChecksum(meta)
	fh, err := r.Store.WriteFile(&object.FileObj{Mode: 0o644, Content: []byte("shared")})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for _, name := range []string{"copy1", "copy2"} {
		d, err := mt.EnsureDir(name)
		if err != nil {
			t.Fatalf("EnsureDir: %v", err)
		}
		d.SetMetadataChecksum(meta)
		if err := d.ReplaceFile("data", fh); err != nil {
			t.Fatalf("ReplaceFile: %v", err)
		}
	}
	root, err := r.WriteMutableTree(mt)
	if err != nil {
		t.Fatalf("WriteMutableTree: %v", err)
	}

	rootObj, err := r.Store.ReadTree(root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(rootObj.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(rootObj.Entries))
	}
	if rootObj.Entries[0].SubtreeHash != rootObj.Entries[1].SubtreeHash {
		t.Errorf("identical subdirs stored as distinct trees: %s vs %s",
			rootObj.Entries[0].SubtreeHash, rootObj.Entries[1].SubtreeHash)
	}
}

func TestFlattenTree(t *testing.T) {
	r := initRepo(t)
	meta := dirMeta(t, r, 0o755)

	mt := mtree.New()
	parent, err := mt.EnsureParentDirs([]string{"usr", "bin", "bash"}, func(string) (object.Hash, error) {
		return meta, nil
	})
	if err != nil {
		t.Fatalf("EnsureParentDirs: %v", err)
	}
	bashHash, err := r.Store.WriteFile(&object.FileObj{Mode: 0o755, Content: []byte("#!")})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := parent.ReplaceFile("bash", bashHash); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	topHash, err := r.Store.WriteFile(&object.FileObj{Mode: 0o644, Content: []byte("top")})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := mt.ReplaceFile("readme", topHash); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	root, err := r.WriteMutableTree(mt)
	if err != nil {
		t.Fatalf("WriteMutableTree: %v", err)
	}

	flat, err := r.FlattenTree(root)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	got := map[string]object.Hash{}
	for _, e := range flat {
		got[e.Path] = e.FileHash
	}
	if len(got) != 2 {
		t.Fatalf("flattened entries: got %d, want 2: %v", len(got), got)
	}
	if got["usr/bin/bash"] != bashHash {
		t.Errorf("usr/bin/bash: got %s, want %s", got["usr/bin/bash"], bashHash)
	}
	if got["readme"] != topHash {
		t.Errorf("readme: got %s, want %s", got["readme"], topHash)
	}
}
