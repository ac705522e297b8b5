package repo

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/substrateos/treefix/pkg/object"
)

func initRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func fakeHash(seed int) object.Hash {
	return object.Hash(fmt.Sprintf("%064x", seed))
}

func TestInitRejectsExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := Init(dir, nil); err == nil {
		t.Error("second Init should fail")
	}
}

func TestOpenRoundTripsConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Hash = "xxh3"
	cfg.DefaultRef = "exampleos/x86_64/stable"
	if _, err := Init(dir, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Store.Algorithm() != object.AlgoXXH3 {
		t.Errorf("algorithm: got %q, want xxh3", r.Store.Algorithm())
	}
	if r.Config.DefaultRef != "exampleos/x86_64/stable" {
		t.Errorf("default ref: got %q", r.Config.DefaultRef)
	}
	if !r.Config.SELinux {
		t.Error("selinux default should survive the round trip")
	}
}

func TestOpenMissingRepo(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open on an empty dir should fail")
	}
}

func TestUpdateAndResolveRef(t *testing.T) {
	r := initRepo(t)
	h := fakeHash(1)

	if err := r.UpdateRef("main", h); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	got, err := r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != h {
		t.Errorf("ResolveRef: got %s, want %s", got, h)
	}

	// Fully-qualified name resolves the same file.
	got, err = r.ResolveRef("refs/heads/main")
	if err != nil {
		t.Fatalf("ResolveRef(qualified): %v", err)
	}
	if got != h {
		t.Errorf("qualified resolve: got %s, want %s", got, h)
	}
}

func TestLookupRefMissing(t *testing.T) {
	r := initRepo(t)
	h, err := r.LookupRef("nothing/here")
	if err != nil {
		t.Fatalf("LookupRef: %v", err)
	}
	if h != "" {
		t.Errorf("missing ref should be empty, got %q", h)
	}
	if _, err := r.ResolveRef("nothing/here"); err == nil {
		t.Error("ResolveRef of a missing ref should fail")
	}
}

func TestRefNamesWithSlashes(t *testing.T) {
	r := initRepo(t)
	name := "exampleos/x86_64/stable"
	h := fakeHash(7)
	if err := r.UpdateRef(name, h); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	refs, err := r.ListRefs()
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	if refs[name] != h {
		t.Errorf("ListRefs[%q]: got %s, want %s", name, refs[name], h)
	}
}

func TestUpdateRefCASMismatch(t *testing.T) {
	r := initRepo(t)
	base := fakeHash(1)
	if err := r.UpdateRef("main", base); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	err := r.UpdateRefCAS("main", fakeHash(2), fakeHash(99))
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Errorf("CAS mismatch: got %v, want ErrRefCASMismatch", err)
	}

	// Ref unchanged after the failed CAS.
	got, err := r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != base {
		t.Errorf("ref moved on failed CAS: got %s, want %s", got, base)
	}
}

func TestUpdateRefCASExpectsAbsent(t *testing.T) {
	r := initRepo(t)
	if err := r.UpdateRefCAS("fresh", fakeHash(1), object.Hash("")); err != nil {
		t.Fatalf("CAS against absent ref: %v", err)
	}
	err := r.UpdateRefCAS("fresh", fakeHash(2), object.Hash(""))
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Errorf("second CAS-on-absent should mismatch, got %v", err)
	}
}

func TestUpdateRefCASConcurrentSingleWinner(t *testing.T) {
	r := initRepo(t)
	base := fakeHash(0)
	if err := r.UpdateRef("main", base); err != nil {
		t.Fatalf("UpdateRef(base): %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)

	successCh := make(chan object.Hash, workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			next := fakeHash(i + 1)
			if err := r.UpdateRefCAS("main", next, base); err != nil {
				errCh <- err
				return
			}
			successCh <- next
		}()
	}

	wg.Wait()
	close(successCh)
	close(errCh)

	var winners []object.Hash
	for h := range successCh {
		winners = append(winners, h)
	}
	if len(winners) != 1 {
		t.Fatalf("exactly one CAS should win, got %d", len(winners))
	}
	for err := range errCh {
		if !errors.Is(err, ErrRefCASMismatch) {
			t.Errorf("loser error: got %v, want ErrRefCASMismatch", err)
		}
	}

	got, err := r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != winners[0] {
		t.Errorf("ref: got %s, want winner %s", got, winners[0])
	}
	if strings.Contains(string(got), "\n") {
		t.Error("ref value contains newline")
	}
}
