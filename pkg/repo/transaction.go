package repo

import (
	"errors"
	"fmt"

	"github.com/substrateos/treefix/pkg/object"
)

var ErrTxClosed = errors.New("transaction already committed or aborted")

type txState int

const (
	txOpen txState = iota
	txCommitted
	txAborted
)

// refUpdate is a queued ref advance. The expected-old hash is captured
// when the update is queued so that a concurrent committer to the same
// ref is detected at commit time instead of silently overwritten.
type refUpdate struct {
	newHash object.Hash
	oldHash object.Hash
}

// Transaction scopes a batch of object writes and ref updates. Object
// writes go straight to the store; orphaned objects from an aborted
// batch are harmless, since content addressing makes any later write of
// the same content reuse them. Ref updates are queued and applied only
// at Commit, so readers never observe a ref pointing at a partially
// written snapshot.
//
// State machine: open → committed (Commit) or open → aborted (Abort).
// Abort after Commit is a no-op, which makes `defer tx.Abort()`
// correct on every exit path.
type Transaction struct {
	repo  *Repo
	state txState
	refs  map[string]refUpdate
	order []string
}

// Begin opens a transaction against the repository.
func (r *Repo) Begin() *Transaction {
	return &Transaction{
		repo: r,
		refs: make(map[string]refUpdate),
	}
}

// SetRef queues an advance of the named ref to hash, capturing the
// ref's current value for the commit-time compare-and-swap. Queueing
// the same ref twice keeps the original expected-old value.
func (tx *Transaction) SetRef(name string, h object.Hash) error {
	if tx.state != txOpen {
		return fmt.Errorf("set ref %q: %w", name, ErrTxClosed)
	}
	if prev, ok := tx.refs[name]; ok {
		tx.refs[name] = refUpdate{newHash: h, oldHash: prev.oldHash}
		return nil
	}
	old, err := tx.repo.LookupRef(name)
	if err != nil {
		return fmt.Errorf("set ref %q: %w", name, err)
	}
	tx.refs[name] = refUpdate{newHash: h, oldHash: old}
	tx.order = append(tx.order, name)
	return nil
}

// Commit applies all queued ref updates atomically per ref and closes
// the transaction. If any update fails, the transaction is aborted: no
// later updates are applied. Earlier ones in the same batch stand;
// atomicity is per ref, not per batch.
func (tx *Transaction) Commit() error {
	if tx.state != txOpen {
		return ErrTxClosed
	}
	for _, name := range tx.order {
		u := tx.refs[name]
		if err := tx.repo.UpdateRefCAS(name, u.newHash, u.oldHash); err != nil {
			tx.state = txAborted
			return fmt.Errorf("transaction commit: %w", err)
		}
	}
	tx.state = txCommitted
	return nil
}

// Abort discards queued ref updates. Safe to call multiple times and
// after Commit.
func (tx *Transaction) Abort() {
	if tx.state == txOpen {
		tx.state = txAborted
		tx.refs = nil
		tx.order = nil
	}
}

// Committed reports whether Commit completed successfully.
func (tx *Transaction) Committed() bool {
	return tx.state == txCommitted
}
