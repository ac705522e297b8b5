package repo

import (
	"errors"
	"fmt"
	"os"

	"github.com/substrateos/treefix/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an
// encoded signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitOptions carries everything a commit needs besides the root
// tree. Timestamps are always caller-supplied so that identical inputs
// produce identical commit checksums; nothing here samples the clock.
type CommitOptions struct {
	Ref              string            // ref to advance; empty uses the repo default
	Timestamp        int64             // seconds since the Unix epoch
	Metadata         map[string]string // hashed into the commit
	DetachedMetadata map[string]string // stored beside the commit
	Signer           CommitSigner      // optional
}

// CommitTree writes a commit object for the given root tree inside tx
// and queues the ref advance. The new commit's parent is the ref's
// current value (absent for the first commit), keeping history linear.
// The ref itself moves only when tx commits.
func (r *Repo) CommitTree(tx *Transaction, root object.Hash, opts CommitOptions) (object.Hash, error) {
	ref := opts.Ref
	if ref == "" {
		ref = r.Config.DefaultRef
	}
	if ref == "" {
		return "", fmt.Errorf("commit: no ref name given and no default configured")
	}

	parent, err := r.LookupRef(ref)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	commitObj := &object.CommitObj{
		TreeHash:  root,
		Parent:    parent,
		Timestamp: opts.Timestamp,
		Metadata:  opts.Metadata,
	}
	if opts.Signer != nil {
		payload := object.CommitSigningPayload(commitObj)
		signature, err := opts.Signer(payload)
		if err != nil {
			return "", fmt.Errorf("commit: sign: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	if len(opts.DetachedMetadata) > 0 {
		if err := r.Store.WriteDetachedMetadata(commitHash, opts.DetachedMetadata); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
	}

	if err := tx.SetRef(ref, commitHash); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return commitHash, nil
}

// Log walks the commit history starting from the given hash, following
// parent links, returning up to limit commits newest first. A limit
// <= 0 means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]*object.CommitObj, error) {
	var commits []*object.CommitObj
	current := start

	for current != "" {
		if limit > 0 && len(commits) >= limit {
			break
		}
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("log: %w", err)
		}
		commits = append(commits, c)
		current = c.Parent
	}
	return commits, nil
}
