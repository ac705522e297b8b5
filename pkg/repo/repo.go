// Package repo implements a bare, content-addressed snapshot repository:
// an object store plus a namespace of refs, with commits created inside
// atomic transactions.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/substrateos/treefix/pkg/object"
)

// Repo represents an opened repository. A repository is a bare store
// directory (no working tree): objects/, refs/heads/, meta/, config.toml.
type Repo struct {
	Dir    string        // repository root directory
	Store  *object.Store // content-addressed object store
	Config *Config
}

// Init creates a new repository at path with the given config (nil for
// defaults). Returns an error if a repository already exists there.
func Init(path string, cfg *Config) (*Repo, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	algo, err := object.ParseAlgorithm(cfg.Hash)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	cfg.Hash = string(algo)

	if _, err := os.Stat(configPath(path)); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", path)
	}

	dirs := []string{
		filepath.Join(path, "objects"),
		filepath.Join(path, "refs", "heads"),
		filepath.Join(path, "meta"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	if err := writeConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	return &Repo{
		Dir:    path,
		Store:  object.NewStoreWithAlgorithm(path, algo),
		Config: cfg,
	}, nil
}

// Open opens an existing repository at path. The config file determines
// the store's hash algorithm.
func Open(path string) (*Repo, error) {
	cfg, err := readConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open: not a repository: %s", path)
		}
		return nil, fmt.Errorf("open: %w", err)
	}
	algo, err := object.ParseAlgorithm(cfg.Hash)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return &Repo{
		Dir:    path,
		Store:  object.NewStoreWithAlgorithm(path, algo),
		Config: cfg,
	}, nil
}
