package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings.
type Config struct {
	// Hash selects the content-hash algorithm ("sha256" or "xxh3").
	// All writers of one repository must agree on it.
	Hash string `toml:"hash"`

	// DefaultRef is the ref commits target when the caller names none.
	DefaultRef string `toml:"default_ref"`

	// SELinux controls whether snapshot writers attach security labels
	// as xattrs. Commands can override it per invocation.
	SELinux bool `toml:"selinux"`

	// FormatVersion is the archive layout version exports default to.
	FormatVersion uint32 `toml:"format_version"`
}

// DefaultConfig returns the settings a fresh repository gets.
func DefaultConfig() *Config {
	return &Config{
		Hash:       "sha256",
		DefaultRef: "main",
		SELinux:    true,
	}
}

func configPath(repoDir string) string {
	return filepath.Join(repoDir, "config.toml")
}

func readConfig(repoDir string) (*Config, error) {
	data, err := os.ReadFile(configPath(repoDir))
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// writeConfig atomically writes config.toml.
func writeConfig(repoDir string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(repoDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, configPath(repoDir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// WriteConfig persists updated settings for an open repository.
func (r *Repo) WriteConfig() error {
	return writeConfig(r.Dir, r.Config)
}
