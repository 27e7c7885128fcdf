// Package config provides the plain JSON-tagged configuration tree used
// to stand up a Database instance, grounded on the teacher's
// pkg/config/config.go — no third-party configuration framework, since
// the teacher itself never reaches for one.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kasuganosora/pagedb/storage/memprovider"
)

// Config governs host-facing concerns only: the kernel's storage and
// transaction semantics are never configurable (spec §1 hard core).
type Config struct {
	// InitialPages is a page count for a host to pre-grow its provider to
	// before the MemoryManager reserves its own schema/ACL pages.
	// inmemprovider.New does not read it: it always starts with zero pages.
	InitialPages uint64 `json:"initial_pages"`
	// DefaultSelectCapacityHint mirrors spec §4.K's "default capacity
	// hint 128" — a slice pre-allocation size, never an implicit limit.
	DefaultSelectCapacityHint int `json:"default_select_capacity_hint"`
	// BadgerDir, if set, selects the badgerprovider MemoryProvider
	// backend (spec §3 domain stack) instead of the pure in-memory one.
	BadgerDir string `json:"badger_dir,omitempty"`
}

// Default returns the configuration new examples and tests build on.
func Default() Config {
	return Config{
		InitialPages:              0,
		DefaultSelectCapacityHint: 128,
	}
}

// LoadOrDefault reads JSON configuration from path, falling back to
// Default() if path does not exist — mirroring the teacher's
// LoadConfigOrDefault.
func LoadOrDefault(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// PageSize re-exports memprovider.PageSize so callers configuring a
// provider don't need to import storage/memprovider directly just for
// the constant.
const PageSize = memprovider.PageSize
