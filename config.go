package diskcache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/pbardea/diskcache/pkg/fs"
)

// Config describes a cache directory's shape and limits. ValueCount is fixed
// for the lifetime of a directory: opening an existing directory with a
// different ValueCount makes the stored header mismatch, which [Open] treats
// as an [ErrCorruptJournal] condition, discarding the directory's contents
// and starting empty.
type Config struct {
	// Dir is the directory the cache owns. [Open] creates it if it does not
	// exist.
	Dir string

	// ValueCount is the number of independent value streams each entry
	// holds.
	ValueCount int

	// MaxSize is the maximum total size in bytes of all values on disk.
	// Zero means unbounded.
	MaxSize int64

	// CompactionFactor controls how many redundant journal operations
	// accumulate (as a multiple of the live entry count) before the next
	// mutation triggers a journal rebuild. Defaults to 2 if zero.
	CompactionFactor int

	// FS overrides the filesystem the cache operates on. Defaults to
	// [fs.NewReal] when nil. Journal compaction writes its staged journal
	// directly to the OS filesystem rather than through FS.
	FS fs.FS
}

// DefaultConfig returns a Config with CompactionFactor set and FS left to
// its real-filesystem default. Dir and ValueCount still must be filled in.
func DefaultConfig() Config {
	return Config{CompactionFactor: defaultCompactionK}
}

func (c Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("diskcache: config: dir must not be empty")
	}

	if c.ValueCount < 1 {
		return fmt.Errorf("diskcache: config: value count must be >= 1, got %d", c.ValueCount)
	}

	if c.MaxSize < 0 {
		return fmt.Errorf("diskcache: config: max size must be >= 0, got %d", c.MaxSize)
	}

	if c.CompactionFactor < 0 {
		return fmt.Errorf("diskcache: config: compaction factor must be >= 0, got %d", c.CompactionFactor)
	}

	return nil
}

func (c Config) withDefaults() Config {
	if c.CompactionFactor == 0 {
		c.CompactionFactor = defaultCompactionK
	}

	if c.FS == nil {
		c.FS = fs.NewReal()
	}

	return c
}

// fileConfig is the on-disk shape of a JWCC config file, read with
// [LoadConfig]. Every field is optional; omitted fields keep the value from
// [LoadConfigInput].Base, and any explicit override is applied on top either
// way.
type fileConfig struct {
	Dir              *string `json:"dir"`
	ValueCount       *int    `json:"valueCount"`
	MaxSize          *int64  `json:"maxSize"`
	CompactionFactor *int    `json:"compactionFactor"`
}

// LoadConfigInput controls [LoadConfig]'s layered precedence: Base is the
// starting point, ConfigPath (if non-empty) overlays a JWCC config file on
// top of Base, and Override overlays on top of that. The file changes only
// the fields it explicitly names; Override changes only the fields it sets
// to a non-zero value (or a non-nil FS), replacing whatever the earlier
// layers set.
type LoadConfigInput struct {
	Base       Config
	ConfigPath string
	Override   Config
}

// LoadConfig resolves a Config from defaults, an optional JWCC
// (JSON-with-Comments-and-Commas) config file, and explicit overrides, in
// that order of increasing precedence, and validates the result.
func LoadConfig(in LoadConfigInput) (Config, error) {
	cfg := in.Base

	if in.ConfigPath != "" {
		raw, err := os.ReadFile(in.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("diskcache: read config %s: %w", in.ConfigPath, err)
		}

		std, err := hujson.Standardize(raw)
		if err != nil {
			return Config{}, fmt.Errorf("diskcache: parse config %s: %w", in.ConfigPath, err)
		}

		var fc fileConfig
		if err := json.Unmarshal(std, &fc); err != nil {
			return Config{}, fmt.Errorf("diskcache: decode config %s: %w", in.ConfigPath, err)
		}

		applyFileConfig(&cfg, fc)
	}

	applyOverride(&cfg, in.Override)

	cfg = cfg.withDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Dir != nil {
		cfg.Dir = *fc.Dir
	}

	if fc.ValueCount != nil {
		cfg.ValueCount = *fc.ValueCount
	}

	if fc.MaxSize != nil {
		cfg.MaxSize = *fc.MaxSize
	}

	if fc.CompactionFactor != nil {
		cfg.CompactionFactor = *fc.CompactionFactor
	}
}

func applyOverride(cfg *Config, override Config) {
	if override.Dir != "" {
		cfg.Dir = override.Dir
	}

	if override.ValueCount != 0 {
		cfg.ValueCount = override.ValueCount
	}

	if override.MaxSize != 0 {
		cfg.MaxSize = override.MaxSize
	}

	if override.CompactionFactor != 0 {
		cfg.CompactionFactor = override.CompactionFactor
	}

	if override.FS != nil {
		cfg.FS = override.FS
	}
}
