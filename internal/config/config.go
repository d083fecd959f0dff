// Package config holds the miner's CLI-facing configuration and optional
// config-file defaults. Shape mirrors the teacher's Config struct;
// sourcing defaults from a viper-backed file with fsnotify hot-reload is
// borrowed from AGPFMiner-gominer's configuration layer.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/suivanity/miner/internal/errs"
)

// Defaults applied when neither a flag nor a config file sets a value.
const (
	DefaultGasBudget   uint64 = 100_000_000
	DefaultGasPrice    uint64 = 1_000
	DefaultServerPort  int    = 9876
	DefaultBatchSize   uint64 = 100_000
	DefaultLogInterval int    = 5
)

// Defaults is the set of values a config file may override; CLI flags in
// turn override these. Held separately from per-job fields (prefix,
// sender, gas object, ...) which are never sourced from a file.
type Defaults struct {
	GasBudget uint64
	GasPrice  uint64
	Threads   int
	RPCURL    string
}

// Store loads Defaults from an optional config file and keeps them fresh
// via fsnotify. Reads are guarded by a mutex since the watcher goroutine
// writes concurrently with driver reads; a job already running keeps the
// Defaults snapshot it was built with (MiningJob is immutable once
// created — only *new* jobs observe a reload).
type Store struct {
	mu  sync.RWMutex
	cur Defaults
	v   *viper.Viper
}

// NewStore returns a Store seeded with hardcoded defaults and, if path is
// non-empty, loads and watches that config file for changes.
func NewStore(path string) (*Store, error) {
	s := &Store{
		cur: Defaults{
			GasBudget: DefaultGasBudget,
			GasPrice:  DefaultGasPrice,
		},
	}
	if path == "" {
		return s, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "%v: reading config file %s", errs.ErrInvalidInput, path)
	}
	s.v = v
	s.applyFromViper()

	v.OnConfigChange(func(fsnotify.Event) {
		s.applyFromViper()
	})
	v.WatchConfig()

	return s, nil
}

func (s *Store) applyFromViper() {
	d := Defaults{
		GasBudget: DefaultGasBudget,
		GasPrice:  DefaultGasPrice,
	}
	if s.v.IsSet("gas_budget") {
		d.GasBudget = uint64(s.v.GetInt64("gas_budget"))
	}
	if s.v.IsSet("gas_price") {
		d.GasPrice = uint64(s.v.GetInt64("gas_price"))
	}
	if s.v.IsSet("threads") {
		d.Threads = s.v.GetInt("threads")
	}
	if s.v.IsSet("rpc_url") {
		d.RPCURL = s.v.GetString("rpc_url")
	}

	s.mu.Lock()
	s.cur = d
	s.mu.Unlock()
}

// Snapshot returns the current defaults. Safe for concurrent use.
func (s *Store) Snapshot() Defaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// LoadModules loads Move bytecode modules for PackagePublish mode. A
// directory yields every *.mv file sorted lexicographically by filename
// (spec.md §4.2.1's "stable deterministic order"), skipping *_test(s).mv;
// a single file yields one module.
func LoadModules(path string) ([][]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "%v: module path %s", errs.ErrInvalidInput, path)
	}

	if !info.IsDir() {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "%v: reading module %s", errs.ErrInvalidInput, path)
		}
		return [][]byte{b}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "%v: reading module directory %s", errs.ErrInvalidInput, path)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mv" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".mv")
		if strings.HasSuffix(stem, "_tests") || strings.HasSuffix(stem, "_test") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, errors.Wrapf(errs.ErrInvalidInput, "no .mv files found in %s", path)
	}

	modules := make([][]byte, 0, len(names))
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return nil, errors.Wrapf(err, "%v: reading module %s", errs.ErrInvalidInput, name)
		}
		modules = append(modules, b)
	}
	return modules, nil
}
