package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewStoreWithoutPathUsesHardcodedDefaults(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	require.Equal(t, Defaults{GasBudget: DefaultGasBudget, GasPrice: DefaultGasPrice}, s.Snapshot())
}

func TestNewStoreLoadsFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miner.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
gas_budget = 555000000
gas_price = 2000
threads = 4
rpc_url = "https://fullnode.mainnet.sui.io:443"
`), 0644))

	s, err := NewStore(path)
	require.NoError(t, err)

	got := s.Snapshot()
	require.Equal(t, uint64(555_000_000), got.GasBudget)
	require.Equal(t, uint64(2000), got.GasPrice)
	require.Equal(t, 4, got.Threads)
	require.Equal(t, "https://fullnode.mainnet.sui.io:443", got.RPCURL)
}

func TestNewStoreRejectsMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestStoreHotReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miner.toml")
	require.NoError(t, os.WriteFile(path, []byte(`gas_budget = 100000000`), 0644))

	s, err := NewStore(path)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000), s.Snapshot().GasBudget)

	require.NoError(t, os.WriteFile(path, []byte(`gas_budget = 200000000`), 0644))

	require.Eventually(t, func() bool {
		return s.Snapshot().GasBudget == 200_000_000
	}, 2*time.Second, 20*time.Millisecond, "fsnotify watcher did not pick up the config file change")
}

func TestLoadModulesSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.mv")
	require.NoError(t, os.WriteFile(path, []byte{0xCA, 0xFE}, 0644))

	modules, err := LoadModules(path)
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0xCA, 0xFE}}, modules)
}

func TestLoadModulesDirectorySortsAndSkipsTests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mv"), []byte{0x02}, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mv"), []byte{0x01}, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_tests.mv"), []byte{0xFF}, 0644))

	modules, err := LoadModules(dir)
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x01}, {0x02}}, modules)
}

func TestLoadModulesRejectsEmptyDirectory(t *testing.T) {
	_, err := LoadModules(t.TempDir())
	require.Error(t, err)
}
