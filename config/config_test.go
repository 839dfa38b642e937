package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validConfig = `
RPCAddress = ":9000"
DataDir = "/tmp/stakevault-test"
LogLevel = "debug"
AdminAddress = "0x00000000000000000000000000000000000000AD"
StakedToken = "0x0000000000000000000000000000000000000001"
DecimalDifference = 6
UnbondSeconds = 3600
TreasuryAddress = "0x00000000000000000000000000000000000000EE"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.RPCAddress)
	require.Equal(t, uint64(3600), cfg.UnbondSeconds)

	admin, err := cfg.Admin()
	require.NoError(t, err)
	require.Equal(t, byte(0xAD), admin[19])

	treasury, enabled, err := cfg.Treasury()
	require.NoError(t, err)
	require.True(t, enabled)
	require.Equal(t, byte(0xEE), treasury[19])
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
AdminAddress = "0x00000000000000000000000000000000000000AD"
StakedToken = "0x0000000000000000000000000000000000000001"
`))
	require.NoError(t, err)
	require.Equal(t, ":8545", cfg.RPCAddress)
	require.Equal(t, uint64(defaultUnbondSeconds), cfg.UnbondSeconds)

	_, enabled, err := cfg.Treasury()
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestLoadRejectsMissingAddresses(t *testing.T) {
	_, err := Load(writeConfig(t, `RPCAddress = ":9000"`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `
AdminAddress = "not-an-address"
StakedToken = "0x0000000000000000000000000000000000000001"
`))
	require.Error(t, err)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := Load(path)
	require.Error(t, err)
	require.FileExists(t, path)

	// The generated file still needs its addresses filled in.
	_, err = Load(path)
	require.Error(t, err)
}
