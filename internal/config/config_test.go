package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLRITValidates(t *testing.T) {
	cfg := Default(LRIT)
	cfg.SampleRate = 2_400_000
	require.NoError(t, cfg.Validate())

	rate, err := cfg.SymbolRate()
	require.NoError(t, err)
	require.Equal(t, float32(LRITSymbolRate), rate)
}

func TestDefaultHRITValidates(t *testing.T) {
	cfg := Default(HRIT)
	cfg.SampleRate = 4_000_000
	require.NoError(t, cfg.Validate())
}

func TestUnknownSignalTypeIsConfigError(t *testing.T) {
	cfg := Default(LRIT)
	cfg.Type = "XRIT"
	cfg.SampleRate = 2_400_000

	err := cfg.Validate()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "type", cerr.Field)
}

func TestTooFewSamplesPerSymbolIsRejected(t *testing.T) {
	cfg := Default(LRIT)
	cfg.SampleRate = 293883 // decimation would leave < 1 sample/symbol
	cfg.Decimation = 4

	err := cfg.Validate()
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "decimation", cerr.Field)
}

func TestZeroDecimationIsRejected(t *testing.T) {
	cfg := Default(LRIT)
	cfg.SampleRate = 2_400_000
	cfg.Decimation = 0

	require.Error(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goesrecv.yaml")
	body := `
type: HRIT
sampleRate: 4000000
decimation: 2
agc:
  min: 0.001
  max: 50
costas:
  maxDeviation: 0.02
  bandwidth: 0.02
clock:
  bandwidth: 0.02
queue:
  capacity: 16
block:
  size: 4096
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, HRIT, cfg.Type)
	require.Equal(t, float32(4_000_000), cfg.SampleRate)
	require.Equal(t, 16, cfg.Queue.Capacity)
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}
