package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "position-ledger/internal/errors"
)

func clearLedgerEnv(t *testing.T) {
	for _, k := range []string{"LEDGER_DB_PATH", "LEDGER_LOG_LEVEL", "LEDGER_SERVER_ADDR", "LEDGER_CURRENCY", "LEDGER_BUSY_RETRIES"} {
		t.Setenv(k, "")
	}
}

func TestLoad_CreatesTemplate(t *testing.T) {
	clearLedgerEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "template should be written")

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "EUR", cfg.Display.Currency)
	assert.Equal(t, 5, cfg.Store.BusyRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Store.BusyDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotContains(t, cfg.Store.Path, "~")
	assert.Empty(t, cfg.Import.Tickers)
}

func TestLoad_ReadsFileAndTickers(t *testing.T) {
	clearLedgerEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[store]
path = "/tmp/positions.db"
busy_retries = 2

[display]
currency = "USD"

[[import.tickers]]
product = "PEUGEOT"
ticker = "UG"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/positions.db", cfg.Store.Path)
	assert.Equal(t, 2, cfg.Store.BusyRetries)
	assert.Equal(t, "USD", cfg.Display.Currency)
	assert.Equal(t, map[string]string{"PEUGEOT": "UG"}, cfg.Import.TickerTable())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearLedgerEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, createTemplateConfig(path))

	t.Setenv("LEDGER_DB_PATH", "/data/ledger.db")
	t.Setenv("LEDGER_SERVER_ADDR", ":9090")
	t.Setenv("LEDGER_CURRENCY", "gbp")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/ledger.db", cfg.Store.Path)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "GBP", cfg.Display.Currency)
}

func TestLoad_DotEnv(t *testing.T) {
	clearLedgerEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, createTemplateConfig(path))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEDGER_LOG_LEVEL=DEBUG\n"), 0600))

	// godotenv never overrides variables that are already set.
	os.Unsetenv("LEDGER_LOG_LEVEL")
	t.Cleanup(func() { os.Unsetenv("LEDGER_LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	clearLedgerEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[display]\ncurrency = \"euro\"\n[server]\nmode = \"fast\"\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, lerrors.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "Currency")
	assert.Contains(t, err.Error(), "Mode")
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
