package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		// viper errors on an explicit missing file; load without a path instead
		cfg, err = Load("")
	}
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "chainpay", cfg.Database.DBName)
	assert.Equal(t, 5*time.Minute, cfg.Settlement.ExpiryWindow)
	assert.Equal(t, 10*time.Second, cfg.Chains.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Chains.SendTimeout)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Chains.Solana.RPCURL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9999
settlement:
  expiry_window: 90s
chains:
  evm:
    ethereum:
      rpc_url: https://rpc.example.org
      chain_id: 11155111
      explorer_url: https://sepolia.etherscan.io
  utxo:
    bitcoin:
      esplora_url: https://blockstream.info/testnet/api
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Settlement.ExpiryWindow)
	assert.Equal(t, int64(11155111), cfg.Chains.EVM["ethereum"].ChainID)
	assert.Equal(t, "https://blockstream.info/testnet/api", cfg.Chains.UTXO["bitcoin"].EsploraURL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CPG_SETTLEMENT_EXPIRY_WINDOW", "2m")
	t.Setenv("CPG_DATABASE_HOST", "db.internal")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Settlement.ExpiryWindow)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		DBName: "chainpay", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/chainpay?sslmode=disable", d.DSN())
}
