package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8000", cfg.Server.ListenAddr)
	require.Equal(t, "sandbox", cfg.Plaid.Environment)
	require.Equal(t, 100, cfg.Plaid.MonthlyLimit)
	require.Equal(t, 60, cfg.Cache.AccountsTTLMin)
	require.Equal(t, "heuristic", cfg.LLM.Provider)
	require.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[server]
listen_addr = "127.0.0.1:9999"

[plaid]
client_id = "cid"
secret = "sec"
environment = "production"
monthly_limit = 250

[kafka]
brokers = ["localhost:9092"]
topic = "events"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("BANKFEED_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.Server.ListenAddr)
	require.Equal(t, "cid", cfg.Plaid.ClientID)
	require.Equal(t, "production", cfg.Plaid.Environment)
	require.Equal(t, 250, cfg.Plaid.MonthlyLimit)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "events", cfg.Kafka.Topic)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("BANKFEED_DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.URL)
}

func TestResolveLLMKey(t *testing.T) {
	cfg := Config{LLM: LLMConfig{APIKeyEnv: "BANKFEED_TEST_LLM_KEY", APIKey: "from-file"}}
	require.Equal(t, "from-file", cfg.ResolveLLMKey())

	t.Setenv("BANKFEED_TEST_LLM_KEY", "from-env")
	require.Equal(t, "from-env", cfg.ResolveLLMKey())
}

func TestResolvePlaidSecretFromConfig(t *testing.T) {
	cfg := Config{Plaid: PlaidConfig{Secret: " sec "}}
	require.Equal(t, "sec", cfg.ResolvePlaidSecret())
}
