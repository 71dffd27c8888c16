package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nft-issuer", config.AppName)
	assert.Equal(t, "http://localhost:8899", config.RpcEndpoint)
	assert.False(t, config.Database.IsConfigured())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SOLANA_RPC_ENDPOINT", "https://api.devnet.solana.com")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USE_AWS_IAM", "true")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.devnet.solana.com", config.RpcEndpoint)
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.Database.IsConfigured())
	assert.Equal(t, "db.internal", config.Database.Host)
	assert.Equal(t, "5432", config.Database.Port)
	assert.True(t, config.Database.UseAwsIam)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keypair: ~/.config/solana/id.json\n"), 0600))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "~/.config/solana/id.json", config.Keypair)
}

func TestNewMetricsProvider_Disabled(t *testing.T) {
	nr, err := NewMetricsProvider(&defaultConfig)
	require.NoError(t, err)
	assert.Nil(t, nr)
}

func TestConfigureLogger(t *testing.T) {
	level := logrus.GetLevel()
	defer logrus.SetLevel(level)

	ConfigureLogger(&BaseConfig{LogLevel: "WARN"}, nil)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	ConfigureLogger(&BaseConfig{LogLevel: "unknown"}, nil)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}
