package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := loadConfig([]string{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr)
	assert.Equal(t, 25, cfg.Registers)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CHECKOUT_REGISTERS", "4")
	t.Setenv("CHECKOUT_ADDR", "127.0.0.1:9000")

	cfg, err := loadConfig([]string{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Registers)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestLoadConfig_Flags(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := loadConfig([]string{"-registers=7", "-addr=127.0.0.1:6000"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Registers)
	assert.Equal(t, "127.0.0.1:6000", cfg.Addr)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registers: 3\naddr: 127.0.0.1:7000\n"), 0o600))

	cfg, err := loadConfig([]string{}, []string{path})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Registers)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestLoadConfig_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "8081")

	cfg, err := loadConfig([]string{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)
}

func TestLoadConfig_InvalidRegisters(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CHECKOUT_REGISTERS", "0")

	_, err := loadConfig([]string{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registers")
}
