package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"listen_addr":     "0.0.0.0:9000",
		"websocket_addr":  ":8080",
		"health_addr":     ":50051",
		"database_driver": "postgres",
		"database_dsn":    "postgres://db",
		"secret_key":      "my_secret_key",
		"token_validity":  "1h",
		"max_frame_size":  2048,
		"hub_capacity":    64,
		"log_level":       "warn",
		"log_format":      "text",
		"log_file":        "chat.log",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-config", full}))

		assert.Empty(t, cmp.Diff(&Config{
			ListenAddr:     "0.0.0.0:9000",
			WebSocketAddr:  ":8080",
			HealthAddr:     ":50051",
			DatabaseDriver: "postgres",
			DatabaseDSN:    "postgres://db",
			SecretKey:      "my_secret_key",
			TokenValidity:  time.Hour,
			MaxFrameSize:   2048,
			HubCapacity:    64,
			LogLevel:       "warn",
			LogFormat:      "text",
			LogFile:        "chat.log",
		}, cfg))
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "k"})

		cfg := &Config{}
		cfg.LoadDefaults()
		want := *cfg
		want.SecretKey = "k"

		require.NoError(t, parseJson(cfg, []string{"-c", partial}))
		assert.Empty(t, cmp.Diff(&want, cfg))
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{ListenAddr: "defaults:1234", SecretKey: "key"}
		require.NoError(t, parseJson(cfg, []string{"-a", "x"}))
		assert.Equal(t, "defaults:1234", cfg.ListenAddr)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		assert.Error(t, parseJson(&Config{}, []string{"-config", bad}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		assert.Error(t, parseJson(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}))
	})
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"secret_key":  "from-file",
		"listen_addr": "file:1",
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "flag:2", "-k", "memory"})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, "flag:2", cfg.ListenAddr)
}
