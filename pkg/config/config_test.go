package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "edgesync.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateFileAndEnv(t *testing.T) {
	path := writeConfig(t, `{
		"user_id": "user-1",
		"device_id": "device-1",
		"restart_delay": "2s",
		"nats": {
			"url": "nats://file:4222",
			"security": {"mode": "mtls", "cert_dir": "/etc/edgesync/certs", "tls": {"cert_file": "client.pem", "key_file": "/abs/key.pem"}}
		}
	}`)

	t.Setenv("EDGESYNC_NATS_URL", "nats://env:4222")
	t.Setenv("EDGESYNC_WATCH_BUFFER", "32")
	t.Setenv("EDGESYNC_NATS_REQUEST_TIMEOUT", "3s")

	cfg := DefaultAgentConfig()
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, 32, cfg.WatchBuffer)
	assert.Equal(t, 2*time.Second, cfg.RestartDelay.Duration())
	assert.Equal(t, 3*time.Second, cfg.NATS.RequestTimeout.Duration())
	assert.Equal(t, DefaultBasePath, cfg.BasePath)
	assert.Equal(t, DefaultBucket, cfg.NATS.Bucket)

	require.NotNil(t, cfg.NATS.Security)
	assert.Equal(t, models.SecurityModeMTLS, cfg.NATS.Security.Mode)
	assert.Equal(t, "/etc/edgesync/certs/client.pem", cfg.NATS.Security.TLS.CertFile)
	assert.Equal(t, "/abs/key.pem", cfg.NATS.Security.TLS.KeyFile)
}

func TestLoadAndValidateMissingFileUsesEnv(t *testing.T) {
	t.Setenv("EDGESYNC_USER_ID", "u")
	t.Setenv("EDGESYNC_DEVICE_ID", "d")
	t.Setenv("EDGESYNC_NATS_URL", "nats://127.0.0.1:4222")

	cfg := DefaultAgentConfig()
	err := NewConfig(nil).LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "missing.json"), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "u", cfg.UserID)
	assert.Nil(t, cfg.NATS.Security)
}

func TestLoadAndValidateRejectsBadInput(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		cfg := DefaultAgentConfig()
		err := NewConfig(nil).LoadAndValidate(context.Background(), writeConfig(t, "{"), &cfg)
		require.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		cfg := DefaultAgentConfig()
		err := NewConfig(nil).LoadAndValidate(context.Background(), writeConfig(t, `{"devce_id": "d"}`), &cfg)
		require.ErrorIs(t, err, ErrUnknownField)
		assert.Contains(t, err.Error(), "devce_id")
	})

	t.Run("unknown nested field", func(t *testing.T) {
		cfg := DefaultAgentConfig()
		err := NewConfig(nil).LoadAndValidate(context.Background(), writeConfig(t, `{"nats": {"uri": "nats://x"}}`), &cfg)
		require.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("trailing data", func(t *testing.T) {
		cfg := DefaultAgentConfig()
		err := NewConfig(nil).LoadAndValidate(context.Background(), writeConfig(t, `{} {}`), &cfg)
		require.ErrorIs(t, err, errTrailingData)
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("EDGESYNC_RESTART_DELAY", "soon")

		cfg := DefaultAgentConfig()
		err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
		require.Error(t, err)
	})

	t.Run("non pointer", func(t *testing.T) {
		err := NewConfig(nil).LoadAndValidate(context.Background(), "", DefaultAgentConfig())
		require.ErrorIs(t, err, errInvalidConfigPtr)
	})
}

func TestAgentConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() AgentConfig {
		cfg := DefaultAgentConfig()
		cfg.UserID = "u"
		cfg.DeviceID = "d"
		cfg.NATS.URL = "nats://localhost:4222"

		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*AgentConfig)
		want   error
	}{
		{name: "valid", mutate: func(*AgentConfig) {}},
		{name: "device", mutate: func(c *AgentConfig) { c.DeviceID = "" }, want: ErrMissingDeviceID},
		{name: "user", mutate: func(c *AgentConfig) { c.UserID = "" }, want: ErrMissingUserID},
		{name: "base path", mutate: func(c *AgentConfig) { c.BasePath = "" }, want: ErrMissingBasePath},
		{name: "nats url", mutate: func(c *AgentConfig) { c.NATS.URL = "" }, want: ErrMissingNATSURL},
		{name: "buffer", mutate: func(c *AgentConfig) { c.WatchBuffer = 0 }, want: errInvalidBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAgentConfigValidateFillsBucket(t *testing.T) {
	t.Parallel()

	cfg := AgentConfig{UserID: "u", DeviceID: "d", BasePath: "/srv", WatchBuffer: 1, NATS: NATSConfig{URL: "nats://x"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBucket, cfg.NATS.Bucket)
}

func TestFileConfigLoader(t *testing.T) {
	t.Parallel()

	loader := NewFileConfigLoader(nil)

	t.Run("missing file leaves defaults", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultAgentConfig()
		require.NoError(t, loader.Load(context.Background(), filepath.Join(t.TempDir(), "none.json"), &cfg))
		assert.Equal(t, DefaultAgentConfig(), cfg)
	})

	t.Run("sample config", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultAgentConfig()
		require.NoError(t, loader.Load(context.Background(), filepath.Join("..", "..", "cmd", "edgesync", "edgesync.json"), &cfg))
		assert.Equal(t, "edgesync", cfg.NATS.Bucket)
		require.NotNil(t, cfg.Logging)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("unreadable path", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultAgentConfig()
		require.Error(t, loader.Load(context.Background(), t.TempDir(), &cfg))
	})
}
