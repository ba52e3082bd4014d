package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Client: ClientConfig{
			Version:       "1.0.0",
			HashAlgorithm: "md5",
		},
		Master: MasterConfig{
			Host: "127.0.0.1",
			Port: 6543,
		},
		Transport: TransportConfig{
			Kind:         TransportTCP,
			DialTimeout:  10 * time.Second,
			MaxFrameSize: 1 << 20,
			GRPCMethod:   "/vno.v1.Session/Stream",
			WSPath:       "/vno",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Console: ConsoleConfig{
			TextSpeed: 20 * time.Millisecond,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "52.73.41.179:6543", cfg.Master.Addr())
	assert.Equal(t, 10*time.Second, cfg.Transport.DialTimeout)
	assert.Equal(t, time.Duration(0), cfg.Transport.WriteTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.Console.TextSpeed)
	assert.Equal(t, "md5", cfg.Client.HashAlgorithm)
}

func TestMasterAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "127.0.0.1:6543", cfg.Master.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
client:
  hash_algorithm: sha256
master:
  host: master.example.net
  port: 7000
transport:
  kind: ws
  ws_path: /session
  write_timeout: 5s
logging:
  level: debug
  format: console
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sha256", cfg.Client.HashAlgorithm)
	assert.Equal(t, "master.example.net:7000", cfg.Master.Addr())
	assert.Equal(t, TransportWebSocket, cfg.Transport.Kind)
	assert.Equal(t, "/session", cfg.Transport.WSPath)
	assert.Equal(t, 5*time.Second, cfg.Transport.WriteTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Transport.DialTimeout)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VNO_MASTER_PORT", "7777")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Master.Port)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateTransportKind(t *testing.T) {
	for _, kind := range []string{TransportTCP, TransportGRPC, TransportWebSocket} {
		cfg := validConfig()
		cfg.Transport.Kind = kind
		assert.NoError(t, cfg.Validate(), "kind %q should be valid", kind)
	}
	cfg := validConfig()
	cfg.Transport.Kind = "udp"
	assert.Error(t, cfg.Validate())
}

func TestValidateGRPCMethod(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.Kind = TransportGRPC
	cfg.Transport.GRPCMethod = "Stream"
	assert.Error(t, cfg.Validate())
}

func TestValidateNegativeTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.DialTimeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Transport.WriteTimeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Console.TextSpeed = -time.Millisecond
	assert.Error(t, cfg.Validate())
}

func TestValidateHashAlgorithmEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Client.HashAlgorithm = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFileNeedsSize(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.File = "/tmp/vno.log"
	cfg.Logging.MaxSizeMB = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Master.Host = ""
	cfg.Transport.Kind = "udp"
	cfg.Logging.Level = "trace"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "master.host")
	assert.Contains(t, err.Error(), "transport.kind")
	assert.Contains(t, err.Error(), "logging.level")
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Master.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Master.Port = port
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}
