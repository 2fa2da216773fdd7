package common

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultSocketConfig(t *testing.T) {
	cfg := DefaultSocketConfig()

	if cfg.HWM != Unbounded {
		t.Errorf("Expected unbounded hwm, got %d", cfg.HWM)
	}
	if cfg.RetryTimeout != 100*time.Millisecond || cfg.RetryMaxTimeout != 5*time.Second {
		t.Errorf("Unexpected retry defaults %s / %s", cfg.RetryTimeout, cfg.RetryMaxTimeout)
	}
	if cfg.Identity == "" || cfg.Identity != DefaultSocketConfig().Identity {
		t.Errorf("Expected a stable process identity, got %q", cfg.Identity)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SocketConfig)
	}{
		{"hwm below unbounded", func(c *SocketConfig) { c.HWM = -2 }},
		{"empty identity", func(c *SocketConfig) { c.Identity = "" }},
		{"negative retry", func(c *SocketConfig) { c.RetryTimeout = -time.Second }},
		{"max below base", func(c *SocketConfig) { c.RetryMaxTimeout = time.Millisecond }},
		{"no write queue", func(c *SocketConfig) { c.Transport.WriteQueueSize = 0 }},
		{"no frame size", func(c *SocketConfig) { c.Transport.MaxFrameSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSocketConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error")
			}
		})
	}

	// disabling reconnects makes the max timeout irrelevant
	cfg := DefaultSocketConfig()
	cfg.RetryTimeout = 0
	cfg.RetryMaxTimeout = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected zero retry to validate, got %v", err)
	}
}

func TestLoadSocketConfig(t *testing.T) {
	t.Setenv("DMQ_TEST_IDENTITY", "worker-7")

	path := filepath.Join(t.TempDir(), "socket.yaml")
	data := `
hwm: 10
identity: ${DMQ_TEST_IDENTITY}
retry_timeout: 250ms
transport:
  tcp_nodelay: false
  write_queue_size: 16
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadSocketConfig(path)
	if err != nil {
		t.Fatalf("LoadSocketConfig failed: %v", err)
	}

	if cfg.HWM != 10 || cfg.Identity != "worker-7" || cfg.RetryTimeout != 250*time.Millisecond {
		t.Errorf("Unexpected config values: %+v", cfg)
	}
	if cfg.Transport.TCPNoDelay || cfg.Transport.WriteQueueSize != 16 {
		t.Errorf("Unexpected transport values: %+v", cfg.Transport)
	}
	// untouched fields keep the defaults
	if cfg.RetryMaxTimeout != 5*time.Second || cfg.Transport.DialTimeout != 5*time.Second {
		t.Errorf("Expected defaults for missing fields, got %+v", cfg)
	}

	if _, err := LoadSocketConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}

	bad := DefaultSocketConfig()
	if err := ParseSocketConfig([]byte("hwm: -5"), &bad); err == nil {
		t.Errorf("Expected validation error from parsed file")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultSocketConfig()
	s := cfg.String()
	for _, want := range []string{"SOCKET", "TRANSPORT", "unbounded", cfg.Identity, "100ms"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in config string:\n%s", want, s)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error"} {
		if _, err := ParseLogLevel(lvl); err != nil {
			t.Errorf("Expected %s to parse: %v", lvl, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}

func TestLoggerRegistry(t *testing.T) {
	GetLogger("test/registry")
	GetLogger("test/registry")

	count := 0
	for _, name := range LoggerNames() {
		if name == "test/registry" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected logger to be registered once, found %d times", count)
	}

	if err := InitLoggers("debug", io.Discard); err != nil {
		t.Errorf("InitLoggers failed: %v", err)
	}
	if err := InitLoggers("verbose", nil); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}
