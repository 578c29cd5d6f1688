package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimal = `
engine:
  base_url: http://engine:9000
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Fatalf("default port = %d", cfg.Server.Port)
	}
	if cfg.Engine.SymbolScope != "AGGREGATE" {
		t.Fatalf("default scope = %q", cfg.Engine.SymbolScope)
	}
	if cfg.Engine.DialTimeout != 10*time.Second {
		t.Fatalf("default dial timeout = %v", cfg.Engine.DialTimeout)
	}
	if cfg.SignalLog.Capacity != 200 {
		t.Fatalf("default log capacity = %d", cfg.SignalLog.Capacity)
	}
	if !cfg.Engine.AutoStart {
		t.Fatalf("auto start should default on")
	}
	if cfg.Kafka.Topic != "signaldeck.events" {
		t.Fatalf("default topic = %q", cfg.Kafka.Topic)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
engine:
  base_url: http://engine:9000
  symbol_scope: TECH
  top_k: 10
server:
  port: 9999
signal_log:
  capacity: 500
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.SymbolScope != "TECH" || cfg.Engine.TopK != 10 {
		t.Fatalf("engine overrides lost: %+v", cfg.Engine)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("port override lost: %d", cfg.Server.Port)
	}
	if cfg.SignalLog.Capacity != 500 {
		t.Fatalf("capacity override lost: %d", cfg.SignalLog.Capacity)
	}
}

func TestLoadMissingBaseURL(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: development\n")); err == nil {
		t.Fatalf("expected validation error without engine.base_url")
	}
}

func TestLoadEnabledSinkRequiresEndpoint(t *testing.T) {
	if _, err := Load(writeConfig(t, minimal+`
sinks:
  kafka: true
`)); err == nil {
		t.Fatalf("expected error: kafka sink without brokers")
	}

	if _, err := Load(writeConfig(t, minimal+`
sinks:
  clickhouse: true
`)); err == nil {
		t.Fatalf("expected error: clickhouse sink without host")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("ENGINE_BASE_URL", "http://other:9000")
	t.Setenv("SYMBOL_SCOPE", "CRYPTO")
	t.Setenv("TOP_K", "7")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.BaseURL != "http://other:9000" || cfg.Engine.SymbolScope != "CRYPTO" || cfg.Engine.TopK != 7 {
		t.Fatalf("env overrides lost: %+v", cfg.Engine)
	}
	if len(cfg.Kafka.Brokers) != 2 || !cfg.Sinks.Kafka {
		t.Fatalf("kafka env override lost: %+v", cfg.Kafka.Brokers)
	}
}
