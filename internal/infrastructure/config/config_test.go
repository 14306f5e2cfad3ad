package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  name: "test-sensor"
mqtt:
  broker:
    host: "broker.example.com"
    port: 1883
    client_id: "test-client"
  auth:
    access_token: "abc123"
  qos: 1
telemetry:
  interval: 10
  enabled: true
  firmware_version: "2.0"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "test-sensor" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "test-sensor")
	}

	if cfg.MQTT.Broker.Host != "broker.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.example.com")
	}

	if cfg.MQTT.Auth.AccessToken != "abc123" {
		t.Errorf("MQTT.Auth.AccessToken = %q, want %q", cfg.MQTT.Auth.AccessToken, "abc123")
	}

	if cfg.Telemetry.Interval != 10 {
		t.Errorf("Telemetry.Interval = %d, want 10", cfg.Telemetry.Interval)
	}

	if cfg.Telemetry.FirmwareVersion != "2.0" {
		t.Errorf("Telemetry.FirmwareVersion = %q, want %q", cfg.Telemetry.FirmwareVersion, "2.0")
	}
}

func TestLoad_DefaultsPreserved(t *testing.T) {
	// A minimal file should leave defaults in place for omitted sections.
	content := `
device:
  name: "minimal"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want default 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Reconnect.BaseDelay != 5 {
		t.Errorf("MQTT.Reconnect.BaseDelay = %d, want default 5", cfg.MQTT.Reconnect.BaseDelay)
	}
	if cfg.MQTT.Reconnect.MaxAttempts != 5 {
		t.Errorf("MQTT.Reconnect.MaxAttempts = %d, want default 5", cfg.MQTT.Reconnect.MaxAttempts)
	}
	if cfg.Telemetry.Interval != 5 {
		t.Errorf("Telemetry.Interval = %d, want default 5", cfg.Telemetry.Interval)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want default true")
	}
	if cfg.Telemetry.FirmwareVersion != "1.0" {
		t.Errorf("Telemetry.FirmwareVersion = %q, want default %q", cfg.Telemetry.FirmwareVersion, "1.0")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
device:
  name: "file-name"
mqtt:
  broker:
    host: "file-host"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("VSENSOR_MQTT_HOST", "env-host")
	t.Setenv("VSENSOR_MQTT_ACCESS_TOKEN", "env-token")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-host" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "env-host")
	}
	if cfg.MQTT.Auth.AccessToken != "env-token" {
		t.Errorf("MQTT.Auth.AccessToken = %q, want env override %q", cfg.MQTT.Auth.AccessToken, "env-token")
	}
	if cfg.Device.Name != "file-name" {
		t.Errorf("Device.Name = %q, want file value %q", cfg.Device.Name, "file-name")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "empty device name",
			mutate:  func(c *Config) { c.Device.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero base delay",
			mutate:  func(c *Config) { c.MQTT.Reconnect.BaseDelay = 0 },
			wantErr: true,
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.MQTT.Reconnect.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "zero telemetry interval",
			mutate:  func(c *Config) { c.Telemetry.Interval = 0 },
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Reconnect.BaseDelay = 3
	cfg.Telemetry.Interval = 7

	if got := cfg.ReconnectBaseDelay(); got != 3*time.Second {
		t.Errorf("ReconnectBaseDelay() = %v, want 3s", got)
	}
	if got := cfg.TelemetryInterval(); got != 7*time.Second {
		t.Errorf("TelemetryInterval() = %v, want 7s", got)
	}
}
