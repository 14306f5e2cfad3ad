package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for a connection attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is used when the config does not specify a keepalive.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options from the sensor config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID (configured, or derived from the device name)
//   - Access-token authentication (token as username, empty password)
//   - Connection timeout and keepalive
//   - TLS configuration (if enabled)
//   - Clean session mode
//
// Auto-reconnect is deliberately disabled: reconnection is driven by the
// sensor controller's backoff policy, not by the paho library.
func buildClientOptions(cfg config.MQTTConfig, deviceName string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	// Broker URL
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
	opts.AddBroker(brokerURL)

	// Client identification
	opts.SetClientID(clientID(cfg, deviceName))

	// ThingsBoard authenticates devices by access token as the MQTT username
	if cfg.Auth.AccessToken != "" {
		opts.SetUsername(cfg.Auth.AccessToken)
	}

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Reconnection is owned by the controller's backoff policy
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	// Connection timeout
	opts.SetConnectTimeout(defaultConnectTimeout)

	// Keepalive - broker sends PINGs to detect dead connections
	keepAlive := defaultKeepAlive
	if cfg.Broker.KeepAlive > 0 {
		keepAlive = time.Duration(cfg.Broker.KeepAlive) * time.Second
	}
	opts.SetKeepAlive(keepAlive)

	// TLS configuration if enabled
	if cfg.Broker.TLS {
		tlsConfig := &tls.Config{
			MinVersion: tlsMinVersion,
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}

// clientID returns the configured client ID, or derives a unique one from
// the device name. Brokers disconnect clients with duplicate IDs, so the
// fallback appends a random suffix.
func clientID(cfg config.MQTTConfig, deviceName string) string {
	if cfg.Broker.ClientID != "" {
		return cfg.Broker.ClientID
	}
	return fmt.Sprintf("%s-%s", deviceName, uuid.NewString()[:8])
}
