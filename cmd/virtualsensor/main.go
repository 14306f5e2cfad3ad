// Virtual Sensor - Simulated Telemetry Device
//
// This is the main entry point for the virtual sensor application.
// It simulates a networked temperature/humidity device that connects to
// an IoT platform over MQTT, publishes periodic telemetry, and honours
// server-pushed shared attributes (reporting interval, enable flag,
// firmware version).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iyed-guizeni/virtual-sensor/internal/api"
	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/config"
	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/influxdb"
	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/logging"
	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/mqtt"
	"github.com/iyed-guizeni/virtual-sensor/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting virtual sensor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Create the MQTT transport. The client does not connect here; the
	// controller owns the connection lifecycle and the retry policy.
	mqttClient := mqtt.New(cfg.MQTT, cfg.Device.Name)
	mqttClient.SetLogger(log)
	log.Info("MQTT transport configured",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
	)

	// Connect to InfluxDB (optional telemetry mirror)
	var recorder sensor.Recorder
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder = &influxRecorder{client: influxClient}
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Create the sensor controller
	controller := sensor.NewController(sensor.Config{
		DeviceName:      cfg.Device.Name,
		QoS:             byte(cfg.MQTT.QoS),
		Interval:        cfg.Telemetry.Interval,
		Enabled:         cfg.Telemetry.Enabled,
		FirmwareVersion: cfg.Telemetry.FirmwareVersion,
		Backoff: sensor.BackoffPolicy{
			BaseDelay:   cfg.ReconnectBaseDelay(),
			MaxAttempts: cfg.MQTT.Reconnect.MaxAttempts,
		},
	}, &mqttTransportAdapter{client: mqttClient}, nil)
	controller.SetLogger(log)
	if recorder != nil {
		controller.SetRecorder(recorder)
	}

	// Start the status API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			Logger:     log,
			Controller: controller,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating status API: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting status API: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing status API", "error", closeErr)
			}
		}()
	} else {
		log.Info("status API disabled")
	}

	// Connect and start the telemetry loop
	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("starting sensor: %w", err)
	}
	defer controller.Stop()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Controller (stops the loop, disconnects MQTT)
	// 2. Status API (if enabled)
	// 3. InfluxDB (if enabled)

	log.Info("virtual sensor stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VSENSOR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VSENSOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// mqttTransportAdapter adapts the infrastructure MQTT client to the sensor's
// Transport interface. The only friction is the Subscribe handler type: both
// packages declare the same func signature under their own named type.
type mqttTransportAdapter struct {
	client *mqtt.Client
}

func (a *mqttTransportAdapter) Connect() error    { return a.client.Connect() }
func (a *mqttTransportAdapter) Reconnect() error  { return a.client.Reconnect() }
func (a *mqttTransportAdapter) Close() error      { return a.client.Close() }
func (a *mqttTransportAdapter) IsConnected() bool { return a.client.IsConnected() }

func (a *mqttTransportAdapter) Publish(topic string, payload []byte, qos byte) error {
	return a.client.Publish(topic, payload, qos)
}

func (a *mqttTransportAdapter) Subscribe(topic string, qos byte, handler sensor.MessageHandler) error {
	return a.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}

func (a *mqttTransportAdapter) SetOnConnect(callback func()) {
	a.client.SetOnConnect(callback)
}

func (a *mqttTransportAdapter) SetOnDisconnect(callback func(err error)) {
	a.client.SetOnDisconnect(callback)
}

// influxRecorder mirrors published readings into InfluxDB. Writes are
// batched and asynchronous; failures surface via the client's error callback.
type influxRecorder struct {
	client *influxdb.Client
}

// Record implements sensor.Recorder.
func (r *influxRecorder) Record(deviceName string, reading sensor.Reading) {
	r.client.WriteReading(deviceName, reading.Temperature, reading.Humidity)
}
