package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/mqtt"
)

// stopTimeout is the maximum time Stop waits for the telemetry loop to
// exit before disconnecting anyway.
const stopTimeout = 10 * time.Second

// Config holds configuration for the sensor controller.
type Config struct {
	// DeviceName identifies the device in logs and mirrored telemetry.
	DeviceName string

	// QoS is the quality-of-service level for telemetry and attribute
	// requests. The platform expects at-least-once (1).
	QoS byte

	// Interval is the initial reporting interval in seconds.
	Interval int

	// Enabled is the initial telemetry enable flag.
	Enabled bool

	// FirmwareVersion is the initial firmware identifier.
	FirmwareVersion string

	// Backoff is the reconnect policy. Zero values get defaults.
	Backoff BackoffPolicy

	// OnFirmwareChanged is invoked when the server pushes a new
	// firmware_version. If nil, an OTA update is simulated in the logs.
	OnFirmwareChanged func(version string)
}

// attributeRequest is the payload asking the platform for shared attributes.
type attributeRequest struct {
	ClientKeys string `json:"clientKeys"`
}

// Controller orchestrates the connection lifecycle, attribute updates, the
// reconnect policy, and the periodic telemetry loop. It owns the attribute
// store.
//
// Two goroutines touch the controller concurrently: the transport's event
// loop (connect/disconnect/message callbacks) and the telemetry loop
// started by Start. Shared state is guarded by mu.
type Controller struct {
	cfg       Config
	transport Transport
	source    Source
	attrs     *Attributes
	backoff   BackoffPolicy
	topics    mqtt.Topics
	logger    Logger
	recorder  Recorder

	mu              sync.RWMutex
	state           ConnectionState
	attempts        int
	published       uint64
	publishFailures uint64
	requestID       int
	started         bool
	startedAt       time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewController creates a controller for the given transport and source.
//
// The controller is inert until Start is called. A nil source falls back
// to the simulated temperature/humidity generator.
func NewController(cfg Config, transport Transport, source Source) *Controller {
	if cfg.Backoff.BaseDelay == 0 {
		cfg.Backoff.BaseDelay = DefaultBaseDelay
	}
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5
	}
	if source == nil {
		source = NewSimulatedSource()
	}

	c := &Controller{
		cfg:       cfg,
		transport: transport,
		source:    source,
		attrs:     NewAttributes(cfg.Interval, cfg.Enabled, cfg.FirmwareVersion),
		backoff:   cfg.Backoff,
		logger:    noopLogger{},
		state:     StateDisconnected,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	hook := cfg.OnFirmwareChanged
	if hook == nil {
		hook = c.simulateOTA
	}
	c.attrs.SetOnFirmwareChanged(hook)

	return c
}

// SetLogger sets the logger for the controller. Call before Start.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// SetRecorder sets an optional telemetry recorder. Call before Start.
// Every successfully published reading is mirrored to it.
func (c *Controller) SetRecorder(recorder Recorder) {
	c.recorder = recorder
}

// Attributes exposes the controller's attribute store for read access and
// locally-initiated updates (e.g. the status API).
func (c *Controller) Attributes() *Attributes {
	return c.attrs
}

// Start connects the transport and launches the telemetry loop.
//
// The initial connection failure is the only error this core surfaces:
// once running, every failure is logged and retried or absorbed.
//
// Parameters:
//   - ctx: Cancelling it stops the telemetry loop like Stop does
//
// Returns:
//   - error: If already started or the initial connection fails
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.startedAt = time.Now()
	c.mu.Unlock()

	c.transport.SetOnConnect(c.handleConnect)
	c.transport.SetOnDisconnect(c.handleDisconnect)

	c.logger.Info("starting sensor",
		"device", c.cfg.DeviceName,
		"interval", c.attrs.Interval(),
	)

	c.setState(StateConnecting)
	if err := c.transport.Connect(); err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("connecting transport: %w", err)
	}

	go c.telemetryLoop(ctx)

	return nil
}

// Stop signals the telemetry loop to exit, waits for it, and disconnects
// the transport. Safe to call multiple times and before Start.
func (c *Controller) Stop() {
	c.logger.Info("stopping sensor")
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})

	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()

	if started {
		select {
		case <-c.done:
		case <-time.After(stopTimeout):
			c.logger.Warn("telemetry loop did not exit in time")
		}
	}

	if err := c.transport.Close(); err != nil {
		c.logger.Error("error disconnecting transport", "error", err)
	}
	c.logger.Info("sensor stopped")
}

// telemetryLoop is the scheduling core. Each iteration either drives
// reconnection (when disconnected) or publishes one reading, then waits
// for the current interval. Both waits are interruptible by the stop
// signal.
func (c *Controller) telemetryLoop(ctx context.Context) {
	c.logger.Info("starting telemetry loop")
	defer close(c.done)
	defer c.logger.Info("telemetry loop stopped")

	for !c.stopping(ctx) {
		if !c.transport.IsConnected() {
			c.reconnectWithBackoff(ctx)
			if !c.transport.IsConnected() {
				// Still down; retry the whole cycle after a fixed wait.
				if !c.wait(ctx, c.backoff.BaseDelay) {
					return
				}
				continue
			}
		}

		c.publishTelemetry()

		// The interval is re-read every cycle so attribute updates take
		// effect on the next wait.
		if !c.wait(ctx, c.attrs.Interval()) {
			return
		}
	}
}

// reconnectWithBackoff runs one reconnect cycle per the backoff policy.
//
// The attempt counter persists across cycles and resets only on a
// successful connection, so once it is exhausted no further attempts start
// until the link comes back by other means.
func (c *Controller) reconnectWithBackoff(ctx context.Context) {
	for !c.transport.IsConnected() && c.backoff.ShouldContinue(c.ReconnectAttempts()) {
		attempt := c.nextAttempt()
		delay := c.backoff.NextDelay(attempt)

		c.logger.Info("reconnect attempt scheduled",
			"attempt", attempt,
			"max_attempts", c.backoff.MaxAttempts,
			"delay", delay,
		)

		if !c.wait(ctx, delay) {
			// Stop fired during the backoff wait; abort the cycle.
			return
		}

		c.setState(StateConnecting)
		if err := c.transport.Reconnect(); err != nil {
			c.setState(StateDisconnected)
			c.logger.Warn("reconnection attempt failed", "attempt", attempt, "error", err)
			continue
		}

		c.logger.Info("reconnection attempt successful", "attempt", attempt)
		return
	}

	if !c.transport.IsConnected() && !c.backoff.ShouldContinue(c.ReconnectAttempts()) {
		c.logger.Error("max reconnection attempts reached",
			"attempts", c.ReconnectAttempts(),
		)
	}
}

// publishTelemetry publishes one reading, best-effort. Failures are logged
// and swallowed; the record is not retried.
func (c *Controller) publishTelemetry() {
	if !c.transport.IsConnected() {
		c.logger.Warn("not connected, skipping telemetry publish")
		return
	}

	if !c.attrs.Enabled() {
		c.logger.Debug("sensor disabled, skipping telemetry")
		return
	}

	reading := c.source.Read()
	payload, err := json.Marshal(reading)
	if err != nil {
		c.logger.Error("failed to encode telemetry", "error", err)
		return
	}

	if err := c.transport.Publish(c.topics.Telemetry(), payload, c.cfg.QoS); err != nil {
		c.mu.Lock()
		c.publishFailures++
		c.mu.Unlock()
		c.logger.Warn("failed to publish telemetry",
			"temperature", reading.Temperature,
			"humidity", reading.Humidity,
			"error", err,
		)
		return
	}

	c.mu.Lock()
	c.published++
	c.mu.Unlock()

	c.logger.Info("published telemetry",
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
	)

	if c.recorder != nil {
		c.recorder.Record(c.cfg.DeviceName, reading)
	}
}

// handleConnect runs on every successful connection: reset the attempt
// counter, subscribe to attribute notifications, and pull the current
// shared attributes.
func (c *Controller) handleConnect() {
	c.logger.Info("connected to platform")
	c.setState(StateConnected)

	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()

	for _, topic := range []string{c.topics.Attributes(), c.topics.AttributeResponses()} {
		if err := c.transport.Subscribe(topic, c.cfg.QoS, c.handleMessage); err != nil {
			c.logger.Error("failed to subscribe", "topic", topic, "error", err)
			continue
		}
		c.logger.Info("subscribed", "topic", topic)
	}

	c.requestAttributes()
}

// handleDisconnect runs when the transport loses the connection. A nil
// error is a clean disconnect; anything else is abnormal. The behaviour
// afterward is identical either way.
func (c *Controller) handleDisconnect(err error) {
	if err != nil {
		c.logger.Warn("unexpected disconnection", "error", err)
	} else {
		c.logger.Info("disconnected from platform")
	}
	c.setState(StateDisconnected)
}

// handleMessage routes inbound messages into the attribute store.
//
// Undecodable payloads are reported to the transport wrapper, which logs
// and drops them; they never mutate state or affect the connection.
func (c *Controller) handleMessage(topic string, payload []byte) error {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	// Shared attribute push: {"shared": {...}}
	if shared, ok := msg["shared"].(map[string]any); ok {
		c.applyAttributes(shared)
		return nil
	}

	// Attribute request response: flat mapping on the response topic.
	if c.topics.IsAttributeResponse(topic) {
		c.applyAttributes(msg)
		return nil
	}

	c.logger.Debug("ignoring message", "topic", topic)
	return nil
}

// applyAttributes applies an update mapping and logs the outcome per key.
func (c *Controller) applyAttributes(update map[string]any) {
	result := c.attrs.ApplyUpdate(update)

	for key, value := range result.Applied {
		c.logger.Info("attribute updated", "key", key, "value", value)
	}
	for key, err := range result.Invalid {
		c.logger.Warn("invalid attribute value", "key", key, "error", err)
	}
}

// requestAttributes asks the platform for the current shared attributes.
func (c *Controller) requestAttributes() {
	c.mu.Lock()
	c.requestID++
	id := c.requestID
	c.mu.Unlock()

	payload, err := json.Marshal(attributeRequest{ClientKeys: ClientKeys})
	if err != nil {
		c.logger.Error("failed to encode attribute request", "error", err)
		return
	}

	if err := c.transport.Publish(c.topics.AttributeRequest(id), payload, c.cfg.QoS); err != nil {
		c.logger.Error("failed to request attributes", "error", err)
		return
	}

	c.logger.Info("requested shared attributes", "request_id", id)
}

// simulateOTA is the default firmware-change hook. A real deployment would
// download and apply the firmware here.
func (c *Controller) simulateOTA(version string) {
	c.logger.Info("simulating OTA update", "firmware_version", version)
	c.logger.Info("OTA simulation completed")
}

// wait blocks for d or until the stop signal fires.
// Returns false if stopped.
func (c *Controller) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-c.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// stopping reports whether the stop signal has fired.
func (c *Controller) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// setState records a connection state transition.
func (c *Controller) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Controller) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ReconnectAttempts returns the current reconnect attempt count.
func (c *Controller) ReconnectAttempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempts
}

// nextAttempt increments and returns the reconnect attempt counter.
func (c *Controller) nextAttempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	return c.attempts
}

// Stats describes the controller's current condition for observability.
type Stats struct {
	Device            string          `json:"device"`
	State             ConnectionState `json:"state"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
	Published         uint64          `json:"published"`
	PublishFailures   uint64          `json:"publish_failures"`
	Uptime            time.Duration   `json:"uptime,omitempty"`
}

// Stats returns current statistics for the sensor.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		Device:            c.cfg.DeviceName,
		State:             c.state,
		ReconnectAttempts: c.attempts,
		Published:         c.published,
		PublishFailures:   c.publishFailures,
	}

	if c.started {
		stats.Uptime = time.Since(c.startedAt)
	}

	return stats
}
