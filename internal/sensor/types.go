package sensor

// ConnectionState represents the controller's view of the transport link.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// Reading is one telemetry record. It is produced, published, and discarded
// every cycle; nothing retains it.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// Source produces a measurement on demand.
//
// Implementations must be safe for use from the telemetry loop goroutine;
// the controller never calls Read concurrently with itself.
type Source interface {
	Read() Reading
}

// Recorder receives a copy of every successfully published reading.
// Used to mirror telemetry into local storage; optional.
type Recorder interface {
	Record(deviceName string, r Reading)
}

// MessageHandler is the callback signature for inbound transport messages.
type MessageHandler func(topic string, payload []byte) error

// Transport abstracts the publish/subscribe client the controller drives.
// The production implementation wraps the MQTT infrastructure client; tests
// substitute a fake.
type Transport interface {
	// Connect establishes the initial connection.
	Connect() error

	// Reconnect attempts to re-establish a lost connection.
	Reconnect() error

	// Close disconnects gracefully.
	Close() error

	// IsConnected reports the current link state.
	IsConnected() bool

	// Publish sends a payload to a topic at the given QoS level.
	Publish(topic string, payload []byte, qos byte) error

	// Subscribe registers a handler for inbound messages on a topic.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// SetOnConnect registers a callback fired on every successful
	// connection, initial or reconnect.
	SetOnConnect(func())

	// SetOnDisconnect registers a callback fired when the connection is
	// lost; err is nil for a clean disconnect.
	SetOnDisconnect(func(err error))
}

// Logger defines the logging interface for the sensor controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
