// Package influxdb provides the optional local telemetry mirror.
//
// It wraps the official influxdb-client-go v2 library so the virtual sensor
// can keep a local time-series history of every reading it publishes to the
// broker. The mirror exists for inspection and debugging; the telemetry loop
// works identically with it disabled.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirror off, nothing to do
//	}
//	defer client.Close()
//
//	client.WriteReading("VirtualSensor01", 21.53, 48.12)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered through the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
