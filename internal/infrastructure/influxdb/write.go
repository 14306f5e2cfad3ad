package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading records one published telemetry reading.
//
// This is the primary method for mirroring telemetry locally. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceName: The reporting device (tag)
//   - temperature: Temperature in degrees Celsius
//   - humidity: Relative humidity in percent
//
// Example:
//
//	client.WriteReading("VirtualSensor01", 21.53, 48.12)
func (c *Client) WriteReading(deviceName string, temperature, humidity float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"device": deviceName,
		},
		map[string]interface{}{
			"temperature": temperature,
			"humidity":    humidity,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteReading, such as
// connection-lifecycle events.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
