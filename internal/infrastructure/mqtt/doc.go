// Package mqtt provides MQTT connectivity for the virtual sensor.
//
// This package manages:
//   - Connection to a ThingsBoard-compatible broker
//   - Explicit reconnection (driven by the sensor controller, not the library)
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with re-subscription after reconnect
//   - ThingsBoard device API topic builders
//
// # Architecture
//
// The sensor controller owns the connection lifecycle. Auto-reconnect in
// the paho library is disabled so that reconnection timing follows the
// controller's exponential backoff policy:
//
//	Sensor Controller → mqtt.Client → ThingsBoard broker
//
// Connection loss is reported through the SetOnDisconnect callback; the
// controller then calls Reconnect between backoff waits.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT, cfg.Device.Name)
//	client.SetOnConnect(func() { log.Println("connected") })
//	client.SetOnDisconnect(func(err error) { log.Println("lost:", err) })
//	if err := client.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Subscribe(mqtt.Topics{}.Attributes(), 1, handleAttributes)
//	client.Publish(mqtt.Topics{}.Telemetry(), payload, 1)
package mqtt
