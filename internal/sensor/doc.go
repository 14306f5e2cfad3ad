// Package sensor implements the virtual device core: the connection and
// telemetry state machine.
//
// This package manages:
//   - The runtime attribute store (interval, enabled, firmware_version)
//     updated by server-pushed shared attributes
//   - The exponential backoff reconnect policy
//   - The telemetry loop that publishes simulated readings on the
//     configured interval
//   - Connection lifecycle events from the transport
//
// # Architecture
//
// Two threads of execution touch the controller: the transport's event
// loop delivers connect/disconnect/message callbacks, and the telemetry
// loop publishes readings and drives reconnection. The attribute store and
// connection state are the only shared resources; both are mutex-guarded.
//
//	transport callbacks ─┐
//	                     ├─→ Attributes / ConnectionState (guarded)
//	telemetry loop ──────┘
//
// A single stop signal, delivered through Stop or context cancellation, is
// observed at every wait point. After it fires, no new publish or reconnect
// attempt starts and the controller disconnects in an orderly fashion.
//
// # Error Handling
//
// Only the initial connection failure in Start is surfaced to the caller.
// Every steady-state failure (publish, reconnect, malformed message,
// invalid attribute value) is logged and absorbed; failures manifest as
// telemetry gaps, never as a crashed loop.
package sensor
