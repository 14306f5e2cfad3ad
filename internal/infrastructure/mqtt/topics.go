package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// ThingsBoard device API topics.
//
// The device publishes telemetry and attribute requests, and receives
// shared attribute pushes and attribute request responses. All topics live
// under the fixed "v1/devices/me" prefix; the broker identifies the device
// by its access token, not by the topic.
const (
	// topicPrefix is the base for all ThingsBoard device topics.
	topicPrefix = "v1/devices/me"

	// attributeResponsePrefix is the base for attribute request responses.
	attributeResponsePrefix = topicPrefix + "/attributes/response/"
)

// Topics provides builders for ThingsBoard device topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.Telemetry()            // "v1/devices/me/telemetry"
//	topics.AttributeRequest(1)    // "v1/devices/me/attributes/request/1"
type Topics struct{}

// Telemetry returns the topic for outbound telemetry records.
func (Topics) Telemetry() string {
	return topicPrefix + "/telemetry"
}

// Attributes returns the topic carrying server-pushed shared attribute
// updates. Subscribing to it delivers {"shared": {...}} notifications.
func (Topics) Attributes() string {
	return topicPrefix + "/attributes"
}

// AttributeRequest returns the topic for requesting attribute values.
// The request ID correlates the response with the request.
func (Topics) AttributeRequest(requestID int) string {
	return fmt.Sprintf("%s/attributes/request/%d", topicPrefix, requestID)
}

// AttributeResponse returns the response topic for a specific request ID.
func (Topics) AttributeResponse(requestID int) string {
	return fmt.Sprintf("%s%d", attributeResponsePrefix, requestID)
}

// AttributeResponses returns the wildcard subscription matching responses
// for every request ID.
func (Topics) AttributeResponses() string {
	return attributeResponsePrefix + "+"
}

// IsAttributeResponse reports whether the topic is an attribute response.
func (Topics) IsAttributeResponse(topic string) bool {
	return strings.HasPrefix(topic, attributeResponsePrefix)
}

// RequestIDFromResponse extracts the request ID from an attribute response
// topic.
//
// Returns:
//   - int: The request ID
//   - error: If the topic is not an attribute response or carries no valid ID
func (Topics) RequestIDFromResponse(topic string) (int, error) {
	if !strings.HasPrefix(topic, attributeResponsePrefix) {
		return 0, fmt.Errorf("%w: %q is not an attribute response topic", ErrInvalidTopic, topic)
	}

	id, err := strconv.Atoi(strings.TrimPrefix(topic, attributeResponsePrefix))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid request id in %q", ErrInvalidTopic, topic)
	}

	return id, nil
}
