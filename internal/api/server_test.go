package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/config"
	"github.com/iyed-guizeni/virtual-sensor/internal/infrastructure/logging"
	"github.com/iyed-guizeni/virtual-sensor/internal/sensor"
)

// stubTransport satisfies sensor.Transport without a broker. The API tests
// never drive the connection, so every method is a no-op.
type stubTransport struct{}

func (stubTransport) Connect() error                                        { return nil }
func (stubTransport) Reconnect() error                                      { return nil }
func (stubTransport) Close() error                                          { return nil }
func (stubTransport) IsConnected() bool                                     { return false }
func (stubTransport) Publish(string, []byte, byte) error                    { return nil }
func (stubTransport) Subscribe(string, byte, sensor.MessageHandler) error   { return nil }
func (stubTransport) SetOnConnect(func())                                   {}
func (stubTransport) SetOnDisconnect(func(error))                           {}

// testServer creates a Server backed by an idle sensor controller.
func testServer(t *testing.T) *Server {
	t.Helper()

	controller := sensor.NewController(sensor.Config{
		DeviceName:      "test-sensor",
		QoS:             1,
		Interval:        5,
		Enabled:         true,
		FirmwareVersion: "1.0",
	}, stubTransport{}, nil)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:     log,
		Controller: controller,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() with no dependencies should fail")
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() without controller should fail")
	}
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version field = %v, want test", body["version"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var stats sensor.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if stats.Device != "test-sensor" {
		t.Errorf("device = %q, want %q", stats.Device, "test-sensor")
	}
	if stats.State != sensor.StateDisconnected {
		t.Errorf("state = %v, want %v", stats.State, sensor.StateDisconnected)
	}
}

func TestHandleGetAttributes(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attributes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var snap sensor.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if snap.Interval != 5 {
		t.Errorf("interval = %d, want 5", snap.Interval)
	}
	if !snap.Enabled {
		t.Error("enabled = false, want true")
	}
	if snap.FirmwareVersion != "1.0" {
		t.Errorf("firmware = %q, want %q", snap.FirmwareVersion, "1.0")
	}
}

func TestHandleUpdateAttributes(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{"interval": 30, "enabled": false, "bogus": 1}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/attributes", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	snap := srv.controller.Attributes().Snapshot()
	if snap.Interval != 30 {
		t.Errorf("interval = %d, want 30", snap.Interval)
	}
	if snap.Enabled {
		t.Error("enabled = true, want false")
	}

	var resp struct {
		Applied map[string]any    `json:"applied"`
		Invalid map[string]string `json:"invalid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if _, ok := resp.Applied["interval"]; !ok {
		t.Errorf("applied = %v, want interval entry", resp.Applied)
	}
}

func TestHandleUpdateAttributes_PartialFailure(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	// interval is invalid but enabled must still apply.
	body := strings.NewReader(`{"interval": "abc", "enabled": false}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/attributes", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Invalid map[string]string `json:"invalid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if _, ok := resp.Invalid["interval"]; !ok {
		t.Errorf("invalid = %v, want interval entry", resp.Invalid)
	}

	snap := srv.controller.Attributes().Snapshot()
	if snap.Interval != 5 {
		t.Errorf("interval = %d, want unchanged 5", snap.Interval)
	}
	if snap.Enabled {
		t.Error("enabled = true, want false")
	}
}

func TestHandleUpdateAttributes_BadBody(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{not json`},
		{name: "empty object", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/attributes", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want client-provided abc123", got)
	}
}
