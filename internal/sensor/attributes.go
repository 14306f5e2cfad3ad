package sensor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Recognised shared attribute keys.
const (
	AttrInterval        = "interval"
	AttrEnabled         = "enabled"
	AttrFirmwareVersion = "firmware_version"
)

// ClientKeys is the comma-separated key list sent in attribute requests.
const ClientKeys = AttrInterval + "," + AttrEnabled + "," + AttrFirmwareVersion

// minIntervalSeconds is the floor for the reporting interval. Updates below
// it are clamped, never rejected.
const minIntervalSeconds = 1

// Attributes holds the device's mutable runtime configuration.
//
// It is created once with defaults and lives for the process lifetime,
// mutated only through ApplyUpdate. The transport callback goroutine writes
// while the telemetry loop reads, so all access is mutex-guarded.
type Attributes struct {
	mu              sync.RWMutex
	interval        int // seconds, >= minIntervalSeconds
	enabled         bool
	firmwareVersion string

	// onFirmwareChanged is invoked after a firmware_version change with the
	// new version. Swapping in a real firmware-update action must not
	// require any other change here.
	onFirmwareChanged func(version string)
}

// Snapshot is a point-in-time copy of the attribute values.
type Snapshot struct {
	Interval        int    `json:"interval"`
	Enabled         bool   `json:"enabled"`
	FirmwareVersion string `json:"firmware_version"`
}

// UpdateResult reports the outcome of one ApplyUpdate call.
//
// Applied holds the keys whose stored value actually changed, with the new
// value. Invalid holds recognised keys that carried an unconvertible value
// and were skipped. Unrecognised keys appear in neither.
type UpdateResult struct {
	Applied map[string]any
	Invalid map[string]error
}

// NewAttributes creates the attribute store with the given initial values.
// The interval is clamped to the minimum like any later update.
func NewAttributes(interval int, enabled bool, firmwareVersion string) *Attributes {
	if interval < minIntervalSeconds {
		interval = minIntervalSeconds
	}
	return &Attributes{
		interval:        interval,
		enabled:         enabled,
		firmwareVersion: firmwareVersion,
	}
}

// SetOnFirmwareChanged registers the OTA hook. It is invoked once per
// actual firmware_version change, after the new value is stored, outside
// the store's lock.
func (a *Attributes) SetOnFirmwareChanged(hook func(version string)) {
	a.mu.Lock()
	a.onFirmwareChanged = hook
	a.mu.Unlock()
}

// ApplyUpdate applies the recognised keys of a shared-attribute mapping.
//
// Each key is converted independently: a value of the wrong type skips that
// key only and is reported in the result's Invalid map; the rest of the
// update still applies. Unrecognised keys are ignored.
//
// Conversions:
//   - interval: any numeric (or numeric string) to int, clamped to >= 1
//   - enabled: truthiness of any value
//   - firmware_version: string form of any value
//
// Updates are applied in call order; callers deliver messages in transport
// order, so attribute state follows delivery order.
func (a *Attributes) ApplyUpdate(update map[string]any) UpdateResult {
	result := UpdateResult{
		Applied: make(map[string]any),
		Invalid: make(map[string]error),
	}

	var firmwareHook func(string)
	var firmwareVersion string

	a.mu.Lock()

	if raw, ok := update[AttrInterval]; ok {
		if v, err := coerceInt(raw); err != nil {
			result.Invalid[AttrInterval] = err
		} else {
			if v < minIntervalSeconds {
				v = minIntervalSeconds
			}
			if v != a.interval {
				a.interval = v
				result.Applied[AttrInterval] = v
			}
		}
	}

	if raw, ok := update[AttrEnabled]; ok {
		v := truthy(raw)
		if v != a.enabled {
			a.enabled = v
			result.Applied[AttrEnabled] = v
		}
	}

	if raw, ok := update[AttrFirmwareVersion]; ok {
		v := coerceString(raw)
		if v != a.firmwareVersion {
			a.firmwareVersion = v
			result.Applied[AttrFirmwareVersion] = v
			firmwareHook = a.onFirmwareChanged
			firmwareVersion = v
		}
	}

	a.mu.Unlock()

	// Hook runs outside the lock so a slow OTA action cannot stall readers.
	if firmwareHook != nil {
		firmwareHook(firmwareVersion)
	}

	return result
}

// Interval returns the current reporting interval.
func (a *Attributes) Interval() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return time.Duration(a.interval) * time.Second
}

// Enabled reports whether telemetry publishing is enabled.
func (a *Attributes) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// FirmwareVersion returns the current firmware identifier.
func (a *Attributes) FirmwareVersion() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.firmwareVersion
}

// Snapshot returns a consistent copy of all attribute values.
func (a *Attributes) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		Interval:        a.interval,
		Enabled:         a.enabled,
		FirmwareVersion: a.firmwareVersion,
	}
}

// coerceInt converts the dynamically-typed values JSON decoding produces
// into an int. Numeric strings are accepted; anything else fails.
func coerceInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid numeric value %q", n.String())
		}
		return int(f), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", n)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("non-numeric value of type %T", v)
	}
}

// truthy converts any value to a boolean, mirroring the truthiness rules
// servers tend to apply: zero numbers, empty strings, false, and null are
// false; everything else is true. It never fails.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case int:
		return b != 0
	case int32:
		return b != 0
	case int64:
		return b != 0
	case float32:
		return b != 0
	case float64:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		return err != nil || f != 0
	case string:
		return b != ""
	default:
		return true
	}
}

// coerceString converts any value to its string form. It never fails.
func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
