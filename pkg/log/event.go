package log

import "time"

// Event is one protocol trace event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates line flow. Meaningful for CategoryLine only.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// RemoteAddr is the daemon address (host:port).
	RemoteAddr string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Line        *LineEvent        `cbor:"6,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEvent       `cbor:"8,keyasint,omitempty"`
}

// LineEvent records one wire line, without its trailing newline.
type LineEvent struct {
	// Text is the raw line. Credential lines are masked before the event is
	// emitted; Redacted marks them.
	Text string `cbor:"1,keyasint"`

	// Redacted indicates Text had credential arguments masked.
	Redacted bool `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent records a session state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason is a short explanation, such as "tls upgrade failed".
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEvent records an error surfaced by the engine.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`

	// Context names the operation that failed, such as "LIST VAR".
	Context string `cbor:"2,keyasint,omitempty"`
}

// Direction indicates the direction of line flow.
type Direction uint8

const (
	// DirectionIn indicates a line received from the daemon.
	DirectionIn Direction = 0
	// DirectionOut indicates a line sent to the daemon.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLine is a raw wire line.
	CategoryLine Category = iota
	// CategoryState is a session state transition.
	CategoryState
	// CategoryError is an engine error.
	CategoryError
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLine:
		return "LINE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
