package client

import "fmt"

// Device is one UPS known to the daemon.
type Device struct {
	// Name is the device identifier used in commands.
	Name string

	// Description is the human-readable description, or "Unavailable" when
	// the daemon has none.
	Description string
}

// Variable is one device state variable.
type Variable struct {
	Name  string
	Value string
}

// VariableRange is one valid interval of a numeric variable. Bounds are
// kept as the daemon's strings; the daemon does not declare numeric types.
type VariableRange struct {
	Min string
	Max string
}

// String renders the range in interval notation.
func (r VariableRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Min, r.Max)
}

// Client is one connection the daemon reports for a device, identified by
// its source address.
type Client struct {
	Address string
}
