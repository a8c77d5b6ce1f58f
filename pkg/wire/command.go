package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyArgument indicates a command was built with an empty required
// argument, such as a blank device name.
var ErrEmptyArgument = errors.New("empty command argument")

// Command is one protocol command: a verb plus its arguments, sent as a
// single wire line. Build commands with the typed constructors below;
// protocol-level validation (does the device exist, is the variable
// writable) is left to the daemon.
type Command struct {
	verb string
	args []string
}

// Name returns the network verb of the command.
func (c Command) Name() string { return c.verb }

// Args returns the arguments following the verb.
func (c Command) Args() []string { return c.args }

// Tokens returns the full token sequence, verb first.
func (c Command) Tokens() []string {
	return append([]string{c.verb}, c.args...)
}

// Validate checks structural constraints: a verb is present and no required
// argument is empty.
func (c Command) Validate() error {
	if c.verb == "" {
		return fmt.Errorf("%w: missing verb", ErrEmptyArgument)
	}
	for i, arg := range c.args {
		// PASSWORD is the one verb where an empty argument is plausible;
		// upsd rejects it itself, so only positional arguments are checked.
		if arg == "" && c.verb != "PASSWORD" {
			return fmt.Errorf("%w: %s argument %d", ErrEmptyArgument, c.verb, i)
		}
	}
	return nil
}

// Redacted returns a loggable rendition of the command with credential
// arguments masked.
func (c Command) Redacted() string {
	if c.verb == "PASSWORD" || c.verb == "USERNAME" {
		return c.verb + " ****"
	}
	return strings.Join(c.Tokens(), " ")
}

// EncodeCommand validates the command and encodes it to one wire line.
func EncodeCommand(c Command) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return EncodeLine(c.Tokens())
}

// ListUPS queries the list of UPS devices known to the daemon.
func ListUPS() Command {
	return Command{verb: "LIST", args: []string{"UPS"}}
}

// ListVars queries all variables of a device.
func ListVars(ups string) Command {
	return Command{verb: "LIST", args: []string{"VAR", ups}}
}

// ListRW queries the mutable variables of a device.
func ListRW(ups string) Command {
	return Command{verb: "LIST", args: []string{"RW", ups}}
}

// ListClients queries the addresses of clients connected to a device.
func ListClients(ups string) Command {
	return Command{verb: "LIST", args: []string{"CLIENT", ups}}
}

// ListCommands queries the instant commands a device supports.
func ListCommands(ups string) Command {
	return Command{verb: "LIST", args: []string{"CMD", ups}}
}

// ListEnum queries the possible values of an enumerated variable.
func ListEnum(ups, name string) Command {
	return Command{verb: "LIST", args: []string{"ENUM", ups, name}}
}

// ListRange queries the valid ranges of a numeric variable.
func ListRange(ups, name string) Command {
	return Command{verb: "LIST", args: []string{"RANGE", ups, name}}
}

// GetVar queries the value of one variable.
func GetVar(ups, name string) Command {
	return Command{verb: "GET", args: []string{"VAR", ups, name}}
}

// GetDesc queries the description of one variable.
func GetDesc(ups, name string) Command {
	return Command{verb: "GET", args: []string{"DESC", ups, name}}
}

// GetType queries the type flags of one variable.
func GetType(ups, name string) Command {
	return Command{verb: "GET", args: []string{"TYPE", ups, name}}
}

// GetUPSDesc queries the description of a device.
func GetUPSDesc(ups string) Command {
	return Command{verb: "GET", args: []string{"UPSDESC", ups}}
}

// GetCmdDesc queries the description of an instant command.
func GetCmdDesc(ups, name string) Command {
	return Command{verb: "GET", args: []string{"CMDDESC", ups, name}}
}

// GetNumLogins queries the number of clients logged into a device.
func GetNumLogins(ups string) Command {
	return Command{verb: "GET", args: []string{"NUMLOGINS", ups}}
}

// Username passes the login username.
func Username(user string) Command {
	return Command{verb: "USERNAME", args: []string{user}}
}

// Password passes the login password.
func Password(pass string) Command {
	return Command{verb: "PASSWORD", args: []string{pass}}
}

// StartTLS asks the daemon to upgrade the connection to TLS.
func StartTLS() Command {
	return Command{verb: "STARTTLS"}
}

// NetworkVersion queries the network protocol version.
func NetworkVersion() Command {
	return Command{verb: "NETVER"}
}

// Version queries the daemon version string.
func Version() Command {
	return Command{verb: "VER"}
}

// InstCmd runs an instant command on a device, with an optional extra
// parameter.
func InstCmd(ups, cmd string, extra ...string) Command {
	args := append([]string{ups, cmd}, extra...)
	return Command{verb: "INSTCMD", args: args}
}

// Logout gracefully shuts down the connection.
func Logout() Command {
	return Command{verb: "LOGOUT"}
}
