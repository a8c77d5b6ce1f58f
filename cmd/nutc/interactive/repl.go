// Package interactive provides the interactive command loop for nutc.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nut-protocol/nut-go/pkg/client"
)

// REPL drives an interactive session against one daemon.
type REPL struct {
	session *client.Session
	rl      *readline.Instance

	// defaultUPS is prepended to commands that omit the device name.
	defaultUPS string
}

// New creates the interactive handler. defaultUPS may be empty; commands
// then require an explicit device argument.
func New(session *client.Session, defaultUPS string) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nutc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &REPL{session: session, rl: rl, defaultUPS: defaultUPS}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (r *REPL) Stdout() io.Writer {
	return r.rl.Stdout()
}

// Run reads and executes commands until quit, EOF or context cancellation.
func (r *REPL) Run(ctx context.Context) {
	defer r.rl.Close()

	r.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		input, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			r.printHelp()

		case "list", "ls":
			r.cmdList(ctx)

		case "vars":
			r.cmdVars(ctx, args, false)

		case "rw":
			r.cmdVars(ctx, args, true)

		case "get":
			r.cmdGet(ctx, args)

		case "desc":
			r.cmdDesc(ctx, args)

		case "type":
			r.cmdType(ctx, args)

		case "cmds":
			r.cmdCommands(ctx, args)

		case "instcmd":
			r.cmdInstCmd(ctx, args)

		case "enum":
			r.cmdEnum(ctx, args)

		case "range":
			r.cmdRange(ctx, args)

		case "clients":
			r.cmdClients(ctx, args)

		case "logins":
			r.cmdLogins(ctx, args)

		case "login":
			r.cmdLogin(ctx, args)

		case "ver":
			r.cmdVersion(ctx)

		case "quit", "exit", "q":
			return

		default:
			fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
		}

		if r.session.State() == client.StateClosed {
			fmt.Println("Session closed.")
			return
		}
	}
}

func (r *REPL) printHelp() {
	fmt.Print(`Commands:
  list                    List devices with descriptions
  vars [ups]              Print all variables of a device
  rw [ups]                Print the writable variables of a device
  get [ups] <variable>    Print one variable value
  desc [ups] <variable>   Print a variable description
  type [ups] <variable>   Print the type flags of a variable
  enum [ups] <variable>   Print the allowed values of an enumerated variable
  range [ups] <variable>  Print the valid ranges of a numeric variable
  cmds [ups]              List instant commands
  instcmd [ups] <cmd>     Run an instant command
  clients [ups]           List clients attached to a device
  logins [ups]            Print the number of clients logged in
  login <user> <pass>     Authenticate
  ver                     Print daemon and protocol versions
  quit                    Exit
`)
}

// resolveUPS interprets an optional leading device argument, falling back
// to the session default. want is the number of arguments after the device.
func (r *REPL) resolveUPS(args []string, want int) (string, []string, bool) {
	if len(args) == want+1 {
		return args[0], args[1:], true
	}
	if len(args) == want && r.defaultUPS != "" {
		return r.defaultUPS, args, true
	}
	fmt.Println("Missing device name (no default set).")
	return "", nil, false
}

func (r *REPL) cmdList(ctx context.Context) {
	devices, err := r.session.ListDevices(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, device := range devices {
		fmt.Printf("%s: %s\n", device.Name, device.Description)
	}
}

func (r *REPL) cmdVars(ctx context.Context, args []string, mutableOnly bool) {
	ups, _, ok := r.resolveUPS(args, 0)
	if !ok {
		return
	}
	var (
		vars []client.Variable
		err  error
	)
	if mutableOnly {
		vars, err = r.session.ListMutableVariables(ctx, ups)
	} else {
		vars, err = r.session.ListVariables(ctx, ups)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, v := range vars {
		fmt.Printf("%s: %s\n", v.Name, v.Value)
	}
}

func (r *REPL) cmdGet(ctx context.Context, args []string) {
	ups, rest, ok := r.resolveUPS(args, 1)
	if !ok {
		return
	}
	v, err := r.session.GetVariable(ctx, ups, rest[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(v.Value)
}

func (r *REPL) cmdDesc(ctx context.Context, args []string) {
	ups, rest, ok := r.resolveUPS(args, 1)
	if !ok {
		return
	}
	desc, err := r.session.GetVariableDescription(ctx, ups, rest[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(desc)
}

func (r *REPL) cmdType(ctx context.Context, args []string) {
	ups, rest, ok := r.resolveUPS(args, 1)
	if !ok {
		return
	}
	flags, err := r.session.GetVariableType(ctx, ups, rest[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(strings.Join(flags, " "))
}

func (r *REPL) cmdCommands(ctx context.Context, args []string) {
	ups, _, ok := r.resolveUPS(args, 0)
	if !ok {
		return
	}
	cmds, err := r.session.ListCommands(ctx, ups)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, cmd := range cmds {
		desc, err := r.session.GetCommandDescription(ctx, ups, cmd)
		if err != nil {
			fmt.Println(cmd)
			continue
		}
		fmt.Printf("%s: %s\n", cmd, desc)
	}
}

func (r *REPL) cmdInstCmd(ctx context.Context, args []string) {
	ups, rest, ok := r.resolveUPS(args, 1)
	if !ok {
		return
	}
	if err := r.session.RunCommand(ctx, ups, rest[0]); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (r *REPL) cmdEnum(ctx context.Context, args []string) {
	ups, rest, ok := r.resolveUPS(args, 1)
	if !ok {
		return
	}
	values, err := r.session.ListEnumValues(ctx, ups, rest[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, value := range values {
		fmt.Println(value)
	}
}

func (r *REPL) cmdRange(ctx context.Context, args []string) {
	ups, rest, ok := r.resolveUPS(args, 1)
	if !ok {
		return
	}
	ranges, err := r.session.ListRanges(ctx, ups, rest[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, rng := range ranges {
		fmt.Println(rng)
	}
}

func (r *REPL) cmdClients(ctx context.Context, args []string) {
	ups, _, ok := r.resolveUPS(args, 0)
	if !ok {
		return
	}
	clients, err := r.session.ListClients(ctx, ups)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, c := range clients {
		fmt.Println(c.Address)
	}
}

func (r *REPL) cmdLogins(ctx context.Context, args []string) {
	ups, _, ok := r.resolveUPS(args, 0)
	if !ok {
		return
	}
	n, err := r.session.GetNumLogins(ctx, ups)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(n)
}

func (r *REPL) cmdLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: login <user> <pass>")
		return
	}
	if err := r.session.Authenticate(ctx, args[0], args[1]); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Authenticated.")
}

func (r *REPL) cmdVersion(ctx context.Context) {
	banner, err := r.session.ServerVersion(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	netver, err := r.session.NetworkVersion(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%s\nnetwork protocol %s\n", banner, netver)
}
