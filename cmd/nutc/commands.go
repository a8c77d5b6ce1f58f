package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/nut-protocol/nut-go/pkg/client"
	"github.com/nut-protocol/nut-go/pkg/config"
)

// runCommand dispatches the one-shot (non-interactive) mode selected by the
// flags: device listings, a single variable read, or an instant command.
func runCommand(ctx context.Context, session *client.Session, target config.Target) error {
	switch {
	case opts.ServerVersion:
		return printServerVersion(ctx, session)

	case opts.ListNames, opts.ListFull:
		return printDevices(ctx, session, opts.ListFull)

	case opts.ListClients:
		if target.UPS == "" {
			return fmt.Errorf("listing clients requires a device name")
		}
		return printClients(ctx, session, target.UPS)

	case opts.ListCommands:
		if target.UPS == "" {
			return fmt.Errorf("listing commands requires a device name")
		}
		return printCommands(ctx, session, target.UPS)

	case opts.InstCmd != "":
		if target.UPS == "" {
			return fmt.Errorf("running a command requires a device name")
		}
		if err := session.RunCommand(ctx, target.UPS, opts.InstCmd); err != nil {
			return fmt.Errorf("instcmd %s: %w", opts.InstCmd, err)
		}
		fmt.Println("OK")
		return nil

	case target.UPS == "":
		return fmt.Errorf("no device given; use -l to list devices")

	case flag.Arg(1) != "":
		return printVariable(ctx, session, target.UPS, flag.Arg(1))

	default:
		return printAllVariables(ctx, session, target.UPS)
	}
}

func printServerVersion(ctx context.Context, session *client.Session) error {
	banner, err := session.ServerVersion(ctx)
	if err != nil {
		return err
	}
	netver, err := session.NetworkVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Println(banner)
	fmt.Printf("network protocol %s\n", netver)
	return nil
}

func printDevices(ctx context.Context, session *client.Session, full bool) error {
	devices, err := session.ListDevices(ctx)
	if err != nil {
		return err
	}
	for _, device := range devices {
		if full {
			fmt.Printf("%s: %s\n", device.Name, device.Description)
		} else {
			fmt.Println(device.Name)
		}
	}
	return nil
}

func printClients(ctx context.Context, session *client.Session, ups string) error {
	clients, err := session.ListClients(ctx, ups)
	if err != nil {
		return err
	}
	for _, c := range clients {
		fmt.Println(c.Address)
	}
	return nil
}

func printCommands(ctx context.Context, session *client.Session, ups string) error {
	cmds, err := session.ListCommands(ctx, ups)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		fmt.Println(cmd)
	}
	return nil
}

func printVariable(ctx context.Context, session *client.Session, ups, name string) error {
	v, err := session.GetVariable(ctx, ups, name)
	if err != nil {
		return err
	}
	fmt.Println(v.Value)
	return nil
}

func printAllVariables(ctx context.Context, session *client.Session, ups string) error {
	vars, err := session.ListVariables(ctx, ups)
	if err != nil {
		return err
	}
	for _, v := range vars {
		fmt.Printf("%s: %s\n", v.Name, v.Value)
	}
	return nil
}
