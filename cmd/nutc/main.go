// Command nutc is a command-line client for upsd, the Network UPS Tools
// daemon.
//
// This command demonstrates the full client library:
//   - CLI argument parsing with "[ups][@host[:port]]" targets
//   - Configuration file support
//   - TLS-upgraded and authenticated sessions
//   - mDNS discovery of daemons on the local network
//   - Interactive command interface
//   - Protocol tracing to a binary event log
//
// Usage:
//
//	nutc [flags] [ups[@host[:port]]] [variable]
//
// Flags:
//
//	-config string      Configuration file path
//	-l                  List device names on the daemon
//	-L                  List devices with their descriptions
//	-c                  List clients attached to the device
//	-cmds               List instant commands the device supports
//	-instcmd string     Run an instant command on the device
//	-username string    Login username
//	-password string    Login password
//	-tls string         TLS mode: off, strict, insecure (default "off")
//	-timeout duration   Network operation timeout (default 5s)
//	-server-version     Print the daemon version banner
//	-discover           Browse the local network for daemons
//	-interactive        Enable interactive command mode
//	-debug              Print protocol lines to stderr
//	-trace-file string  Append protocol events to a binary trace file
//
// Examples:
//
//	# Print every variable of ups0 on localhost
//	nutc ups0
//
//	# Print one variable from a remote daemon
//	nutc ups0@nas.local:3493 battery.charge
//
//	# List devices with descriptions
//	nutc -L nas.local:3493
//
//	# Authenticated instant command over TLS
//	nutc -tls insecure -username admin -password secret -instcmd test.battery.start ups0
//
//	# Find daemons announcing themselves via mDNS
//	nutc -discover
//
//	# Open an interactive session
//	nutc -interactive ups0@nas.local
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nut-protocol/nut-go/cmd/nutc/interactive"
	"github.com/nut-protocol/nut-go/pkg/client"
	"github.com/nut-protocol/nut-go/pkg/config"
	"github.com/nut-protocol/nut-go/pkg/discovery"
	"github.com/nut-protocol/nut-go/pkg/log"
)

// Options holds the parsed command line.
type Options struct {
	ConfigFile string

	ListNames     bool
	ListFull      bool
	ListClients   bool
	ListCommands  bool
	InstCmd       string
	ServerVersion bool

	Username string
	Password string
	TLSMode  string
	Timeout  time.Duration

	Discover    bool
	Interactive bool
	Debug       bool
	TraceFile   string
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	flag.BoolVar(&opts.ListNames, "l", false, "List device names on the daemon")
	flag.BoolVar(&opts.ListFull, "L", false, "List devices with their descriptions")
	flag.BoolVar(&opts.ListClients, "c", false, "List clients attached to the device")
	flag.BoolVar(&opts.ListCommands, "cmds", false, "List instant commands the device supports")
	flag.StringVar(&opts.InstCmd, "instcmd", "", "Run an instant command on the device")
	flag.BoolVar(&opts.ServerVersion, "server-version", false, "Print the daemon version banner")
	flag.StringVar(&opts.Username, "username", "", "Login username")
	flag.StringVar(&opts.Password, "password", "", "Login password")
	flag.StringVar(&opts.TLSMode, "tls", "off", "TLS mode: off, strict, insecure")
	flag.DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "Network operation timeout")
	flag.BoolVar(&opts.Discover, "discover", false, "Browse the local network for daemons")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Enable interactive command mode")
	flag.BoolVar(&opts.Debug, "debug", false, "Print protocol lines to stderr")
	flag.StringVar(&opts.TraceFile, "trace-file", "", "Append protocol events to a binary trace file")
}

func main() {
	flag.Parse()

	if opts.Discover {
		if err := runDiscover(); err != nil {
			stdlog.Fatalf("Discovery failed: %v", err)
		}
		return
	}

	target, err := config.ParseTarget(flag.Arg(0))
	if err != nil {
		stdlog.Fatalf("Invalid target %q: %v", flag.Arg(0), err)
	}

	cfg, err := buildConfig(target)
	if err != nil {
		stdlog.Fatalf("Configuration error: %v", err)
	}

	logger, cleanup, err := buildLogger()
	if err != nil {
		stdlog.Fatalf("Trace setup failed: %v", err)
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := client.Connect(ctx, cfg, logger)
	if err != nil {
		stdlog.Fatalf("Connection to %s failed: %v", cfg.Address(), err)
	}
	defer session.Close()

	if opts.Interactive {
		repl, err := interactive.New(session, target.UPS)
		if err != nil {
			stdlog.Fatalf("Interactive mode failed: %v", err)
		}
		repl.Run(ctx)
		return
	}

	if err := runCommand(ctx, session, target); err != nil {
		stdlog.Fatalf("%v", err)
	}
}

// buildConfig merges the config file, target and flags; later sources win.
func buildConfig(target config.Target) (config.Config, error) {
	cfg := config.Config{}

	if opts.ConfigFile != "" {
		loaded, err := config.LoadFile(opts.ConfigFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if target.Host != config.DefaultHost || cfg.Host == "" {
		cfg.Host = target.Host
	}
	if target.Port != config.DefaultPort || cfg.Port == 0 {
		cfg.Port = target.Port
	}

	if opts.Username != "" || opts.Password != "" {
		cfg.Auth = &config.Auth{Username: opts.Username, Password: opts.Password}
	}
	if opts.Timeout != config.DefaultTimeout {
		cfg.Timeout = opts.Timeout
	}

	switch opts.TLSMode {
	case "off":
	case "strict":
		cfg.TLS = config.TLSStrict
	case "insecure":
		cfg.TLS = config.TLSInsecure
	default:
		return config.Config{}, fmt.Errorf("unknown tls mode %q", opts.TLSMode)
	}

	return cfg.WithDefaults(), nil
}

// buildLogger assembles the protocol trace pipeline from the flags.
func buildLogger() (log.Logger, func(), error) {
	var loggers []log.Logger
	cleanup := func() {}

	if opts.Debug {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}
	if opts.TraceFile != "" {
		fileLogger, err := log.NewFileLogger(opts.TraceFile)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fileLogger)
		cleanup = func() { fileLogger.Close() }
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, cleanup, nil
	case 1:
		return loggers[0], cleanup, nil
	default:
		return log.NewMultiLogger(loggers...), cleanup, nil
	}
}

func runDiscover() error {
	fmt.Println("Browsing for upsd instances (10s)...")

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	defer browser.Stop()

	servers, err := browser.FindAll(context.Background())
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Println("No daemons found.")
		return nil
	}
	for _, server := range servers {
		fmt.Printf("%s\t%s\n", server.Instance, server.Address())
	}
	return nil
}
