package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nut-protocol/nut-go/pkg/config"
	"github.com/nut-protocol/nut-go/pkg/log"
	"github.com/nut-protocol/nut-go/pkg/transport"
	"github.com/nut-protocol/nut-go/pkg/wire"
)

// State is the lifecycle phase of a session.
type State uint8

const (
	// StateConnected means the transport is up but no credentials have been
	// accepted yet.
	StateConnected State = iota

	// StateAuthenticated means the daemon accepted USERNAME and PASSWORD.
	StateAuthenticated

	// StateClosed means the session is finished, either by Close or because
	// a protocol violation poisoned the connection.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Session is a stateful conversation with one upsd instance.
//
// Daemon-reported failures (unknown device, access denied, ...) come back as
// *wire.DaemonError and leave the session usable. Failures that make the
// stream position untrustworthy - framing mismatches, TLS upgrade errors,
// transport breakage - close the session.
type Session struct {
	conn   transport.LineConn
	cfg    config.Config
	logger log.Logger
	connID string

	state         State
	tlsActive     bool
	authenticated bool
}

// Connect dials the daemon described by cfg and runs the configured setup:
// the TLS upgrade when cfg.TLS asks for one, then authentication when
// cfg.Auth is set. On any setup failure the connection is closed.
func Connect(ctx context.Context, cfg config.Config, logger log.Logger) (*Session, error) {
	cfg = cfg.WithDefaults()

	conn, err := transport.DialContext(ctx, cfg.Address(), transport.Config{
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	s := NewSession(conn, cfg, logger)

	if cfg.TLS != config.TLSOff {
		tlsCfg, err := transport.NewUpgradeTLSConfig(transport.TLSSettings{
			ServerName:         cfg.TLSServerName(),
			RootCAs:            cfg.RootCAs,
			InsecureSkipVerify: cfg.TLS == config.TLSInsecure,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := s.StartTLS(ctx, tlsCfg); err != nil {
			s.Close()
			return nil, err
		}
	}

	if cfg.Auth != nil {
		if err := s.Authenticate(ctx, cfg.Auth.Username, cfg.Auth.Password); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewSession wraps an established line connection. A nil logger disables
// protocol tracing.
func NewSession(conn transport.LineConn, cfg config.Config, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Session{
		conn:   conn,
		cfg:    cfg.WithDefaults(),
		logger: logger,
		connID: uuid.New().String(),
		state:  StateConnected,
	}
}

// ConnectionID returns the unique identifier of this session, used to
// correlate trace events.
func (s *Session) ConnectionID() string { return s.connID }

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// TLSActive reports whether the stream has been upgraded.
func (s *Session) TLSActive() bool { return s.tlsActive }

// Authenticated reports whether the daemon accepted credentials.
func (s *Session) Authenticated() bool { return s.authenticated }

// StartTLS upgrades the connection in place: it sends STARTTLS, consumes
// the plaintext acknowledgement, and runs the TLS handshake on the same
// stream. Any failure past the initial daemon refusal closes the session.
//
// A daemon without TLS configured replies FEATURE-NOT-CONFIGURED; that is
// reported as ErrTLSNotSupported and also closes the session, since callers
// asking for TLS must not silently continue in plaintext.
func (s *Session) StartTLS(ctx context.Context, tlsCfg *tls.Config) error {
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.tlsActive {
		return transport.ErrTLSAlreadyActive
	}

	resp, err := s.roundTrip(ctx, wire.StartTLS())
	if err != nil {
		var daemonErr *wire.DaemonError
		if errors.As(err, &daemonErr) && daemonErr.Kind == wire.KindFeatureNotConfigured {
			err = fmt.Errorf("%w: %w", ErrTLSNotSupported, err)
		}
		s.poison("tls refused")
		return err
	}
	if resp.Kind != wire.KindOK {
		s.poison("unexpected starttls reply")
		return fmt.Errorf("%w: %s to STARTTLS", ErrUnexpectedResponse, resp.Kind)
	}

	if err := s.conn.StartTLS(ctx, tlsCfg); err != nil {
		s.poison("tls handshake failed")
		return err
	}

	s.tlsActive = true
	s.logState(StateConnected, StateConnected, "tls established")
	return nil
}

// Authenticate sends USERNAME then PASSWORD. A daemon rejection (bad
// password, username required, ...) comes back as *wire.DaemonError and
// leaves the session connected; transport failures close it.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	if s.state == StateClosed {
		return ErrSessionClosed
	}

	if err := s.expectOK(ctx, wire.Username(username)); err != nil {
		return err
	}
	if err := s.expectOK(ctx, wire.Password(password)); err != nil {
		return err
	}

	s.authenticated = true
	s.setState(StateAuthenticated, "credentials accepted")
	return nil
}

// ListDevices queries the UPS devices the daemon serves.
func (s *Session) ListDevices(ctx context.Context) ([]Device, error) {
	rows, err := s.readList(ctx, wire.ListUPS(), 2)
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, Device{Name: row[0], Description: row[1]})
	}
	return devices, nil
}

// ListVariables queries every variable of a device.
func (s *Session) ListVariables(ctx context.Context, ups string) ([]Variable, error) {
	return s.listVariables(ctx, wire.ListVars(ups))
}

// ListMutableVariables queries the variables of a device that can be set.
func (s *Session) ListMutableVariables(ctx context.Context, ups string) ([]Variable, error) {
	return s.listVariables(ctx, wire.ListRW(ups))
}

func (s *Session) listVariables(ctx context.Context, cmd wire.Command) ([]Variable, error) {
	rows, err := s.readList(ctx, cmd, 2)
	if err != nil {
		return nil, err
	}
	vars := make([]Variable, 0, len(rows))
	for _, row := range rows {
		vars = append(vars, Variable{Name: row[0], Value: row[1]})
	}
	return vars, nil
}

// ListClients queries the clients attached to a device.
func (s *Session) ListClients(ctx context.Context, ups string) ([]Client, error) {
	rows, err := s.readList(ctx, wire.ListClients(ups), 1)
	if err != nil {
		return nil, err
	}
	clients := make([]Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, Client{Address: row[0]})
	}
	return clients, nil
}

// ListCommands queries the instant commands a device supports.
func (s *Session) ListCommands(ctx context.Context, ups string) ([]string, error) {
	rows, err := s.readList(ctx, wire.ListCommands(ups), 1)
	if err != nil {
		return nil, err
	}
	cmds := make([]string, 0, len(rows))
	for _, row := range rows {
		cmds = append(cmds, row[0])
	}
	return cmds, nil
}

// ListEnumValues queries the possible values of an enumerated variable.
func (s *Session) ListEnumValues(ctx context.Context, ups, name string) ([]string, error) {
	rows, err := s.readList(ctx, wire.ListEnum(ups, name), 1)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[0])
	}
	return values, nil
}

// ListRanges queries the valid intervals of a numeric variable.
func (s *Session) ListRanges(ctx context.Context, ups, name string) ([]VariableRange, error) {
	rows, err := s.readList(ctx, wire.ListRange(ups, name), 2)
	if err != nil {
		return nil, err
	}
	ranges := make([]VariableRange, 0, len(rows))
	for _, row := range rows {
		ranges = append(ranges, VariableRange{Min: row[0], Max: row[1]})
	}
	return ranges, nil
}

// GetVariable queries the value of one variable.
func (s *Session) GetVariable(ctx context.Context, ups, name string) (Variable, error) {
	fields, err := s.getData(ctx, wire.GetVar(ups, name), "VAR", []string{ups, name}, 1)
	if err != nil {
		return Variable{}, err
	}
	return Variable{Name: name, Value: fields[0]}, nil
}

// GetVariableDescription queries the description of one variable.
func (s *Session) GetVariableDescription(ctx context.Context, ups, name string) (string, error) {
	fields, err := s.getData(ctx, wire.GetDesc(ups, name), "DESC", []string{ups, name}, 1)
	if err != nil {
		return "", err
	}
	return fields[0], nil
}

// GetVariableType queries the type flags of one variable, such as "RW",
// "ENUM" or "STRING:64".
func (s *Session) GetVariableType(ctx context.Context, ups, name string) ([]string, error) {
	resp, err := s.roundTrip(ctx, wire.GetType(ups, name))
	if err != nil {
		return nil, err
	}
	// TYPE has a variable number of flags, possibly none.
	if resp.Kind != wire.KindData || resp.Verb != "TYPE" ||
		len(resp.Fields) < 2 || resp.Fields[0] != ups || resp.Fields[1] != name {
		s.poison("mismatched TYPE reply")
		return nil, fmt.Errorf("%w: to GET TYPE", ErrUnexpectedResponse)
	}
	return resp.Fields[2:], nil
}

// GetDeviceDescription queries the description of a device.
func (s *Session) GetDeviceDescription(ctx context.Context, ups string) (string, error) {
	fields, err := s.getData(ctx, wire.GetUPSDesc(ups), "UPSDESC", []string{ups}, 1)
	if err != nil {
		return "", err
	}
	return fields[0], nil
}

// GetCommandDescription queries the description of an instant command.
func (s *Session) GetCommandDescription(ctx context.Context, ups, cmd string) (string, error) {
	fields, err := s.getData(ctx, wire.GetCmdDesc(ups, cmd), "CMDDESC", []string{ups, cmd}, 1)
	if err != nil {
		return "", err
	}
	return fields[0], nil
}

// GetNumLogins queries how many clients are logged into a device.
func (s *Session) GetNumLogins(ctx context.Context, ups string) (int, error) {
	fields, err := s.getData(ctx, wire.GetNumLogins(ups), "NUMLOGINS", []string{ups}, 1)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: NUMLOGINS %q is not a number", ErrUnexpectedResponse, fields[0])
	}
	return n, nil
}

// RunCommand executes an instant command on a device, with an optional
// extra parameter.
func (s *Session) RunCommand(ctx context.Context, ups, cmd string, extra ...string) error {
	return s.expectOK(ctx, wire.InstCmd(ups, cmd, extra...))
}

// NetworkVersion queries the network protocol version, such as "1.3".
func (s *Session) NetworkVersion(ctx context.Context) (string, error) {
	return s.readBareLine(ctx, wire.NetworkVersion())
}

// ServerVersion queries the daemon version banner.
func (s *Session) ServerVersion(ctx context.Context) (string, error) {
	return s.readBareLine(ctx, wire.Version())
}

// Close shuts the session down: a best-effort LOGOUT, then the transport
// close. Safe to call multiple times.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}

	// The goodbye is a courtesy; a dead peer must not block shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if line, err := wire.EncodeCommand(wire.Logout()); err == nil {
		if err := s.conn.WriteLine(ctx, line); err == nil {
			s.logLine(log.DirectionOut, "LOGOUT", false)
			if reply, err := s.conn.ReadLine(ctx); err == nil {
				s.logLine(log.DirectionIn, reply, false)
			}
		}
	}

	s.setState(StateClosed, "logout")
	return s.conn.Close()
}

// send validates, encodes, traces and writes one command.
func (s *Session) send(ctx context.Context, cmd wire.Command) error {
	line, err := wire.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := s.conn.WriteLine(ctx, line); err != nil {
		s.poison("write failed")
		return err
	}
	isCredential := cmd.Name() == "USERNAME" || cmd.Name() == "PASSWORD"
	s.logLine(log.DirectionOut, cmd.Redacted(), isCredential)
	return nil
}

// recv reads, traces and classifies one response line.
func (s *Session) recv(ctx context.Context) (wire.Response, error) {
	raw, err := s.conn.ReadLine(ctx)
	if err != nil {
		s.poison("read failed")
		return wire.Response{}, err
	}
	s.logLine(log.DirectionIn, raw, false)

	tokens, err := wire.DecodeLine(raw)
	if err != nil {
		s.poison("undecodable line")
		return wire.Response{}, err
	}
	resp, err := wire.Classify(tokens)
	if err != nil {
		s.poison("unclassifiable line")
		return wire.Response{}, err
	}
	return resp, nil
}

// roundTrip sends one command and reads one reply. A daemon ERR becomes a
// *wire.DaemonError; the session stays usable after it.
func (s *Session) roundTrip(ctx context.Context, cmd wire.Command) (wire.Response, error) {
	if s.state == StateClosed {
		return wire.Response{}, ErrSessionClosed
	}
	if err := s.send(ctx, cmd); err != nil {
		return wire.Response{}, err
	}
	resp, err := s.recv(ctx)
	if err != nil {
		return wire.Response{}, err
	}
	if resp.Kind == wire.KindError {
		return wire.Response{}, resp.Err
	}
	return resp, nil
}

// expectOK round-trips a command whose only success reply is OK.
func (s *Session) expectOK(ctx context.Context, cmd wire.Command) error {
	resp, err := s.roundTrip(ctx, cmd)
	if err != nil {
		return err
	}
	if resp.Kind != wire.KindOK {
		s.poison("expected OK")
		return fmt.Errorf("%w: %s to %s", ErrUnexpectedResponse, resp.Kind, cmd.Name())
	}
	return nil
}

// getData round-trips a GET and validates the echoed reply shape: the verb
// is the subcommand, the leading fields echo the request arguments, and
// exactly payloadLen payload fields follow.
func (s *Session) getData(ctx context.Context, cmd wire.Command, verb string, echo []string, payloadLen int) ([]string, error) {
	resp, err := s.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Kind != wire.KindData || resp.Verb != verb || len(resp.Fields) != len(echo)+payloadLen {
		s.poison("mismatched " + verb + " reply")
		return nil, fmt.Errorf("%w: to GET %s", ErrUnexpectedResponse, verb)
	}
	for i, want := range echo {
		if resp.Fields[i] != want {
			s.poison("mismatched " + verb + " reply")
			return nil, fmt.Errorf("%w: GET %s echoed %q, want %q", ErrProtocolMismatch, verb, resp.Fields[i], want)
		}
	}
	return resp.Fields[len(echo):], nil
}

// readBareLine round-trips a command whose reply is one unstructured line,
// such as a version banner.
func (s *Session) readBareLine(ctx context.Context, cmd wire.Command) (string, error) {
	if s.state == StateClosed {
		return "", ErrSessionClosed
	}
	if err := s.send(ctx, cmd); err != nil {
		return "", err
	}
	raw, err := s.conn.ReadLine(ctx)
	if err != nil {
		s.poison("read failed")
		return "", err
	}
	s.logLine(log.DirectionIn, raw, false)

	// The daemon may still answer ERR, e.g. for an unknown verb.
	if tokens, err := wire.DecodeLine(raw); err == nil {
		if resp, err := wire.Classify(tokens); err == nil && resp.Kind == wire.KindError {
			return "", resp.Err
		}
	}
	return raw, nil
}

// readList sends a LIST command and collects its rows. The BEGIN and END
// markers must echo the request subject and context arguments, and every
// row must repeat them; any mismatch closes the session. rowLen is the
// number of payload fields per row after the echoed context.
func (s *Session) readList(ctx context.Context, cmd wire.Command, rowLen int) ([][]string, error) {
	subject := cmd.Args()[0]
	echo := cmd.Args()[1:]

	resp, err := s.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := s.checkListMarker(resp, wire.KindListBegin, subject, echo); err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		resp, err := s.recv(ctx)
		if err != nil {
			return nil, err
		}

		switch resp.Kind {
		case wire.KindListEnd:
			if err := s.checkListMarker(resp, wire.KindListEnd, subject, echo); err != nil {
				return nil, err
			}
			return rows, nil

		case wire.KindData:
			if resp.Verb != subject || len(resp.Fields) != len(echo)+rowLen {
				s.poison("malformed list row")
				return nil, fmt.Errorf("%w: %s row inside LIST %s", ErrProtocolMismatch, resp.Verb, subject)
			}
			for i, want := range echo {
				if resp.Fields[i] != want {
					s.poison("malformed list row")
					return nil, fmt.Errorf("%w: row context %q, want %q", ErrProtocolMismatch, resp.Fields[i], want)
				}
			}
			rows = append(rows, resp.Fields[len(echo):])

		case wire.KindError:
			// An error mid-list leaves an unknown number of rows unread.
			s.poison("error inside list")
			return nil, resp.Err

		default:
			s.poison("unexpected line inside list")
			return nil, fmt.Errorf("%w: %s inside LIST %s", ErrProtocolMismatch, resp.Kind, subject)
		}
	}
}

func (s *Session) checkListMarker(resp wire.Response, kind wire.ResponseKind, subject string, echo []string) error {
	ok := resp.Kind == kind && resp.Subject == subject && len(resp.Args) == len(echo)
	if ok {
		for i, want := range echo {
			if resp.Args[i] != want {
				ok = false
				break
			}
		}
	}
	if !ok {
		s.poison("mismatched list marker")
		return fmt.Errorf("%w: %s LIST %s", ErrProtocolMismatch, kind, subject)
	}
	return nil
}

// poison closes the session because the stream position is no longer
// trustworthy.
func (s *Session) poison(reason string) {
	if s.state == StateClosed {
		return
	}
	s.setState(StateClosed, reason)
	s.conn.Close()
}

func (s *Session) setState(next State, reason string) {
	prev := s.state
	s.state = next
	s.logState(prev, next, reason)
}

func (s *Session) logLine(direction log.Direction, text string, redacted bool) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Direction:    direction,
		Category:     log.CategoryLine,
		RemoteAddr:   s.remoteAddr(),
		Line:         &log.LineEvent{Text: text, Redacted: redacted},
	})
}

func (s *Session) logState(prev, next State, reason string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Category:     log.CategoryState,
		RemoteAddr:   s.remoteAddr(),
		StateChange:  &log.StateChangeEvent{OldState: prev.String(), NewState: next.String(), Reason: reason},
	})
}

func (s *Session) remoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
