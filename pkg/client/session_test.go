package client

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nut-protocol/nut-go/pkg/config"
	"github.com/nut-protocol/nut-go/pkg/wire"
)

// scriptConn is a LineConn double fed with canned reply lines. It records
// every call so tests can assert ordering, most importantly that the
// STARTTLS acknowledgement is consumed before the TLS upgrade runs.
type scriptConn struct {
	replies []string

	written []string
	ops     []string
	closed  bool
}

func (c *scriptConn) WriteLine(_ context.Context, line string) error {
	if c.closed {
		return errors.New("write on closed scriptConn")
	}
	line = strings.TrimSuffix(line, "\n")
	c.written = append(c.written, line)
	c.ops = append(c.ops, "write "+line)
	return nil
}

func (c *scriptConn) ReadLine(_ context.Context) (string, error) {
	if c.closed {
		return "", errors.New("read on closed scriptConn")
	}
	if len(c.replies) == 0 {
		return "", io.EOF
	}
	line := c.replies[0]
	c.replies = c.replies[1:]
	c.ops = append(c.ops, "read "+line)
	return line, nil
}

func (c *scriptConn) StartTLS(_ context.Context, _ *tls.Config) error {
	c.ops = append(c.ops, "tls")
	return nil
}

func (c *scriptConn) RemoteAddr() net.Addr { return nil }

func (c *scriptConn) Close() error {
	c.closed = true
	return nil
}

func newTestSession(replies ...string) (*Session, *scriptConn) {
	conn := &scriptConn{replies: replies}
	return NewSession(conn, config.Config{}, nil), conn
}

func TestSessionListDevices(t *testing.T) {
	session, conn := newTestSession(
		"BEGIN LIST UPS",
		`UPS nutdev1 "Test UPS"`,
		`UPS nutdev2 "Rack UPS 2"`,
		"END LIST UPS",
	)

	devices, err := session.ListDevices(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Device{
		{Name: "nutdev1", Description: "Test UPS"},
		{Name: "nutdev2", Description: "Rack UPS 2"},
	}, devices)

	assert.Equal(t, []string{"LIST UPS"}, conn.written)
	assert.Equal(t, StateConnected, session.State())
}

func TestSessionListVariables(t *testing.T) {
	session, conn := newTestSession(
		"BEGIN LIST VAR nutdev1",
		"VAR nutdev1 battery.charge 100",
		`VAR nutdev1 ups.status OL`,
		"END LIST VAR nutdev1",
	)

	vars, err := session.ListVariables(context.Background(), "nutdev1")
	require.NoError(t, err)
	require.Equal(t, []Variable{
		{Name: "battery.charge", Value: "100"},
		{Name: "ups.status", Value: "OL"},
	}, vars)

	assert.Equal(t, []string{"LIST VAR nutdev1"}, conn.written)
}

func TestSessionListRanges(t *testing.T) {
	session, _ := newTestSession(
		"BEGIN LIST RANGE nutdev1 input.transfer.low",
		"RANGE nutdev1 input.transfer.low 90 100",
		"RANGE nutdev1 input.transfer.low 102 105",
		"END LIST RANGE nutdev1 input.transfer.low",
	)

	ranges, err := session.ListRanges(context.Background(), "nutdev1", "input.transfer.low")
	require.NoError(t, err)
	require.Equal(t, []VariableRange{
		{Min: "90", Max: "100"},
		{Min: "102", Max: "105"},
	}, ranges)
}

func TestSessionListEmptyIsValid(t *testing.T) {
	session, _ := newTestSession(
		"BEGIN LIST CMD nutdev1",
		"END LIST CMD nutdev1",
	)

	cmds, err := session.ListCommands(context.Background(), "nutdev1")
	require.NoError(t, err)
	assert.Empty(t, cmds)
	assert.Equal(t, StateConnected, session.State())
}

func TestSessionListMismatchedEndCloses(t *testing.T) {
	session, conn := newTestSession(
		"BEGIN LIST VAR nutdev1",
		"VAR nutdev1 battery.charge 100",
		"END LIST UPS",
	)

	_, err := session.ListVariables(context.Background(), "nutdev1")
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.Equal(t, StateClosed, session.State())
	assert.True(t, conn.closed)
}

func TestSessionListForeignRowCloses(t *testing.T) {
	session, _ := newTestSession(
		"BEGIN LIST VAR nutdev1",
		"VAR nutdev2 battery.charge 100",
		"END LIST VAR nutdev1",
	)

	_, err := session.ListVariables(context.Background(), "nutdev1")
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.Equal(t, StateClosed, session.State())
}

func TestSessionErrorInsideListCloses(t *testing.T) {
	session, _ := newTestSession(
		"BEGIN LIST VAR nutdev1",
		"VAR nutdev1 battery.charge 100",
		"ERR DATA-STALE",
	)

	_, err := session.ListVariables(context.Background(), "nutdev1")

	var daemonErr *wire.DaemonError
	require.ErrorAs(t, err, &daemonErr)
	assert.Equal(t, wire.KindDataStale, daemonErr.Kind)
	// Rows past the error are unreadable, so the session is done.
	assert.Equal(t, StateClosed, session.State())
}

func TestSessionDaemonErrorKeepsSessionUsable(t *testing.T) {
	session, _ := newTestSession(
		"ERR UNKNOWN-UPS",
		"BEGIN LIST VAR nutdev1",
		"END LIST VAR nutdev1",
	)

	_, err := session.ListVariables(context.Background(), "nosuchups")

	var daemonErr *wire.DaemonError
	require.ErrorAs(t, err, &daemonErr)
	assert.Equal(t, wire.KindUnknownUPS, daemonErr.Kind)
	require.Equal(t, StateConnected, session.State())

	// The same session serves the corrected request.
	vars, err := session.ListVariables(context.Background(), "nutdev1")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestSessionGetVariable(t *testing.T) {
	session, conn := newTestSession("VAR nutdev1 battery.charge 100")

	v, err := session.GetVariable(context.Background(), "nutdev1", "battery.charge")
	require.NoError(t, err)
	assert.Equal(t, Variable{Name: "battery.charge", Value: "100"}, v)
	assert.Equal(t, []string{"GET VAR nutdev1 battery.charge"}, conn.written)
}

func TestSessionGetVariableEchoMismatchCloses(t *testing.T) {
	session, _ := newTestSession("VAR nutdev1 ups.status OL")

	_, err := session.GetVariable(context.Background(), "nutdev1", "battery.charge")
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.Equal(t, StateClosed, session.State())
}

func TestSessionGetDescriptions(t *testing.T) {
	session, _ := newTestSession(
		`DESC nutdev1 battery.charge "Battery charge (percent of full)"`,
		`UPSDESC nutdev1 "Test UPS"`,
		`CMDDESC nutdev1 load.off "Turn off the load immediately"`,
	)
	ctx := context.Background()

	desc, err := session.GetVariableDescription(ctx, "nutdev1", "battery.charge")
	require.NoError(t, err)
	assert.Equal(t, "Battery charge (percent of full)", desc)

	desc, err = session.GetDeviceDescription(ctx, "nutdev1")
	require.NoError(t, err)
	assert.Equal(t, "Test UPS", desc)

	desc, err = session.GetCommandDescription(ctx, "nutdev1", "load.off")
	require.NoError(t, err)
	assert.Equal(t, "Turn off the load immediately", desc)
}

func TestSessionGetVariableType(t *testing.T) {
	session, _ := newTestSession("TYPE nutdev1 input.transfer.low RW RANGE")

	flags, err := session.GetVariableType(context.Background(), "nutdev1", "input.transfer.low")
	require.NoError(t, err)
	assert.Equal(t, []string{"RW", "RANGE"}, flags)
}

func TestSessionGetNumLogins(t *testing.T) {
	session, _ := newTestSession("NUMLOGINS nutdev1 2")

	n, err := session.GetNumLogins(context.Background(), "nutdev1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSessionVersions(t *testing.T) {
	session, conn := newTestSession(
		"Network UPS Tools upsd 2.8.0 - https://www.networkupstools.org/",
		"1.3",
	)
	ctx := context.Background()

	banner, err := session.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Contains(t, banner, "upsd")

	netver, err := session.NetworkVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.3", netver)

	assert.Equal(t, []string{"VER", "NETVER"}, conn.written)
}

func TestSessionRunCommand(t *testing.T) {
	session, conn := newTestSession("OK")

	err := session.RunCommand(context.Background(), "nutdev1", "test.battery.start")
	require.NoError(t, err)
	assert.Equal(t, []string{"INSTCMD nutdev1 test.battery.start"}, conn.written)
}

func TestSessionRunCommandRefused(t *testing.T) {
	session, _ := newTestSession("ERR CMD-NOT-SUPPORTED")

	err := session.RunCommand(context.Background(), "nutdev1", "nosuch.cmd")

	var daemonErr *wire.DaemonError
	require.ErrorAs(t, err, &daemonErr)
	assert.Equal(t, wire.KindCmdNotSupported, daemonErr.Kind)
	assert.Equal(t, StateConnected, session.State())
}

func TestSessionAuthenticate(t *testing.T) {
	session, conn := newTestSession("OK", "OK")

	err := session.Authenticate(context.Background(), "monuser", "secret")
	require.NoError(t, err)
	assert.True(t, session.Authenticated())
	assert.Equal(t, StateAuthenticated, session.State())
	assert.Equal(t, []string{"USERNAME monuser", "PASSWORD secret"}, conn.written)
}

func TestSessionAuthFailureStaysConnected(t *testing.T) {
	session, _ := newTestSession("OK", "ERR INVALID-PASSWORD")

	err := session.Authenticate(context.Background(), "monuser", "wrong")

	var daemonErr *wire.DaemonError
	require.ErrorAs(t, err, &daemonErr)
	assert.Equal(t, wire.KindInvalidPassword, daemonErr.Kind)

	// Rejected credentials are recoverable; the caller may retry.
	assert.Equal(t, StateConnected, session.State())
	assert.False(t, session.Authenticated())
}

func TestSessionStartTLSOrder(t *testing.T) {
	session, conn := newTestSession("OK STARTTLS")

	err := session.StartTLS(context.Background(), &tls.Config{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, session.TLSActive())

	// The plaintext acknowledgement must be fully consumed before the
	// handshake starts.
	assert.Equal(t, []string{
		"write STARTTLS",
		"read OK STARTTLS",
		"tls",
	}, conn.ops)
}

func TestSessionStartTLSNotConfigured(t *testing.T) {
	session, _ := newTestSession("ERR FEATURE-NOT-CONFIGURED")

	err := session.StartTLS(context.Background(), &tls.Config{InsecureSkipVerify: true})
	require.ErrorIs(t, err, ErrTLSNotSupported)
	assert.Equal(t, StateClosed, session.State())
}

func TestSessionClose(t *testing.T) {
	session, conn := newTestSession("OK Goodbye")

	require.NoError(t, session.Close())
	assert.Equal(t, StateClosed, session.State())
	assert.True(t, conn.closed)
	assert.Equal(t, []string{"LOGOUT"}, conn.written)

	// Idempotent.
	require.NoError(t, session.Close())
}

func TestSessionClosedOperations(t *testing.T) {
	session, _ := newTestSession("OK Goodbye")
	require.NoError(t, session.Close())

	ctx := context.Background()

	_, err := session.ListDevices(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = session.GetVariable(ctx, "nutdev1", "battery.charge")
	assert.ErrorIs(t, err, ErrSessionClosed)

	err = session.Authenticate(ctx, "monuser", "secret")
	assert.ErrorIs(t, err, ErrSessionClosed)

	err = session.StartTLS(ctx, &tls.Config{InsecureSkipVerify: true})
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = session.ServerVersion(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionQuotedValuesDecoded(t *testing.T) {
	session, _ := newTestSession(
		"BEGIN LIST VAR nutdev1",
		`VAR nutdev1 ups.mfr "Big Corp \"UPS\" Division"`,
		"END LIST VAR nutdev1",
	)

	vars, err := session.ListVariables(context.Background(), "nutdev1")
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, `Big Corp "UPS" Division`, vars[0].Value)
}
