package wire

import "fmt"

// ErrorKind identifies an ERR reply code from upsd.
type ErrorKind uint8

// Error kinds, one per ERR code the protocol defines.
const (
	// KindUnknown is the fallback for codes this client does not recognize.
	KindUnknown ErrorKind = iota
	KindAccessDenied
	KindUnknownUPS
	KindVarNotSupported
	KindCmdNotSupported
	KindInvalidArgument
	KindInstCmdFailed
	KindSetFailed
	KindReadOnly
	KindTooLong
	KindFeatureNotSupported
	KindFeatureNotConfigured
	KindAlreadySSLMode
	KindDriverNotConnected
	KindDataStale
	KindAlreadyLoggedIn
	KindInvalidPassword
	KindAlreadySetPassword
	KindInvalidUsername
	KindAlreadySetUsername
	KindUsernameRequired
	KindPasswordRequired
	KindUnknownCommand
	KindInvalidValue
)

// errorCodes maps wire codes to kinds. The zero kind is the fallback.
var errorCodes = map[string]ErrorKind{
	"ACCESS-DENIED":          KindAccessDenied,
	"UNKNOWN-UPS":            KindUnknownUPS,
	"VAR-NOT-SUPPORTED":      KindVarNotSupported,
	"CMD-NOT-SUPPORTED":      KindCmdNotSupported,
	"INVALID-ARGUMENT":       KindInvalidArgument,
	"INSTCMD-FAILED":         KindInstCmdFailed,
	"SET-FAILED":             KindSetFailed,
	"READONLY":               KindReadOnly,
	"TOO-LONG":               KindTooLong,
	"FEATURE-NOT-SUPPORTED":  KindFeatureNotSupported,
	"FEATURE-NOT-CONFIGURED": KindFeatureNotConfigured,
	"ALREADY-SSL-MODE":       KindAlreadySSLMode,
	"DRIVER-NOT-CONNECTED":   KindDriverNotConnected,
	"DATA-STALE":             KindDataStale,
	"ALREADY-LOGGED-IN":      KindAlreadyLoggedIn,
	"INVALID-PASSWORD":       KindInvalidPassword,
	"ALREADY-SET-PASSWORD":   KindAlreadySetPassword,
	"INVALID-USERNAME":       KindInvalidUsername,
	"ALREADY-SET-USERNAME":   KindAlreadySetUsername,
	"USERNAME-REQUIRED":      KindUsernameRequired,
	"PASSWORD-REQUIRED":      KindPasswordRequired,
	"UNKNOWN-COMMAND":        KindUnknownCommand,
	"INVALID-VALUE":          KindInvalidValue,
}

// KindFromCode maps an ERR code token to its kind.
// Unrecognized codes map to KindUnknown.
func KindFromCode(code string) ErrorKind {
	return errorCodes[code]
}

// String returns the wire code for the kind, or "UNKNOWN".
func (k ErrorKind) String() string {
	for code, kind := range errorCodes {
		if kind == k {
			return code
		}
	}
	return "UNKNOWN"
}

// DaemonError is an ERR reply from upsd, mapped to a typed kind.
// The original code token is preserved so unrecognized codes stay visible.
type DaemonError struct {
	// Kind is the typed error code, KindUnknown for unrecognized codes.
	Kind ErrorKind

	// Code is the code token exactly as received.
	Code string

	// Detail holds any extra tokens the daemon appended after the code.
	Detail string
}

// Error implements the error interface.
func (e *DaemonError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upsd error: %s %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("upsd error: %s", e.Code)
}
