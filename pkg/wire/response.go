package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Classifier errors.
var (
	// ErrEmptyResponse indicates the daemon sent a line with no tokens.
	ErrEmptyResponse = errors.New("empty response line")

	// ErrMalformedResponse indicates a line whose leading tokens violate the
	// protocol grammar, such as BEGIN without LIST.
	ErrMalformedResponse = errors.New("malformed response")
)

// ResponseKind classifies one received line.
type ResponseKind uint8

const (
	// KindOK is a successful reply ("OK", optionally with arguments such as
	// "OK STARTTLS" or "OK Goodbye").
	KindOK ResponseKind = iota

	// KindError is an ERR reply; Response.Err carries the mapped kind.
	KindError

	// KindListBegin is a "BEGIN LIST <subject> ..." marker.
	KindListBegin

	// KindListEnd is an "END LIST <subject> ..." marker.
	KindListEnd

	// KindData is any other line: a data row such as "UPS", "VAR" or
	// "CLIENT", either standalone or inside a list.
	KindData
)

// String returns a short name for the kind.
func (k ResponseKind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindError:
		return "ERR"
	case KindListBegin:
		return "BEGIN-LIST"
	case KindListEnd:
		return "END-LIST"
	case KindData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// Response is one classified line from the daemon.
type Response struct {
	// Kind classifies the line.
	Kind ResponseKind

	// Err is set for KindError.
	Err *DaemonError

	// Subject is the list subject ("UPS", "VAR", ...) for KindListBegin and
	// KindListEnd.
	Subject string

	// Args are the context arguments after the subject for KindListBegin and
	// KindListEnd, and the tokens after "OK" for KindOK.
	Args []string

	// Verb is the leading token for KindData.
	Verb string

	// Fields are the tokens after the verb for KindData.
	Fields []string
}

// Classify interprets one decoded line. It is stateless: the same tokens
// always classify the same way regardless of any surrounding list context.
func Classify(tokens []string) (Response, error) {
	if len(tokens) == 0 {
		return Response{}, ErrEmptyResponse
	}

	switch tokens[0] {
	case "OK":
		return Response{Kind: KindOK, Args: tokens[1:]}, nil

	case "ERR":
		if len(tokens) < 2 {
			return Response{}, fmt.Errorf("%w: ERR without a code", ErrMalformedResponse)
		}
		code := tokens[1]
		detail := strings.Join(tokens[2:], " ")
		return Response{
			Kind: KindError,
			Err:  &DaemonError{Kind: KindFromCode(code), Code: code, Detail: detail},
		}, nil

	case "BEGIN", "END":
		if len(tokens) < 3 || tokens[1] != "LIST" {
			return Response{}, fmt.Errorf("%w: %s without LIST subject", ErrMalformedResponse, tokens[0])
		}
		kind := KindListBegin
		if tokens[0] == "END" {
			kind = KindListEnd
		}
		return Response{Kind: kind, Subject: tokens[2], Args: tokens[3:]}, nil

	default:
		return Response{Kind: KindData, Verb: tokens[0], Fields: tokens[1:]}, nil
	}
}
