package wire

import (
	"errors"
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   Response
	}{
		{
			name:   "plain ok",
			tokens: []string{"OK"},
			want:   Response{Kind: KindOK, Args: []string{}},
		},
		{
			name:   "ok starttls",
			tokens: []string{"OK", "STARTTLS"},
			want:   Response{Kind: KindOK, Args: []string{"STARTTLS"}},
		},
		{
			name:   "ok goodbye",
			tokens: []string{"OK", "Goodbye"},
			want:   Response{Kind: KindOK, Args: []string{"Goodbye"}},
		},
		{
			name:   "list begin with context",
			tokens: []string{"BEGIN", "LIST", "VAR", "nutdev1"},
			want:   Response{Kind: KindListBegin, Subject: "VAR", Args: []string{"nutdev1"}},
		},
		{
			name:   "list end without context",
			tokens: []string{"END", "LIST", "UPS"},
			want:   Response{Kind: KindListEnd, Subject: "UPS", Args: []string{}},
		},
		{
			name:   "data row",
			tokens: []string{"UPS", "nutdev1", "Test UPS"},
			want:   Response{Kind: KindData, Verb: "UPS", Fields: []string{"nutdev1", "Test UPS"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.tokens)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if got.Kind != tt.want.Kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.want.Kind)
			}
			if got.Subject != tt.want.Subject {
				t.Errorf("Subject = %q, want %q", got.Subject, tt.want.Subject)
			}
			if got.Verb != tt.want.Verb {
				t.Errorf("Verb = %q, want %q", got.Verb, tt.want.Verb)
			}
			if len(got.Args) != len(tt.want.Args) || (len(got.Args) > 0 && !reflect.DeepEqual(got.Args, tt.want.Args)) {
				t.Errorf("Args = %q, want %q", got.Args, tt.want.Args)
			}
			if len(got.Fields) != len(tt.want.Fields) || (len(got.Fields) > 0 && !reflect.DeepEqual(got.Fields, tt.want.Fields)) {
				t.Errorf("Fields = %q, want %q", got.Fields, tt.want.Fields)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		code   string
		kind   ErrorKind
		detail string
	}{
		{
			name:   "access denied",
			tokens: []string{"ERR", "ACCESS-DENIED"},
			code:   "ACCESS-DENIED",
			kind:   KindAccessDenied,
		},
		{
			name:   "unknown ups",
			tokens: []string{"ERR", "UNKNOWN-UPS"},
			code:   "UNKNOWN-UPS",
			kind:   KindUnknownUPS,
		},
		{
			name:   "already ssl mode",
			tokens: []string{"ERR", "ALREADY-SSL-MODE"},
			code:   "ALREADY-SSL-MODE",
			kind:   KindAlreadySSLMode,
		},
		{
			name:   "driver not connected",
			tokens: []string{"ERR", "DRIVER-NOT-CONNECTED"},
			code:   "DRIVER-NOT-CONNECTED",
			kind:   KindDriverNotConnected,
		},
		{
			name:   "unrecognized code falls back",
			tokens: []string{"ERR", "SOME-FUTURE-CODE", "extra", "info"},
			code:   "SOME-FUTURE-CODE",
			kind:   KindUnknown,
			detail: "extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.tokens)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if got.Kind != KindError {
				t.Fatalf("Kind = %v, want KindError", got.Kind)
			}
			if got.Err == nil {
				t.Fatal("Err is nil")
			}
			if got.Err.Kind != tt.kind {
				t.Errorf("Err.Kind = %v, want %v", got.Err.Kind, tt.kind)
			}
			if got.Err.Code != tt.code {
				t.Errorf("Err.Code = %q, want %q", got.Err.Code, tt.code)
			}
			if got.Err.Detail != tt.detail {
				t.Errorf("Err.Detail = %q, want %q", got.Err.Detail, tt.detail)
			}
		})
	}
}

func TestClassifyMalformed(t *testing.T) {
	tests := []struct {
		tokens []string
		want   error
	}{
		{nil, ErrEmptyResponse},
		{[]string{"ERR"}, ErrMalformedResponse},
		{[]string{"BEGIN"}, ErrMalformedResponse},
		{[]string{"BEGIN", "BLOCK", "UPS"}, ErrMalformedResponse},
		{[]string{"END", "LIST"}, ErrMalformedResponse},
	}
	for _, tt := range tests {
		if _, err := Classify(tt.tokens); !errors.Is(err, tt.want) {
			t.Errorf("Classify(%q) error = %v, want %v", tt.tokens, err, tt.want)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	if got := KindAccessDenied.String(); got != "ACCESS-DENIED" {
		t.Errorf("KindAccessDenied.String() = %q", got)
	}
	if got := KindUnknown.String(); got != "UNKNOWN" {
		t.Errorf("KindUnknown.String() = %q", got)
	}
}

func TestDaemonErrorMessage(t *testing.T) {
	err := &DaemonError{Kind: KindAccessDenied, Code: "ACCESS-DENIED", Detail: "no upsmon"}
	if got := err.Error(); got != "upsd error: ACCESS-DENIED no upsmon" {
		t.Errorf("Error() = %q", got)
	}
}
