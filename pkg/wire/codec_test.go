package wire

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeLine(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{
			name:   "plain tokens",
			tokens: []string{"GET", "VAR", "nutdev1", "battery.charge"},
			want:   "GET VAR nutdev1 battery.charge\n",
		},
		{
			name:   "token with space is quoted",
			tokens: []string{"UPS", "nutdev1", "Test UPS"},
			want:   "UPS nutdev1 \"Test UPS\"\n",
		},
		{
			name:   "empty token is quoted",
			tokens: []string{"PASSWORD", ""},
			want:   "PASSWORD \"\"\n",
		},
		{
			name:   "embedded quote is escaped",
			tokens: []string{"DESC", `say "hi"`},
			want:   "DESC \"say \\\"hi\\\"\"\n",
		},
		{
			name:   "embedded backslash is escaped",
			tokens: []string{"DESC", `a\b`},
			want:   "DESC \"a\\\\b\"\n",
		},
		{
			name:   "no tokens",
			tokens: nil,
			want:   "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeLine(tt.tokens)
			if err != nil {
				t.Fatalf("EncodeLine failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("EncodeLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeLineControlCharacter(t *testing.T) {
	for _, tokens := range [][]string{
		{"GET", "a\nb"},
		{"GET", "a\rb"},
	} {
		if _, err := EncodeLine(tokens); !errors.Is(err, ErrControlCharacter) {
			t.Errorf("EncodeLine(%q) error = %v, want ErrControlCharacter", tokens, err)
		}
	}
}

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain tokens",
			raw:  "VAR nutdev1 battery.charge 100\n",
			want: []string{"VAR", "nutdev1", "battery.charge", "100"},
		},
		{
			name: "quoted token with space",
			raw:  "UPS nutdev1 \"Test UPS\"\n",
			want: []string{"UPS", "nutdev1", "Test UPS"},
		},
		{
			name: "escaped quote inside quotes",
			raw:  "DESC \"say \\\"hi\\\"\"\n",
			want: []string{"DESC", `say "hi"`},
		},
		{
			name: "empty quoted token",
			raw:  "PASSWORD \"\"\n",
			want: []string{"PASSWORD", ""},
		},
		{
			name: "multiple spaces collapse",
			raw:  "OK   Goodbye\n",
			want: []string{"OK", "Goodbye"},
		},
		{
			name: "crlf terminated",
			raw:  "OK\r\n",
			want: []string{"OK"},
		},
		{
			name: "no trailing newline",
			raw:  "OK",
			want: []string{"OK"},
		},
		{
			name: "empty line",
			raw:  "\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLine(tt.raw)
			if err != nil {
				t.Fatalf("DecodeLine failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeLineErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"UPS \"unterminated\n", ErrUnterminatedQuote},
		{"UPS trailing\\\n", ErrTrailingEscape},
	}
	for _, tt := range tests {
		if _, err := DecodeLine(tt.raw); !errors.Is(err, tt.want) {
			t.Errorf("DecodeLine(%q) error = %v, want %v", tt.raw, err, tt.want)
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	tests := [][]string{
		{"LIST", "UPS"},
		{"UPS", "nutdev1", "Test UPS"},
		{"VAR", "nutdev1", "ups.status", "OL CHRG"},
		{"DESC", "nutdev1", `quotes " and \ backslash`},
		{"PASSWORD", ""},
		{"VER"},
		{"DESC", "tabs\tand  runs   of spaces"},
	}

	for _, tokens := range tests {
		line, err := EncodeLine(tokens)
		if err != nil {
			t.Fatalf("EncodeLine(%q) failed: %v", tokens, err)
		}
		got, err := DecodeLine(line)
		if err != nil {
			t.Fatalf("DecodeLine(%q) failed: %v", line, err)
		}
		if !reflect.DeepEqual(got, tokens) {
			t.Errorf("round trip %q -> %q -> %q", tokens, line, got)
		}
	}
}
