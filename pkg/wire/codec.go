package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Codec errors.
var (
	// ErrControlCharacter indicates a token contains an embedded newline or
	// carriage return, which cannot be represented on the wire.
	ErrControlCharacter = errors.New("token contains a control character")

	// ErrUnterminatedQuote indicates a received line opened a double quote
	// and never closed it.
	ErrUnterminatedQuote = errors.New("unterminated quote")

	// ErrTrailingEscape indicates a received line ended in the middle of a
	// backslash escape.
	ErrTrailingEscape = errors.New("trailing escape character")
)

// EncodeLine joins tokens into one newline-terminated wire line.
//
// Tokens are separated by single spaces. A token that is empty or contains
// whitespace, a double quote or a backslash is wrapped in double quotes with
// internal quotes and backslashes escaped. The only failure mode is a token
// containing an embedded newline.
func EncodeLine(tokens []string) (string, error) {
	var b strings.Builder
	for i, tok := range tokens {
		if strings.ContainsAny(tok, "\n\r") {
			return "", fmt.Errorf("%w: token %d", ErrControlCharacter, i)
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		writeToken(&b, tok)
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// needsQuoting reports whether a token must be transmitted in double quotes.
func needsQuoting(tok string) bool {
	return tok == "" || strings.ContainsAny(tok, " \t\"\\")
}

func writeToken(b *strings.Builder, tok string) {
	if !needsQuoting(tok) {
		b.WriteString(tok)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
}

// DecodeLine tokenizes one received wire line using shell-style word
// splitting: tokens are separated by runs of spaces or tabs, double-quoted
// segments are kept as one token, and a backslash escapes the next character
// both inside and outside quotes.
//
// The trailing newline (and an optional carriage return before it) is
// stripped before tokenizing. An empty line decodes to zero tokens.
func DecodeLine(raw string) ([]string, error) {
	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")

	var tokens []string
	var cur strings.Builder
	inToken := false
	inQuotes := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\':
			if i+1 >= len(raw) {
				return nil, ErrTrailingEscape
			}
			i++
			cur.WriteByte(raw[i])
			inToken = true
		case c == '"':
			inQuotes = !inQuotes
			// An opening quote starts a token even if it is empty.
			inToken = true
		case (c == ' ' || c == '\t') && !inQuotes:
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}
	if inQuotes {
		return nil, ErrUnterminatedQuote
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}
