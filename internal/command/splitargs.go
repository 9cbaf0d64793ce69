package command

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrQuoteMismatch reports an argument string with an unterminated quote.
// It is a user error, not an internal failure.
var ErrQuoteMismatch = errors.New("command: quote mismatch in arguments")

// disallowedInputChar matches characters that are stripped from unquoted,
// unescaped input. Keeps letters, digits, ASCII punctuation and whitespace;
// drops control characters and decorative symbols pasted into chat.
func disallowedInputChar(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	if r < 128 && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
		return false
	}
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return true
}

// SplitArgs tokenizes a command argument string. Single and double quotes
// group words, a backslash escapes the next character anywhere, and
// disallowed characters survive only inside quotes or behind an escape.
// Input is NFC-normalized first so visually identical invocations tokenize
// identically.
func SplitArgs(input string) ([]string, error) {
	input = norm.NFC.String(input)

	var args []string
	var current strings.Builder
	inToken := false
	escaped := false
	var quote rune

	flush := func() {
		if inToken {
			args = append(args, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			inToken = true
			escaped = false
		case r == '\\':
			escaped = true
			inToken = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		case disallowedInputChar(r):
			// stripped
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, ErrQuoteMismatch
	}
	flush()
	return args, nil
}
