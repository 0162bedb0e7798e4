// Package extractor defines the contract every language extractor
// satisfies, plus the helpers they share: the logging-method severity
// table, receiver recognition, and call-argument scanning.
package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ttiimm/log2src/internal/source"
)

// MaxCapturedLen caps the recorded source text of a complex placeholder
// expression, in runes.
const MaxCapturedLen = 80

// Extractor locates logging-API call sites in one source file and emits a
// template per call. Implementations perform a minimal parse only; no
// semantic analysis. A returned error means the whole file is skipped
// (recorded as a warning by the index builder); it never aborts indexing.
type Extractor interface {
	// ID returns the extractor's unique identifier (e.g. "go", "java").
	ID() string
	// Extensions returns the file extensions the extractor claims,
	// including the leading dot.
	Extensions() []string
	// Extract parses file bytes and returns the log templates found.
	// path is recorded into each template's SourceRef verbatim.
	Extract(src []byte, path string) ([]source.LogTemplate, error)
}

// MethodLevel maps a logging method (or macro) name to its canonical
// severity, or "" when the name is not a recognized logging call. Trailing
// printf/println suffixes are stripped first so Infof and Warnln resolve.
func MethodLevel(name string) string {
	n := strings.ToLower(name)
	if lvl := source.CanonicalLevel(n); lvl != "" {
		return lvl
	}
	for _, suffix := range []string{"ln", "f"} {
		if trimmed, ok := strings.CutSuffix(n, suffix); ok && trimmed != "" {
			if lvl := source.CanonicalLevel(trimmed); lvl != "" {
				return lvl
			}
		}
	}
	return ""
}

// loggerReceiverPattern recognizes receivers whose static name resolves to
// a logger identifier. Extractors that cannot see the receiver at all fall
// back to the call name alone, which widens false positives.
var loggerReceiverPattern = regexp.MustCompile(`(?i)^_?(?:log|logger|logging|slog|mlog|l|lg)\d*$`)

// IsLoggerReceiver reports whether the identifier looks like a logger.
func IsLoggerReceiver(recv string) bool {
	return loggerReceiverPattern.MatchString(recv)
}

// IsIdent reports whether expr is a plain identifier (optionally dotted,
// e.g. self.count), the case where the expression is recorded verbatim as
// the placeholder's captured name.
func IsIdent(expr string) bool {
	if expr == "" {
		return false
	}
	for i, r := range expr {
		switch {
		case unicode.IsLetter(r) || r == '_' || r == '$':
		case r == '.' && i > 0:
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return !strings.HasSuffix(expr, ".")
}

// Capture normalizes a source-level argument expression into a captured
// name: identifiers verbatim, anything else truncated to MaxCapturedLen
// runes of source text.
func Capture(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	runes := []rune(expr)
	if len(runes) > MaxCapturedLen {
		expr = string(runes[:MaxCapturedLen])
	}
	return expr
}

// ScanArgs splits the argument list beginning right after an opening
// parenthesis into top-level argument texts. It tracks nesting and string
// literals (single, double, backtick) so commas inside them do not split.
// ok is false when the closing parenthesis is never found.
func ScanArgs(src string) (args []string, length int, ok bool) {
	depth := 1
	var quote byte
	start := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' && quote != '`' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if arg := strings.TrimSpace(src[start:i]); arg != "" {
					args = append(args, arg)
				}
				return args, i + 1, true
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(src[start:i]))
				start = i + 1
			}
		}
	}
	return nil, 0, false
}

// StringLiteral decodes a quoted string argument into its value. Handles
// the escape sequences common across the host languages; unknown escapes
// keep the escaped character. ok is false when arg is not a plain quoted
// literal.
func StringLiteral(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 {
		return "", false
	}
	q := arg[0]
	if (q != '"' && q != '\'') || arg[len(arg)-1] != q {
		return "", false
	}
	body := arg[1 : len(arg)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == q {
			// An unescaped quote inside means this was not one literal.
			return "", false
		}
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), true
}
