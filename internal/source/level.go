package source

import "strings"

// Canonical severity names shared by extractors and the matcher.
const (
	LevelTrace = "trace"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// levelAliases maps the severity tokens that appear in log records and
// logging APIs onto the canonical names. Includes java.util.logging names
// and the single-letter indicators the default layout accepts.
var levelAliases = map[string]string{
	"trace":     LevelTrace,
	"finest":    LevelTrace,
	"finer":     LevelTrace,
	"verbose":   LevelTrace,
	"debug":     LevelDebug,
	"fine":      LevelDebug,
	"config":    LevelDebug,
	"d":         LevelDebug,
	"info":      LevelInfo,
	"notice":    LevelInfo,
	"print":     LevelInfo,
	"i":         LevelInfo,
	"warn":      LevelWarn,
	"warning":   LevelWarn,
	"w":         LevelWarn,
	"error":     LevelError,
	"severe":    LevelError,
	"err":       LevelError,
	"e":         LevelError,
	"exception": LevelError,
	"fatal":     LevelFatal,
	"critical":  LevelFatal,
	"panic":     LevelFatal,
	"f":         LevelFatal,
}

// CanonicalLevel normalizes a severity token from a log record or a
// logging-API method name. Returns "" when the token is not a severity.
func CanonicalLevel(tok string) string {
	return levelAliases[strings.ToLower(strings.TrimSpace(tok))]
}
