package java

import "regexp"

// Java-specific patterns for locating log calls and naming their
// enclosing methods. Patterns use lazy quantifiers where possible.
var (
	// logCallPattern matches a logging call on a logger-shaped receiver.
	// Example: "log.info(...)", "LOGGER.fine(...)", "logger.log(Level.FINE, ...)"
	// Group 1: receiver identifier
	// Group 2: method name
	logCallPattern = regexp.MustCompile(
		`([A-Za-z_$][\w$]*)\.(trace|debug|info|warn|warning|error|severe|fatal|fine|finer|finest|config|log)\s*\(`)

	// methodDeclPattern matches a method declaration up to its parameter
	// list (never the opening brace, the scope table pairs them).
	// Example: "public void bar(String s) throws IOException"
	// Group 1: method name
	methodDeclPattern = regexp.MustCompile(
		`(?m)^\s*(?:(?:public|protected|private|static|final|synchronized|abstract|default)\s+)*[\w<>\[\],.?\s]*?[\w>\]]\s+(\w+)\s*\([^;{)]*\)`)

	// julLevelPattern extracts the level constant from logger.log(Level.X, ...).
	// Group 1: the level name
	julLevelPattern = regexp.MustCompile(`^Level\.([A-Z]+)$`)
)
