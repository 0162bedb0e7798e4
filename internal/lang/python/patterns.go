package python

import "regexp"

// Python-specific patterns for locating log calls and def scopes.
var (
	// logCallPattern matches calls on the logging module or logger-shaped
	// identifiers.
	// Example: "logger.warning(...)", "logging.info(...)", "log.debug(...)"
	// Group 1: receiver, group 2: method
	logCallPattern = regexp.MustCompile(
		`([A-Za-z_][\w]*)\.(debug|info|warning|warn|error|critical|exception|fatal|trace|log)\s*\(`)

	// defPattern matches function and method definitions with their
	// indentation.
	// Group 1: indent, group 2: name
	defPattern = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(`)

	// fstringPrefixPattern recognizes an f-string argument.
	// Group 1: quote character
	fstringPrefixPattern = regexp.MustCompile(`^[fF][rR]?(['"])`)
)
