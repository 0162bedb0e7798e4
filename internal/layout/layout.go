// Package layout compiles a user-supplied layout pattern into a record
// field extractor. A pattern mixes literal text with the directives
// {timestamp}, {level}, {thread}, {logger} and {message}; literal braces
// are written as {{ and }}.
package layout

import (
	"fmt"
	"regexp"
	"strings"
)

// Fields holds the substrings a layout captured from one record line.
// Unset fields stay empty; an unconfigured layout degrades gracefully.
type Fields struct {
	Timestamp string
	Level     string
	Thread    string
	Logger    string
	// Message is the record body captured by {message}, or the tail of the
	// line after the last directive when the pattern has no {message}.
	Message string
}

// directiveSubpatterns maps each directive to the regex fragment it
// compiles to. {message} runs to end of line; the others stop at
// whitespace so adjacent directives stay separable.
var directiveSubpatterns = map[string]string{
	"timestamp": `\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?`,
	"level":     `[A-Za-z]+`,
	"thread":    `\S+`,
	"logger":    `\S+`,
	"message":   `.*`,
}

// directivePattern tokenizes a layout pattern: escaped braces, a known
// directive, or a run of literal text.
var directivePattern = regexp.MustCompile(`\{\{|\}\}|\{(\w+)\}`)

// Layout is a compiled layout pattern: a left-to-right anchored matcher
// that assigns captured substrings to record fields.
type Layout struct {
	pattern string
	re      *regexp.Regexp
	// groups maps directive name to capture-group index in re.
	groups map[string]int
	// hasMessage records whether the pattern captured {message} itself;
	// when false the body is the unconsumed tail of the line.
	hasMessage bool
}

// Compile turns a layout pattern into a Layout. Runs of whitespace in the
// pattern collapse to one-or-more-whitespace in the matcher. An unknown
// directive is a compile error; the CLI treats it as fatal.
func Compile(pattern string) (*Layout, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("layout pattern is empty")
	}

	var re strings.Builder
	re.WriteString(`^`)
	groups := map[string]int{}
	groupIdx := 0
	hasMessage := false

	pos := 0
	flushLiteral := func(lit string) {
		if lit == "" {
			return
		}
		// Collapse whitespace runs to \s+, quote everything else exactly.
		for lit != "" {
			if i := strings.IndexFunc(lit, isSpace); i >= 0 {
				re.WriteString(regexp.QuoteMeta(lit[:i]))
				re.WriteString(`\s+`)
				j := i
				for j < len(lit) && isSpace(rune(lit[j])) {
					j++
				}
				lit = lit[j:]
				continue
			}
			re.WriteString(regexp.QuoteMeta(lit))
			lit = ""
		}
	}

	for _, loc := range directivePattern.FindAllStringSubmatchIndex(pattern, -1) {
		flushLiteral(pattern[pos:loc[0]])
		pos = loc[1]
		tok := pattern[loc[0]:loc[1]]
		switch tok {
		case "{{":
			re.WriteString(regexp.QuoteMeta("{"))
			continue
		case "}}":
			re.WriteString(regexp.QuoteMeta("}"))
			continue
		}
		name := pattern[loc[2]:loc[3]]
		sub, ok := directiveSubpatterns[name]
		if !ok {
			return nil, fmt.Errorf("unknown layout directive {%s}", name)
		}
		if _, dup := groups[name]; dup {
			return nil, fmt.Errorf("duplicate layout directive {%s}", name)
		}
		groupIdx++
		groups[name] = groupIdx
		re.WriteString("(")
		re.WriteString(sub)
		re.WriteString(")")
		if name == "message" {
			hasMessage = true
		}
	}
	flushLiteral(pattern[pos:])

	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, fmt.Errorf("compiling layout pattern: %w", err)
	}

	return &Layout{
		pattern:    pattern,
		re:         compiled,
		groups:     groups,
		hasMessage: hasMessage,
	}, nil
}

// defaultLayout matches an ISO-like timestamp, a level that is either an
// uppercase word, a bracketed word, or one of the single-letter severity
// indicators, then the body to end of line.
var defaultLayout = &Layout{
	pattern: "<default>",
	re: regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+\[?([A-Z]+)\]?\s+(.*)$`),
	groups:     map[string]int{"timestamp": 1, "level": 2, "message": 3},
	hasMessage: true,
}

// Default returns the layout used when the caller supplies no pattern.
func Default() *Layout {
	return defaultLayout
}

// Pattern returns the pattern the layout was compiled from.
func (l *Layout) Pattern() string {
	return l.pattern
}

// Apply matches one record line. On success the extracted body is always a
// suffix of the line. ok is false when the line does not match; that is
// not an error, the caller reports the whole line as body.
func (l *Layout) Apply(line string) (Fields, bool) {
	m := l.re.FindStringSubmatchIndex(line)
	if m == nil {
		return Fields{}, false
	}

	var f Fields
	pick := func(name string) string {
		idx, ok := l.groups[name]
		if !ok || m[2*idx] < 0 {
			return ""
		}
		return line[m[2*idx]:m[2*idx+1]]
	}
	f.Timestamp = pick("timestamp")
	f.Level = pick("level")
	f.Thread = pick("thread")
	f.Logger = pick("logger")
	if l.hasMessage {
		f.Message = pick("message")
	} else {
		f.Message = strings.TrimLeft(line[m[1]:], " \t")
	}
	return f, true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
