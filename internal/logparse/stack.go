package logparse

import (
	"regexp"
	"strconv"
	"strings"
)

// Per-language frame patterns. A continuation line matching any of these
// is claimed by the stack heuristic instead of being appended to the body.
var (
	// javaFramePattern matches JVM-family frames.
	// Example: "    at a.b.Foo.bar(Foo.java:12)"
	// Example: "    at a.b.Foo.bar(Native Method)"
	// Group 1: fully qualified class, group 2: method,
	// group 3: file, group 4: line (optional)
	javaFramePattern = regexp.MustCompile(`^\s+at\s+([\w$.]+)\.([\w$<>]+)\(([^:)]+?)(?::(\d+))?\)\s*$`)

	// pythonFramePattern matches CPython traceback frames.
	// Example: '  File "app/main.py", line 42, in handle'
	// Group 1: file, group 2: line, group 3: function (optional)
	pythonFramePattern = regexp.MustCompile(`^\s+File "([^"]+)", line (\d+)(?:, in (\S+))?\s*$`)

	// goFrameFilePattern matches Go runtime stack file lines.
	// Example: "        /src/app/main.go:10 +0x25"
	// Group 1: file, group 2: line
	goFrameFilePattern = regexp.MustCompile(`^\s+(\S+\.go):(\d+)(?:\s+\+0x[0-9a-f]+)?\s*$`)

	// goFrameFuncPattern matches the function line preceding a Go file line.
	// Example: "main.(*Server).handle(0xc000010250)"
	// Group 1: qualified function
	goFrameFuncPattern = regexp.MustCompile(`^([\w./()*]+)\([^)]*\)\s*$`)

	// jsFramePattern matches V8 frames.
	// Example: "    at handle (src/app.js:3:15)"
	// Example: "    at src/app.js:3:15"
	// Group 1: function (optional), group 2: file, group 3: line
	jsFramePattern = regexp.MustCompile(`^\s+at\s+(?:([\w$.<>\[\] ]+?)\s+\()?([^():]+?\.[cm]?[jt]sx?):(\d+)(?::\d+)?\)?\s*$`)

	// rustFramePattern matches backtrace file lines.
	// Example: "        at src/main.rs:7:9"
	// Group 1: file, group 2: line
	rustFramePattern = regexp.MustCompile(`^\s+at\s+(\S+\.rs):(\d+)(?::\d+)?\s*$`)

	// exceptionHeaderPattern matches the first line of an exception block.
	// Example: "java.lang.RuntimeException: outer"
	// Example: 'Exception in thread "main" java.lang.IllegalStateException'
	// Group 1: exception type, group 2: message (optional)
	exceptionHeaderPattern = regexp.MustCompile(`^(?:Exception in thread "[^"]*" )?([\w$.]*(?:Exception|Error|Throwable))(?::\s*(.*))?$`)

	// pythonTracebackStart introduces a CPython traceback.
	pythonTracebackStart = regexp.MustCompile(`^Traceback \(most recent call last\):\s*$`)
)

// causePrefixes start a new block in an exception chain. The Python
// chaining sentences come between two complete tracebacks, so they both
// split the chain and carry no header of their own.
var causePrefixes = []string{
	"Caused by: ",
	"Caused by:",
	"Suppressed: ",
	"During handling of the above exception, another exception occurred:",
	"The above exception was the direct cause of the following exception:",
}

// isFrameLine reports whether the line matches any per-language frame
// pattern, and returns the parsed frame when it does.
func isFrameLine(line string) (Frame, bool) {
	if m := javaFramePattern.FindStringSubmatch(line); m != nil {
		f := Frame{ClassName: m[1], Method: m[2], File: m[3]}
		if m[4] != "" {
			// Error safe to ignore: regex captures (\d+) which guarantees numeric string
			f.Line, _ = strconv.Atoi(m[4])
		}
		return f, true
	}
	if m := pythonFramePattern.FindStringSubmatch(line); m != nil {
		f := Frame{File: m[1], Method: m[3]}
		f.Line, _ = strconv.Atoi(m[2])
		return f, true
	}
	if m := jsFramePattern.FindStringSubmatch(line); m != nil {
		f := Frame{Method: strings.TrimSpace(m[1]), File: m[2]}
		f.Line, _ = strconv.Atoi(m[3])
		return f, true
	}
	if m := rustFramePattern.FindStringSubmatch(line); m != nil {
		f := Frame{File: m[1]}
		f.Line, _ = strconv.Atoi(m[2])
		return f, true
	}
	if m := goFrameFilePattern.FindStringSubmatch(line); m != nil {
		f := Frame{File: m[1]}
		f.Line, _ = strconv.Atoi(m[2])
		return f, true
	}
	return Frame{}, false
}

// isHeaderLine reports whether the line looks like an exception header.
func isHeaderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return exceptionHeaderPattern.MatchString(trimmed) || pythonTracebackStart.MatchString(trimmed)
}

// causePrefix returns the matched cause marker, or "".
func causePrefix(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, p := range causePrefixes {
		if strings.HasPrefix(trimmed, p) {
			return p
		}
	}
	return ""
}

// stackBuilder accumulates continuation lines into an exception chain.
type stackBuilder struct {
	head *ExceptionBlock
	cur  *ExceptionBlock
	// sawFrame tracks whether any frame matched; a candidate block with no
	// frame at all is demoted back to body text by the scanner.
	sawFrame bool
	// pendingFunc holds a Go function line until its file line arrives.
	pendingFunc string
}

func (b *stackBuilder) empty() bool {
	return b.head == nil
}

func (b *stackBuilder) ensure(header string) *ExceptionBlock {
	if b.cur == nil {
		b.cur = &ExceptionBlock{Header: header}
		b.head = b.cur
	}
	return b.cur
}

// startCause begins a new block in the chain.
func (b *stackBuilder) startCause(header string) {
	next := &ExceptionBlock{Header: header}
	if b.cur == nil {
		b.head = next
	} else {
		b.cur.Cause = next
	}
	b.cur = next
}

// claim routes one continuation line into the builder. Returns false when
// the line belongs to the record body instead.
func (b *stackBuilder) claim(line string) bool {
	trimmed := strings.TrimSpace(line)

	if p := causePrefix(line); p != "" {
		// Python chaining sentences carry no inline header; the next
		// header line fills it in.
		b.startCause(strings.TrimSpace(strings.TrimPrefix(trimmed, p)))
		return true
	}

	if f, ok := isFrameLine(line); ok {
		blk := b.ensure("")
		if f.Method == "" && b.pendingFunc != "" {
			f.Method = goFuncName(b.pendingFunc)
			b.pendingFunc = ""
		}
		blk.Frames = append(blk.Frames, f)
		b.sawFrame = true
		return true
	}

	if b.empty() && isHeaderLine(line) {
		if pythonTracebackStart.MatchString(trimmed) {
			b.ensure("")
		} else {
			b.ensure(trimmed)
		}
		return true
	}

	if !b.empty() {
		// Inside a block: a header line after a cause marker, a Go
		// function line, or the trailing Python exception line.
		if b.cur.Header == "" && isHeaderLine(line) && len(b.cur.Frames) == 0 {
			if pythonTracebackStart.MatchString(trimmed) {
				return true
			}
			b.cur.Header = trimmed
			return true
		}
		if goFrameFuncPattern.MatchString(trimmed) {
			b.pendingFunc = trimmed
			return true
		}
		if b.cur.Header == "" && exceptionHeaderPattern.MatchString(trimmed) {
			// Python puts the exception line after its frames.
			b.cur.Header = trimmed
			return true
		}
	}

	return false
}

// goFuncName extracts the bare function name from a Go stack function line.
func goFuncName(funcLine string) string {
	name := funcLine
	if i := strings.Index(name, "("); i >= 0 && !strings.HasPrefix(name, "(") {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// finish returns the accumulated chain, or nil when nothing qualified as
// a stack block (no frame line ever matched).
func (b *stackBuilder) finish() *ExceptionBlock {
	if b.head == nil || !b.sawFrame {
		return nil
	}
	return b.head
}
