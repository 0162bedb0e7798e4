package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// LineIndex converts byte offsets into 1-based line/column positions.
type LineIndex struct {
	starts []int
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Position returns the 1-based line and column of offset.
func (l *LineIndex) Position(offset int) (line, col int) {
	i := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - l.starts[i] + 1
}

// scopePoint records that name is the enclosing scope from offset on.
type scopePoint struct {
	offset int
	name   string
}

// ScopeTable answers "which named function encloses this offset" for
// brace-delimited languages. It pairs declaration-pattern matches with the
// block each one opens, skipping string literals and comments while
// counting braces. A minimal parse: good enough to name call sites, no
// more.
type ScopeTable struct {
	points []scopePoint
}

// NewScopeTable scans src once. decl must expose the declared name in a
// capture group (the first group that matched is taken) and must not
// consume the opening brace. top names the outermost scope (the module or
// file base name).
func NewScopeTable(src string, decl *regexp.Regexp, top string) *ScopeTable {
	decls := decl.FindAllStringSubmatchIndex(src, -1)
	di := 0
	pending := ""
	pendingEnd := -1

	cur := top
	var stack []string
	points := []scopePoint{{0, top}}

	for i := 0; i < len(src); i++ {
		for di < len(decls) && decls[di][1] <= i {
			// The declared name is the first capturing group that matched.
			for g := 1; 2*g+1 < len(decls[di]); g++ {
				if decls[di][2*g] >= 0 {
					pending = src[decls[di][2*g]:decls[di][2*g+1]]
					pendingEnd = decls[di][1]
					break
				}
			}
			di++
		}

		switch src[i] {
		case '"', '\'', '`':
			i = skipString(src, i)
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				i = skipLine(src, i)
			} else if i+1 < len(src) && src[i+1] == '*' {
				i = skipBlockComment(src, i)
			}
		case '{':
			name := cur
			if pending != "" && cleanGap(src[pendingEnd:i]) {
				name = pending
			}
			pending = ""
			stack = append(stack, cur)
			cur = name
			points = append(points, scopePoint{i, cur})
		case '}':
			if n := len(stack); n > 0 {
				cur = stack[n-1]
				stack = stack[:n-1]
				points = append(points, scopePoint{i + 1, cur})
			}
		case ';':
			pending = ""
		}
	}
	return &ScopeTable{points: points}
}

// At returns the scope name enclosing offset.
func (t *ScopeTable) At(offset int) string {
	i := sort.Search(len(t.points), func(i int) bool { return t.points[i].offset > offset }) - 1
	if i < 0 {
		i = 0
	}
	return t.points[i].name
}

// cleanGap reports whether the text between a declaration and a brace
// contains nothing that would detach them.
func cleanGap(gap string) bool {
	return !strings.ContainsAny(gap, ";{}")
}

// skipString advances past a quoted literal starting at i, honoring
// backslash escapes (except in backtick strings).
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		c := src[j]
		if c == '\\' && quote != '`' {
			j++
			continue
		}
		if c == quote || (quote != '`' && c == '\n') {
			return j
		}
	}
	return len(src) - 1
}

func skipLine(src string, i int) int {
	for j := i; j < len(src); j++ {
		if src[j] == '\n' {
			return j
		}
	}
	return len(src) - 1
}

func skipBlockComment(src string, i int) int {
	for j := i + 2; j+1 < len(src); j++ {
		if src[j] == '*' && src[j+1] == '/' {
			return j + 1
		}
	}
	return len(src) - 1
}

// SplitConcat splits an expression on top-level + operators, outside
// quotes and brackets. Used to fold literal concatenation chains.
func SplitConcat(expr string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
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
		case '+':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(expr[start:]))
	return parts
}
