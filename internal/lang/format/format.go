// Package format dissects a log call's format string into literal and
// placeholder segments, one parser per interpolation family: curly-brace
// ({}, {name}, {name:spec}), printf (%s, %04d, ...), and template
// literals (`...${expr}...`). Concatenation folding lives with the
// extractors, which build the segments of a + chain themselves.
package format

import (
	"strings"

	"github.com/ttiimm/log2src/internal/source"
)

// printfConversions are the conversion characters the printf family
// recognizes after flags, width and precision.
const printfConversions = "sdifuxXoeEgGcbqvp%"

// printfFlags are the characters allowed between % and the conversion.
// The space flag is deliberately absent: "100% done" reads as literal.
const printfFlags = "-+#0.123456789*"

// Curly parses a curly-brace interpolated format string. captured supplies
// the source expressions for positional slots, in argument order; named
// slots ({count}) capture their own name.
func Curly(text string, captured []string) []source.Segment {
	var segs []source.Segment
	var lit strings.Builder
	pos := 0

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, source.Lit(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '{' {
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				lit.WriteByte(c)
				continue
			}
			raw := text[i : i+end+1]
			inner := raw[1 : len(raw)-1]
			flush()
			segs = append(segs, curlySlot(raw, inner, captured, pos))
			if name, _, _ := strings.Cut(inner, ":"); name == "" {
				pos++
			}
			i += end
			continue
		}
		if c == '}' && i+1 < len(text) && text[i+1] == '}' {
			lit.WriteByte('}')
			i++
			continue
		}
		lit.WriteByte(c)
	}
	flush()
	return source.FoldLiterals(segs)
}

// curlySlot classifies one {...} slot.
func curlySlot(raw, inner string, captured []string, pos int) source.Segment {
	name, spec, hasSpec := strings.Cut(inner, ":")
	kind := source.Positional
	capture := ""
	if name != "" {
		kind = source.Named
		capture = name
	}
	if hasSpec {
		kind = source.FormatSpec
		_ = spec
	}
	if capture == "" && pos < len(captured) {
		capture = captured[pos]
	}
	return source.Ph(kind, raw, capture)
}

// Printf parses a %-style format string. captured supplies the source
// expressions for the conversions, in argument order. %% is a literal.
func Printf(text string, captured []string) []source.Segment {
	var segs []source.Segment
	var lit strings.Builder
	pos := 0

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, source.Lit(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i+1 < len(text) && text[i+1] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}
		j := i + 1
		for j < len(text) && strings.IndexByte(printfFlags, text[j]) >= 0 {
			j++
		}
		if j >= len(text) || strings.IndexByte(printfConversions, text[j]) < 0 {
			lit.WriteByte(c)
			continue
		}
		raw := text[i : j+1]
		kind := source.Positional
		if len(raw) > 2 {
			kind = source.FormatSpec
		}
		capture := ""
		if pos < len(captured) {
			capture = captured[pos]
		}
		flush()
		segs = append(segs, source.Ph(kind, raw, capture))
		pos++
		i = j
	}
	flush()
	return source.FoldLiterals(segs)
}

// TemplateLiteral parses a backtick template literal body (without the
// backticks): ${expr} interpolations become named placeholders with the
// expression captured verbatim.
func TemplateLiteral(text string) []source.Segment {
	var segs []source.Segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, source.Lit(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			lit.WriteByte(text[i+1])
			i++
			continue
		}
		if c == '$' && i+1 < len(text) && text[i+1] == '{' {
			depth := 1
			j := i + 2
			for ; j < len(text) && depth > 0; j++ {
				switch text[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
			}
			if depth != 0 {
				lit.WriteByte(c)
				continue
			}
			raw := text[i:j]
			expr := strings.TrimSpace(text[i+2 : j-1])
			flush()
			segs = append(segs, source.Ph(source.Named, raw, expr))
			i = j - 1
			continue
		}
		lit.WriteByte(c)
	}
	flush()
	return source.FoldLiterals(segs)
}

// PlaceholderCount returns how many placeholder segments segs contains.
func PlaceholderCount(segs []source.Segment) int {
	n := 0
	for _, s := range segs {
		if !s.IsLiteral() {
			n++
		}
	}
	return n
}
