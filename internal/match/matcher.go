// Package match scores log records against indexed templates, recovers
// placeholder values, and resolves exception frames back to source
// references. All operations are read-only against a frozen index and
// safe to call concurrently.
package match

import (
	"fmt"
	"strings"

	"github.com/ttiimm/log2src/internal/index"
	"github.com/ttiimm/log2src/internal/logparse"
	"github.com/ttiimm/log2src/internal/source"
)

// Scoring weights and limits. Heuristic defaults, tunable only through
// the acceptance threshold.
const (
	weightLiteralCoverage = 0.7
	weightPlausibility    = 0.2
	weightLevelAgreement  = 0.1

	// DefaultThreshold is the minimum accepted score; candidates below it
	// produce the unmatched sentinel mapping.
	DefaultThreshold = 0.5

	// maxPlausibleValue bounds a recovered placeholder value considered
	// plausible, in bytes.
	maxPlausibleValue = 128

	// frameProximity is how many lines a template may sit from a frame's
	// reported line and still be preferred.
	frameProximity = 5
)

// Mapping is the matcher's output for one record.
type Mapping struct {
	SrcRef    source.SourceRef     `json:"srcRef"`
	Variables map[string]string    `json:"variables"`
	Stack     [][]source.SourceRef `json:"stack"`
	// Score is surfaced only in verbose mode.
	Score *float64 `json:"score,omitempty"`
}

// Matcher maps records to templates against one frozen index.
type Matcher struct {
	idx       *index.Index
	threshold float64
	verbose   bool
}

// New creates a matcher with the default acceptance threshold.
func New(idx *index.Index) *Matcher {
	return &Matcher{idx: idx, threshold: DefaultThreshold}
}

// Threshold overrides the acceptance threshold.
func (m *Matcher) Threshold(t float64) *Matcher {
	m.threshold = t
	return m
}

// Verbose makes mappings carry their score.
func (m *Matcher) Verbose(v bool) *Matcher {
	m.verbose = v
	return m
}

// Map returns the mapping for one record: the best-scoring template with
// its recovered variables and resolved stack, or the unmatched sentinel.
// Ambiguity never raises; the best guess wins and ties break on lower
// sourcePath, then lower lineNumber — the frozen candidate order.
func (m *Matcher) Map(rec *logparse.Record) *Mapping {
	out := &Mapping{
		SrcRef:    source.Unresolved(),
		Variables: map[string]string{},
		Stack:     [][]source.SourceRef{},
	}
	if rec.Stack != nil {
		out.Stack = m.resolveStack(rec.Stack)
	}
	if strings.TrimSpace(rec.Body) == "" {
		return out
	}

	body := firstLine(rec.Body)
	recLevel := source.CanonicalLevel(rec.Level)

	best := -1.0
	for _, cand := range m.idx.Lookup(body) {
		score, vars, ok := scoreCandidate(body, recLevel, cand)
		if !ok || score <= best {
			continue
		}
		best = score
		out.SrcRef = cand.SrcRef
		out.Variables = vars
	}

	if best < m.threshold {
		out.SrcRef = source.Unresolved()
		out.Variables = map[string]string{}
		return out
	}
	if m.verbose {
		out.Score = &best
	}
	return out
}

// scoreCandidate aligns body against the template and scores the
// alignment. ok is false when the template's literals cannot be found in
// order.
func scoreCandidate(body, recLevel string, t *source.LogTemplate) (float64, map[string]string, bool) {
	fills, literalChars, ok := align(body, t.Segments)
	if !ok {
		return 0, nil, false
	}

	coverage := 0.0
	if len(body) > 0 {
		coverage = float64(literalChars) / float64(len(body))
	}

	plausibility := 1.0
	if len(fills) > 0 {
		plausible := 0
		for _, v := range fills {
			if len(v) < maxPlausibleValue && !strings.Contains(v, "\n") {
				plausible++
			}
		}
		plausibility = float64(plausible) / float64(len(fills))
	}

	agreement := 0.0
	if recLevel != "" && recLevel == t.Level {
		agreement = 1.0
	}

	score := weightLiteralCoverage*coverage +
		weightPlausibility*plausibility +
		weightLevelAgreement*agreement

	return score, nameVariables(t, fills), true
}

// align interleaves the template's literals and placeholders over body.
// Literals consume exactly their characters in order; each placeholder
// takes the shortest non-empty fill before the next literal's leftmost
// occurrence. The first literal may start past position zero, so bodies
// carrying an unconfigured logger prefix still align.
func align(body string, segs []source.Segment) (fills []string, literalChars int, ok bool) {
	pos := 0
	pending := false // a placeholder awaiting its fill
	first := true

	for _, seg := range segs {
		if !seg.IsLiteral() {
			if pending {
				// Two adjacent placeholders cannot be separated; give the
				// first an empty-impossible split and fail.
				return nil, 0, false
			}
			pending = true
			first = false
			continue
		}

		lit := seg.Literal
		switch {
		case pending:
			if pos+1 > len(body) {
				return nil, 0, false
			}
			idx := strings.Index(body[pos+1:], lit)
			if idx < 0 {
				return nil, 0, false
			}
			idx += pos + 1
			fills = append(fills, body[pos:idx])
			pos = idx + len(lit)
			pending = false
		case first:
			idx := strings.Index(body[pos:], lit)
			if idx < 0 {
				return nil, 0, false
			}
			pos += idx + len(lit)
		default:
			if !strings.HasPrefix(body[pos:], lit) {
				return nil, 0, false
			}
			pos += len(lit)
		}
		literalChars += len(lit)
		first = false
	}

	if pending {
		if pos >= len(body) {
			return nil, 0, false
		}
		fills = append(fills, body[pos:])
	}
	return fills, literalChars, true
}

// nameVariables keys each recovered fill by its placeholder's captured
// expression, falling back to positional argN names.
func nameVariables(t *source.LogTemplate, fills []string) map[string]string {
	vars := make(map[string]string, len(fills))
	phs := t.Placeholders()
	for i, v := range fills {
		if i >= len(phs) {
			break
		}
		key := phs[i].Captured
		if key == "" {
			key = fmt.Sprintf("arg%d", i)
		}
		vars[key] = strings.ReplaceAll(v, "\n", " ")
	}
	return vars
}

// firstLine returns body up to its first newline; continuation lines
// never take part in template alignment.
func firstLine(body string) string {
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		return body[:i]
	}
	return body
}
