package logparse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ttiimm/log2src/internal/layout"
)

// scannerBufferSize handles long physical lines (minified JS, huge dumps).
const scannerBufferSize = 1024 * 1024

// Scanner groups the physical lines of a log into logical records. A line
// matching the layout starts a record; subsequent non-matching lines are
// appended to its body unless the stack-trace heuristic claims them. Lines
// that match nothing while no record is open stand alone as their own
// records, so an unconfigured layout degrades to one record per line.
//
// Scanner is single-use; construct a new one to restart the sequence.
type Scanner struct {
	sc     *bufio.Scanner
	layout *layout.Layout

	lineNo  int
	cur     *Record
	sb      *stackBuilder
	sbLines []string
	err     error
}

// NewScanner reads log lines from r using the given layout. Invalid UTF-8
// sequences are replaced with the replacement character, never an error.
func NewScanner(r io.Reader, l *layout.Layout) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), scannerBufferSize)
	return &Scanner{sc: sc, layout: l}
}

// Next returns the next logical record, or io.EOF when the log is
// exhausted.
func (s *Scanner) Next() (*Record, error) {
	if s.err != nil {
		return nil, s.err
	}

	for s.sc.Scan() {
		s.lineNo++
		line := strings.ToValidUTF8(strings.TrimRight(s.sc.Text(), "\r"), "�")

		fields, ok := s.layout.Apply(line)
		if ok {
			next := &Record{
				Raw:        line,
				LineNumber: s.lineNo,
				EndLine:    s.lineNo,
				Timestamp:  fields.Timestamp,
				Level:      fields.Level,
				Thread:     fields.Thread,
				Logger:     fields.Logger,
				Body:       fields.Message,
			}
			if done := s.finish(); done != nil {
				s.open(next)
				return done, nil
			}
			s.open(next)
			continue
		}

		if s.cur == nil {
			// No open record to continue: the line stands alone.
			return &Record{Raw: line, LineNumber: s.lineNo, EndLine: s.lineNo, Body: line}, nil
		}

		s.cur.EndLine = s.lineNo
		if s.sb.claim(line) {
			s.sbLines = append(s.sbLines, line)
			continue
		}
		s.cur.Body += "\n" + line
	}

	if err := s.sc.Err(); err != nil {
		s.err = err
		return nil, err
	}
	s.err = io.EOF
	if done := s.finish(); done != nil {
		return done, nil
	}
	return nil, io.EOF
}

// open starts accumulating a new layout-matched record.
func (s *Scanner) open(rec *Record) {
	s.cur = rec
	s.sb = &stackBuilder{}
	s.sbLines = nil
}

// finish closes the open record, attaching its stack or, when the claimed
// lines never produced a frame, folding them back into the body.
func (s *Scanner) finish() *Record {
	if s.cur == nil {
		return nil
	}
	rec := s.cur
	if stack := s.sb.finish(); stack != nil {
		rec.Stack = stack
	} else if len(s.sbLines) > 0 {
		rec.Body += "\n" + strings.Join(s.sbLines, "\n")
	}
	s.cur = nil
	s.sb = nil
	s.sbLines = nil
	return rec
}

// Window streams the log at path and returns the records whose physical
// span intersects the 1-based window [start, end). end <= 0 means through
// end of file. Only the window plus enclosing multi-line records is held.
func Window(path string, l *layout.Layout, start, end int) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if start < 1 {
		start = 1
	}

	var out []*Record
	sc := NewScanner(f, l)
	for {
		rec, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log file: %w", err)
		}
		if end > 0 && rec.LineNumber >= end {
			break
		}
		if rec.EndLine >= start {
			out = append(out, rec)
		}
	}
	return out, nil
}
