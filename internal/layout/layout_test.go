package layout

import (
	"strings"
	"testing"
)

func TestDefault_Apply(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		wantOK        bool
		wantTimestamp string
		wantLevel     string
		wantMessage   string
	}{
		{
			name:          "bare uppercase level",
			line:          "2025-01-01 00:00:00 FINE basic foo: Hello from foo i=2",
			wantOK:        true,
			wantTimestamp: "2025-01-01 00:00:00",
			wantLevel:     "FINE",
			wantMessage:   "basic foo: Hello from foo i=2",
		},
		{
			name:          "bracketed level",
			line:          "2025-06-30T12:00:01.123 [INFO] server started",
			wantOK:        true,
			wantTimestamp: "2025-06-30T12:00:01.123",
			wantLevel:     "INFO",
			wantMessage:   "server started",
		},
		{
			name:          "single letter level",
			line:          "2025-06-30 12:00:01 W low disk space",
			wantOK:        true,
			wantTimestamp: "2025-06-30 12:00:01",
			wantLevel:     "W",
			wantMessage:   "low disk space",
		},
		{
			name:   "no timestamp",
			line:   "just some text",
			wantOK: false,
		},
		{
			name:   "continuation line",
			line:   "    at a.b.Foo.bar(Foo.java:12)",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Default().Apply(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Apply(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if f.Timestamp != tt.wantTimestamp {
				t.Errorf("Timestamp = %q, want %q", f.Timestamp, tt.wantTimestamp)
			}
			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}
			if f.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", f.Message, tt.wantMessage)
			}
		})
	}
}

func TestCompile_CustomPattern(t *testing.T) {
	l, err := Compile("{timestamp} [{thread}] {level} {logger} - {message}")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	line := "2025-01-02 03:04:05 [main] INFO com.example.App - started in 2s"
	f, ok := l.Apply(line)
	if !ok {
		t.Fatalf("Apply(%q) did not match", line)
	}
	if f.Thread != "main" {
		t.Errorf("Thread = %q, want %q", f.Thread, "main")
	}
	if f.Logger != "com.example.App" {
		t.Errorf("Logger = %q, want %q", f.Logger, "com.example.App")
	}
	if f.Message != "started in 2s" {
		t.Errorf("Message = %q, want %q", f.Message, "started in 2s")
	}
}

func TestCompile_WhitespaceCollapses(t *testing.T) {
	l, err := Compile("{level}  {message}")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if _, ok := l.Apply("INFO     lots of space"); !ok {
		t.Error("pattern with collapsed whitespace should match multiple spaces")
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"unknown directive", "{timestamp} {nope} {message}"},
		{"duplicate directive", "{level} {level} {message}"},
		{"empty pattern", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.pattern); err == nil {
				t.Errorf("Compile(%q) should fail", tt.pattern)
			}
		})
	}
}

// The body extracted by any matching layout must be a suffix of the line.
func TestApply_BodyIsSuffix(t *testing.T) {
	layouts := []*Layout{Default()}
	if l, err := Compile("{timestamp} {level} {message}"); err == nil {
		layouts = append(layouts, l)
	}

	lines := []string{
		"2025-01-01 00:00:00 FINE basic foo: Hello from foo i=2",
		"2025-06-30T12:00:01 ERROR boom",
	}
	for _, l := range layouts {
		for _, line := range lines {
			f, ok := l.Apply(line)
			if !ok {
				continue
			}
			if !strings.HasSuffix(line, f.Message) {
				t.Errorf("layout %q: body %q is not a suffix of %q", l.Pattern(), f.Message, line)
			}
		}
	}
}
