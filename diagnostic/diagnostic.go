// Package diagnostic collects and renders analysis findings.
package diagnostic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"

	CodeUnresolvedType           = "unresolved-type"
	CodeDuplicateDeclaration     = "duplicate-declaration"
	CodeSupertypeCycle           = "supertype-cycle"
	CodeUnknownSymbol            = "unknown-symbol"
	CodeAgentReference           = "agent-reference"
	CodeUninitializedDeclaration = "uninitialized-declaration"
	CodeInvalidDescriptor        = "invalid-descriptor"
	CodeInvalidNesting           = "invalid-nesting"
	CodeParse                    = "parse"
)

// Diagnostic is a single analysis finding.
type Diagnostic struct {
	File     string         `json:"file"`
	Pos      lexer.Position `json:"-"`
	Severity string         `json:"severity"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
}

// String renders the diagnostic as file:line:col [code] message
func (d Diagnostic) String() string {
	line, col := d.Pos.Line, d.Pos.Column
	if line <= 0 {
		line = 1
	}
	if col <= 0 {
		col = 1
	}
	return fmt.Sprintf("%s:%d:%d [%s] %s", d.File, line, col, d.Code, d.Message)
}

// Sink accumulates diagnostics for one or more compilation units. It is safe
// for concurrent use.
type Sink struct {
	mu    sync.Mutex
	file  string
	items []Diagnostic
}

// NewSink creates a sink whose diagnostics default to the given file name
func NewSink(file string) *Sink {
	return &Sink{file: file}
}

// Add records a diagnostic, filling in the sink's file name when missing
func (s *Sink) Add(d Diagnostic) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.File == "" {
		d.File = s.file
	}
	if d.File == "" {
		d.File = d.Pos.Filename
	}
	s.items = append(s.items, d)
}

// Errorf records an error diagnostic
func (s *Sink) Errorf(pos lexer.Position, code, format string, args ...interface{}) {
	s.Add(Diagnostic{Pos: pos, Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning diagnostic
func (s *Sink) Warnf(pos lexer.Position, code, format string, args ...interface{}) {
	s.Add(Diagnostic{Pos: pos, Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Len returns the number of recorded diagnostics
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// HasErrors reports whether any error-severity diagnostic was recorded
func (s *Sink) HasErrors() bool {
	for _, d := range s.All() {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// All returns a sorted copy of the recorded diagnostics
func (s *Sink) All() []Diagnostic {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	out := append([]Diagnostic{}, s.items...)
	s.mu.Unlock()
	Sort(out)
	return out
}

// Sort orders diagnostics by file, line and column. Ties keep their
// recording order.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		if diags[i].Pos.Line != diags[j].Pos.Line {
			return diags[i].Pos.Line < diags[j].Pos.Line
		}
		return diags[i].Pos.Column < diags[j].Pos.Column
	})
}

// FormatText renders one diagnostic per line. When colored is set the
// severity is prefixed and highlighted.
func FormatText(diags []Diagnostic, colored bool) string {
	errStyle := color.New(color.FgRed, color.Bold)
	warnStyle := color.New(color.FgYellow)
	if !colored {
		errStyle.DisableColor()
		warnStyle.DisableColor()
	}

	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		if !colored {
			lines = append(lines, d.String())
			continue
		}
		style := warnStyle
		if d.Severity == SeverityError {
			style = errStyle
		}
		lines = append(lines, style.Sprint(d.Severity)+": "+d.String())
	}
	return strings.Join(lines, "\n")
}

type jsonDiagnostic struct {
	Diagnostic
	Line   int `json:"line"`
	Column int `json:"column"`
}

// FormatJSON renders diagnostics as an indented JSON array
func FormatJSON(diags []Diagnostic) (string, error) {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, jsonDiagnostic{Diagnostic: d, Line: d.Pos.Line, Column: d.Pos.Column})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return string(data), nil
}
