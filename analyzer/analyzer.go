// Package analyzer drives semantic analysis of Jadescript compilation
// units: it parses, resolves declarations, builds the context chain and
// records the refinements known under every condition.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/descriptor"
	"github.com/jadescript/jadescript-go/diagnostic"
	"github.com/jadescript/jadescript-go/narrowing"
	"github.com/jadescript/jadescript-go/scope"
	"github.com/jadescript/jadescript-go/types"
)

var (
	// ErrParse wraps syntax errors
	ErrParse = errors.New("parse failed")
	// ErrAnalysisFailed is returned in strict mode when a unit has errors
	ErrAnalysisFailed = errors.New("analysis reported errors")
)

// Options configures an Analyzer
type Options struct {
	// Logger receives progress records; slog.Default() when nil
	Logger *slog.Logger
	// Strict makes any error diagnostic fail the unit
	Strict bool
	// Module names the module handle of every unit; defaults to the file
	// name without extension
	Module string
	// Parallelism bounds AnalyzeFiles; zero or less means unbounded
	Parallelism int
}

// Analyzer analyzes compilation units. It holds no per-unit state and may
// be shared between goroutines.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

// New creates an analyzer
func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{opts: opts, logger: logger}
}

// DeclarationInfo summarizes one analyzed top-level declaration
type DeclarationInfo struct {
	Name    string
	Keyword string
	Pos     lexer.Position
	Type    types.Type
	// Node is the innermost context of the declaration; NoParent when the
	// declaration was skipped
	Node scope.NodeID
	// Err is the error that aborted the declaration, if any
	Err error
}

// ConditionInfo records a condition met during analysis
type ConditionInfo struct {
	Pos        lexer.Position
	Node       scope.NodeID
	Descriptor descriptor.Descriptor
	Facts      narrowing.Facts
}

// Unit is the result of analyzing one file. Each unit owns its solver and
// context stack; only built-in types are shared.
type Unit struct {
	ID           uuid.UUID
	File         string
	AST          *ast.File
	Solver       *types.Solver
	Stack        *scope.Stack
	Diagnostics  *diagnostic.Sink
	Declarations []DeclarationInfo
	Conditions   []ConditionInfo
}

// Declaration finds a declaration by name
func (u *Unit) Declaration(name string) (DeclarationInfo, bool) {
	for _, d := range u.Declarations {
		if d.Name == name {
			return d, true
		}
	}
	return DeclarationInfo{}, false
}

// Dump renders the context chain of a declaration
func (u *Unit) Dump(d DeclarationInfo) string {
	n := u.Stack.Node(d.Node)
	if n == nil {
		return ""
	}
	return n.DebugDump()
}

// AnalyzeFile reads and analyzes path
func (a *Analyzer) AnalyzeFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return a.AnalyzeSource(path, data)
}

// AnalyzeSource analyzes src as the file name. The unit is returned even
// when err is non-nil so its diagnostics can be rendered.
func (a *Analyzer) AnalyzeSource(name string, src []byte) (*Unit, error) {
	unit := &Unit{
		ID:          uuid.New(),
		File:        name,
		Diagnostics: diagnostic.NewSink(name),
	}
	logger := a.logger.With(slog.String("unit", unit.ID.String()), slog.String("file", name))
	start := time.Now()

	file, err := ast.Parse(name, src)
	if err != nil {
		var pos lexer.Position
		var perr participle.Error
		if errors.As(err, &perr) {
			pos = perr.Position()
		}
		unit.Diagnostics.Errorf(pos, diagnostic.CodeParse, "%v", err)
		logger.Debug("Parse failed", slog.String("error", err.Error()))
		return unit, fmt.Errorf("%s: %w: %w", name, ErrParse, err)
	}
	unit.AST = file
	unit.Solver = types.NewSolver(file, unit.Diagnostics)
	unit.Stack = scope.NewStack(a.module(name), name)

	w := &walker{unit: unit, logger: logger}
	for _, decl := range file.Declarations {
		w.declaration(decl)
	}

	logger.Debug("Analyzed unit",
		slog.Int("declarations", len(unit.Declarations)),
		slog.Int("diagnostics", unit.Diagnostics.Len()),
		slog.Duration("elapsed", time.Since(start)))

	if a.opts.Strict && unit.Diagnostics.HasErrors() {
		return unit, strictError(name, unit.Diagnostics.All())
	}
	return unit, nil
}

// AnalyzeFiles analyzes paths concurrently, one solver and one stack per
// unit. Units are returned in input order; a slot is nil only when the file
// could not be read. Per-file failures are joined into the returned error.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) ([]*Unit, error) {
	units := make([]*Unit, len(paths))
	errs := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if a.opts.Parallelism > 0 {
		g.SetLimit(a.opts.Parallelism)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			units[i], errs[i] = a.AnalyzeFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return units, err
	}

	a.logger.Info("Analysis finished", slog.Int("files", len(paths)))
	return units, errors.Join(errs...)
}

func (a *Analyzer) module(name string) string {
	if a.opts.Module != "" {
		return a.opts.Module
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func strictError(name string, diags []diagnostic.Diagnostic) error {
	var errs []error
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			errs = append(errs, errors.New(d.String()))
		}
	}
	return fmt.Errorf("%s: %w: %w", name, ErrAnalysisFailed, errors.Join(errs...))
}
