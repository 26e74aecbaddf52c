package lexgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/broady/lexgen/lexgen/render"
	"github.com/broady/lexgen/lexgen/sink"
	"github.com/broady/lexgen/lexgen/typescript"
	"github.com/broady/lexgen/lexicon"
)

// Generator provides a fluent API for compilation.
// Create with FromDocuments() or FromValues() and configure with method chaining.
//
// Example:
//
//	lexgen.FromValues(raw...).
//	    WithLogger(logger).
//	    ToDir(ctx, "./src/lexicon")
type Generator struct {
	docs    []*lexicon.Document
	raw     []any
	backend render.Backend
	cfg     Config
}

// FromDocuments creates a Generator for already validated documents.
func FromDocuments(docs ...*lexicon.Document) *Generator {
	return &Generator{docs: docs}
}

// FromValues creates a Generator for raw document values, validated when
// the generator runs. See lexicon.ParseDocument for accepted values.
func FromValues(raw ...any) *Generator {
	return &Generator{raw: raw}
}

// FromValues adds raw document values after any documents already set.
func (g *Generator) FromValues(raw ...any) *Generator {
	g.raw = append(g.raw, raw...)
	return g
}

// WithBackend sets the rendering back-end. Default: TypeScript.
func (g *Generator) WithBackend(b render.Backend) *Generator {
	g.backend = b
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.cfg.Logger = logger
	return g
}

// WithConcurrency bounds parallel emission.
func (g *Generator) WithConcurrency(n int) *Generator {
	g.cfg.Concurrency = n
	return g
}

// WithoutGuards disables the generated is<Name> and validate<Name> functions.
func (g *Generator) WithoutGuards() *Generator {
	g.cfg.SkipGuards = true
	return g
}

// GenerateResult is the outcome of a generator run.
type GenerateResult struct {
	// Files lists the rendered units in output order.
	Files []render.File

	// Warnings contains non-fatal findings from validation.
	Warnings []lexicon.Warning

	Stats Stats
}

// Generate compiles and renders in memory without writing anything.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	cfg := applyConfigDefaults(&g.cfg)
	logger := cfg.Logger

	docs := g.docs
	if g.raw != nil {
		parsed, err := ParseValues(g.raw)
		if err != nil {
			return nil, err
		}
		docs = append(append([]*lexicon.Document(nil), docs...), parsed...)
	}

	batch, err := Analyze(docs)
	if err != nil {
		return nil, err
	}
	for _, w := range batch.Warnings {
		logger.Warn(w.Message,
			slog.String("code", w.Code),
			slog.String("document", w.Document),
			slog.String("path", w.Path))
	}

	res, err := Compile(ctx, batch, cfg)
	if err != nil {
		return nil, err
	}

	backend := g.backend
	if backend == nil {
		backend = typescript.NewBackend(typescript.Config{})
	}
	files, err := Render(ctx, res, backend)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", backend.Name(), err)
	}
	return &GenerateResult{Files: files, Warnings: res.Warnings, Stats: res.Stats}, nil
}

// ToSink generates and writes every file to s. Nothing is written when
// compilation fails.
func (g *Generator) ToSink(ctx context.Context, s sink.OutputSink) (*GenerateResult, error) {
	res, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range res.Files {
		if err := s.WriteFile(ctx, f.Path, f.Content); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return res, nil
}

// ToDir generates files to the specified directory.
func (g *Generator) ToDir(ctx context.Context, dir string) (*GenerateResult, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	return g.ToSink(ctx, sink.NewFilesystemSink(dir))
}
