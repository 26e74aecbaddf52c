// Package lexgen compiles batches of lexicon documents into code shapes:
// typed contracts per document, a validator aggregate, and a server scaffold
// mirroring the namespace hierarchy.
//
// Compilation has two phases. Analyze validates the whole batch and builds
// the registry, the namespace tree and the token groups; Compile then emits
// one unit per document, in parallel, followed by the aggregate units. A
// failure in either phase yields no units at all.
package lexgen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/broady/lexgen/lexgen/render"
	"github.com/broady/lexgen/lexgen/shape"
	"github.com/broady/lexgen/lexicon"
)

// Batch is the immutable result of phase one.
type Batch struct {
	Lexicons *lexicon.Lexicons
	Tree     *Tree
	Tokens   *TokenGroups

	// Warnings collects the warnings of every document, in input order.
	Warnings []lexicon.Warning
}

// Analyze runs phase one over validated documents.
func Analyze(docs []*lexicon.Document) (*Batch, error) {
	lex, err := lexicon.NewLexicons(docs)
	if err != nil {
		return nil, err
	}
	tree, err := BuildTree(docs)
	if err != nil {
		return nil, err
	}
	tokens, err := GroupTokens(docs)
	if err != nil {
		return nil, err
	}
	b := &Batch{Lexicons: lex, Tree: tree, Tokens: tokens}
	for _, doc := range docs {
		b.Warnings = append(b.Warnings, doc.Warnings...)
	}
	return b, nil
}

// ParseValues validates raw document values in order and stops at the first
// malformed one. Errors without a document identifier name the input index.
func ParseValues(raw []any) ([]*lexicon.Document, error) {
	docs := make([]*lexicon.Document, 0, len(raw))
	for i, v := range raw {
		doc, err := lexicon.ParseDocument(v)
		if err != nil {
			if lexErr, ok := err.(*lexicon.Error); ok && lexErr.Document == "" {
				lexErr.Document = fmt.Sprintf("input %d", i)
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Result is the output of Compile.
type Result struct {
	// Units holds one unit per document in input order, then the lexicons
	// and index aggregates.
	Units    []*shape.Unit
	Warnings []lexicon.Warning
	Stats    Stats
}

// Stats summarizes a compilation.
type Stats struct {
	Documents  int
	Units      int
	Methods    int
	Tokens     int
	Namespaces int
}

// Unit returns the unit called name, or nil.
func (r *Result) Unit(name string) *shape.Unit {
	for _, u := range r.Units {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// Compile runs phase two over an analyzed batch.
//
// Document units are independent and are emitted concurrently. When several
// fail, the error of the earliest document in input order is returned, so
// the outcome does not depend on scheduling. ctx is checked before each unit.
func Compile(ctx context.Context, batch *Batch, cfg *Config) (*Result, error) {
	cfg = applyConfigDefaults(cfg)
	logger := cfg.Logger
	start := time.Now()

	docs := batch.Lexicons.All()
	units := make([]*shape.Unit, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			units[i], errs[i] = emitDocument(batch.Lexicons, doc, cfg)
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			logger.Debug("emit failed", slog.String("document", docs[i].ID), slog.Any("error", err))
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lexUnit, err := emitLexicons(batch.Lexicons)
	if err != nil {
		return nil, err
	}
	index, err := emitIndex(batch.Tree, batch.Tokens)
	if err != nil {
		return nil, err
	}
	units = append(units, lexUnit, index)

	res := &Result{
		Units:    units,
		Warnings: batch.Warnings,
		Stats: Stats{
			Documents:  len(docs),
			Units:      len(units),
			Methods:    batch.Tree.MethodCount(),
			Tokens:     batch.Tokens.Count(),
			Namespaces: batch.Tree.Len(),
		},
	}
	logger.Debug("compiled",
		slog.Int("documents", res.Stats.Documents),
		slog.Int("units", res.Stats.Units),
		slog.Int("methods", res.Stats.Methods),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Render issues the structural requests of every unit to backend and
// returns the files in unit order.
func Render(ctx context.Context, res *Result, backend render.Backend) ([]render.File, error) {
	files := make([]render.File, 0, len(res.Units))
	for _, u := range res.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := render.Apply(backend, u)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
