// Package project resolves the configuration and inputs shared by the
// lexgen subcommands.
package project

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/broady/lexgen/internal/loader"
	"github.com/broady/lexgen/lexgen"
	"github.com/broady/lexgen/lexgen/typescript"
	"github.com/broady/lexgen/lexicon"
)

// Options are the flags common to every subcommand.
type Options struct {
	Inputs []string `arg:"" optional:"" help:"Lexicon files, directories, globs or .txtar bundles (default: inputs from the config file)."`
	Config string   `help:"Path to the project configuration." default:"lexgen.yaml" short:"c"`
}

// Project is a resolved configuration bound to a filesystem.
type Project struct {
	Config *loader.Config
	Loader *loader.Loader
	logger *slog.Logger
}

// Open reads the configuration file when present and applies the
// command-line inputs over it.
func (o *Options) Open(fs afero.Fs, logger *slog.Logger) (*Project, error) {
	cfg, found, err := loader.LoadConfig(fs, o.Config)
	if err != nil {
		return nil, err
	}
	if len(o.Inputs) > 0 {
		cfg.Inputs = o.Inputs
	}
	if len(cfg.Inputs) == 0 {
		return nil, errors.New("no inputs: pass lexicon paths or set inputs in " + o.Config)
	}
	logger.Debug("configuration",
		slog.String("file", o.Config),
		slog.Bool("found", found),
		slog.Any("inputs", cfg.Inputs))

	return &Project{
		Config: cfg,
		Loader: loader.New(fs).WithLogger(logger),
		logger: logger,
	}, nil
}

// Documents loads every input document.
func (p *Project) Documents(ctx context.Context) ([]*lexicon.Document, error) {
	return p.Loader.Load(ctx, p.Config.Inputs)
}

// Generator returns a generator for docs configured from the project.
func (p *Project) Generator(docs []*lexicon.Document) *lexgen.Generator {
	ts := p.Config.TypeScript
	g := lexgen.FromDocuments(docs...).
		WithLogger(p.logger).
		WithConcurrency(p.Config.Concurrency).
		WithBackend(typescript.NewBackend(typescript.Config{
			IndentSize:      ts.IndentSize,
			OmitComments:    ts.OmitComments,
			Frontmatter:     ts.Frontmatter,
			ImportExtension: ts.ImportExtension,
		}))
	if p.Config.SkipGuards {
		g = g.WithoutGuards()
	}
	return g
}
