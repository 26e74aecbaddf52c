package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/broady/lexgen/cmd/lexgen/internal/project"
	"github.com/broady/lexgen/internal/loader"
	"github.com/broady/lexgen/internal/watch"
	"github.com/broady/lexgen/lexgen/sink"
)

type Cmd struct {
	project.Options `embed:""`

	Out         string `help:"Output directory for generated files (default: out from the config file)." short:"o"`
	Watch       bool   `help:"Watch inputs for changes and regenerate." short:"w"`
	NoGuards    bool   `help:"Skip is<Name>/validate<Name> functions."`
	Concurrency int    `help:"Maximum documents emitted in parallel (0 = GOMAXPROCS)."`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	fs := afero.NewOsFs()
	p, err := c.Open(fs, logger)
	if err != nil {
		return err
	}
	if c.Out != "" {
		p.Config.Out = c.Out
	}
	if c.NoGuards {
		p.Config.SkipGuards = true
	}
	if c.Concurrency > 0 {
		p.Config.Concurrency = c.Concurrency
	}

	outDir, err := filepath.Abs(p.Config.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run := func(ctx context.Context) error {
		docs, err := p.Documents(ctx)
		if err != nil {
			return err
		}
		res, err := p.Generator(docs).ToSink(ctx, sink.NewFsSink(fs, outDir))
		if err != nil {
			return err
		}
		fmt.Printf("✓ %d documents, %d methods, %d files written to %s\n",
			res.Stats.Documents, res.Stats.Methods, len(res.Files), outDir)
		return nil
	}

	if !c.Watch {
		return run(ctx)
	}
	if err := run(ctx); err != nil {
		logger.Error("generate failed", slog.Any("error", err))
	}

	w, err := watch.New(watch.Config{
		Roots:  loader.Roots(p.Config.Inputs),
		Match:  loader.Recognized,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	logger.Info("watching for changes", slog.Any("inputs", p.Config.Inputs))
	return w.Run(ctx, func(ctx context.Context, _ []string) error {
		return run(ctx)
	})
}
