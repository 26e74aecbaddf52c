package check

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/broady/lexgen/cmd/lexgen/internal/project"
)

type Cmd struct {
	project.Options `embed:""`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	p, err := c.Open(afero.NewOsFs(), logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	docs, err := p.Documents(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Loaded %d documents\n", len(docs))

	res, err := p.Generator(docs).Generate(ctx)
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		fmt.Printf("! %s\n", w)
	}
	fmt.Printf("✓ %d namespaces, %d methods, %d tokens\n",
		res.Stats.Namespaces, res.Stats.Methods, res.Stats.Tokens)
	fmt.Println("✓ All references resolvable")
	return nil
}
