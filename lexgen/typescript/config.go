package typescript

import "strings"

// DefaultFrontmatter heads every generated file unless Config.Frontmatter is set.
const DefaultFrontmatter = "/**\n * GENERATED CODE - DO NOT MODIFY\n */"

// Config controls TypeScript formatting.
type Config struct {
	// IndentSize is the number of spaces per indent level. Default: 2
	IndentSize int

	// OmitComments drops JSDoc comments from the output.
	OmitComments bool

	// Frontmatter is content added to the top of each generated file.
	// Default: DefaultFrontmatter. Use "-" for none.
	Frontmatter string

	// ImportExtension is appended to relative import paths, e.g. ".js" for
	// ESM output. Default: none.
	ImportExtension string
}

func applyDefaults(cfg Config) Config {
	if cfg.IndentSize <= 0 {
		cfg.IndentSize = 2
	}
	switch cfg.Frontmatter {
	case "":
		cfg.Frontmatter = DefaultFrontmatter
	case "-":
		cfg.Frontmatter = ""
	}
	return cfg
}

func (c Config) indent(depth int) string {
	return strings.Repeat(" ", c.IndentSize*depth)
}
