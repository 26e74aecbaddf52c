// Package loader reads lexicon documents from files, directories, glob
// patterns and txtar bundles.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"golang.org/x/tools/txtar"

	"github.com/broady/lexgen/lexicon"
)

// Extensions lists the file extensions recognized as lexicon documents.
var Extensions = []string{".json", ".yaml", ".yml"}

// BundleExtension marks a txtar archive holding several documents.
const BundleExtension = ".txtar"

// Loader resolves inputs against a filesystem.
type Loader struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New returns a Loader reading from fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, logger: slog.Default()}
}

// WithLogger sets the logger.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Resolve expands inputs to the list of files to read, in input order.
// Directories are walked in lexical order; glob matches are sorted. A file
// reached by more than one input is listed once.
func (l *Loader) Resolve(inputs []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, in := range inputs {
		if in == "" {
			continue
		}
		if containsGlob(in) {
			matches, err := l.glob(in)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match pattern: %s", in)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := l.fs.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		err = afero.Walk(l.fs, in, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if p != in && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if Recognized(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
	}
	return files, nil
}

// glob matches pattern with ** support. The non-magic prefix of the
// pattern is the search root.
func (l *Loader) glob(pattern string) ([]string, error) {
	base, pat := doublestar.SplitPattern(filepath.ToSlash(pattern))
	root := filepath.FromSlash(base)
	fsys := afero.NewIOFS(l.fs)
	if root != "." {
		fsys = afero.NewIOFS(afero.NewBasePathFs(l.fs, root))
	}

	matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if Recognized(m) {
			out = append(out, filepath.Join(root, filepath.FromSlash(m)))
		}
	}
	slices.Sort(out)
	return out, nil
}

// Load reads every document reachable from inputs. Each document's Source
// is set to the file it came from, or archive:member for bundles.
func (l *Loader) Load(ctx context.Context, inputs []string) ([]*lexicon.Document, error) {
	files, err := l.Resolve(inputs)
	if err != nil {
		return nil, err
	}
	var docs []*lexicon.Document
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := l.LoadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, got...)
	}
	l.logger.Debug("loaded lexicons",
		slog.Int("files", len(files)),
		slog.Int("documents", len(docs)))
	return docs, nil
}

// LoadFile reads one document file or bundle.
func (l *Loader) LoadFile(path string) ([]*lexicon.Document, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if filepath.Ext(path) == BundleExtension {
		return decodeBundle(path, data)
	}
	doc, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	return []*lexicon.Document{doc}, nil
}

// decodeBundle decodes every recognized member of a txtar archive. Other
// members, such as notes, are skipped.
func decodeBundle(path string, data []byte) ([]*lexicon.Document, error) {
	ar := txtar.Parse(data)
	var docs []*lexicon.Document
	for _, f := range ar.Files {
		if !Recognized(f.Name) {
			continue
		}
		doc, err := decode(path+":"+f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decode(source string, data []byte) (*lexicon.Document, error) {
	doc, err := lexicon.DecodeDocument(data)
	if err != nil {
		if lexErr, ok := err.(*lexicon.Error); ok && lexErr.Document == "" {
			lexErr.Document = source
		}
		return nil, err
	}
	doc.Source = source
	return doc, nil
}

// Recognized reports whether name has a document or bundle extension.
func Recognized(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == BundleExtension || slices.Contains(Extensions, ext)
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Roots returns the paths that contain every input: the input itself for
// files and directories, and the static prefix of glob patterns.
func Roots(inputs []string) []string {
	var roots []string
	for _, in := range inputs {
		if in == "" {
			continue
		}
		if containsGlob(in) {
			base, _ := doublestar.SplitPattern(filepath.ToSlash(in))
			in = filepath.FromSlash(base)
		}
		in = filepath.Clean(in)
		if !slices.Contains(roots, in) {
			roots = append(roots, in)
		}
	}
	return roots
}
