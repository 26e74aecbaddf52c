package loader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/broady/lexgen/lexicon"
)

var fixture = txtar.Parse([]byte(`Lexicon tree used by the loader tests.
-- com/example/ping.yaml --
lexicon: 1
id: com.example.ping
defs:
  main:
    type: query
-- com/example/defs.json --
{"lexicon": 1, "id": "com.example.defs", "defs": {"flag": {"type": "token"}}}
-- notes.txt --
not a lexicon
`))

var bundle = &txtar.Archive{
	Comment: []byte("two documents in one file\n"),
	Files: []txtar.File{
		{Name: "a.json", Data: []byte(`{"lexicon": 1, "id": "org.example.a", "defs": {"main": {"type": "procedure"}}}` + "\n")},
		{Name: "README", Data: []byte("skipped\n")},
		{Name: "b.yaml", Data: []byte("lexicon: 1\nid: org.example.b\ndefs:\n  main:\n    type: query\n")},
	},
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range fixture.Files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/lex", f.Name), f.Data, 0o644))
	}
	require.NoError(t, afero.WriteFile(fs, "/lex/bundle.txtar", txtar.Format(bundle), 0o644))
	return fs
}

func TestResolve_Directory(t *testing.T) {
	files, err := New(newFs(t)).Resolve([]string{"/lex"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/lex/bundle.txtar",
		"/lex/com/example/defs.json",
		"/lex/com/example/ping.yaml",
	}, files)
}

func TestResolve_SkipsHiddenDirectories(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/lex/.cache/stale.json", []byte("{}"), 0o644))

	files, err := New(fs).Resolve([]string{"/lex"})
	require.NoError(t, err)
	assert.NotContains(t, files, "/lex/.cache/stale.json")
}

func TestResolve_Glob(t *testing.T) {
	files, err := New(newFs(t)).Resolve([]string{"/lex/**/*.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/lex/com/example/defs.json"}, files)
}

func TestResolve_Deduplicates(t *testing.T) {
	files, err := New(newFs(t)).Resolve([]string{"/lex/com/example/ping.yaml", "/lex/com"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/lex/com/example/ping.yaml",
		"/lex/com/example/defs.json",
	}, files)
}

func TestResolve_Errors(t *testing.T) {
	l := New(newFs(t))

	_, err := l.Resolve([]string{"/missing"})
	assert.Error(t, err)

	_, err = l.Resolve([]string{"/lex/**/*.yml"})
	assert.ErrorContains(t, err, "no files match pattern")
}

func TestLoad(t *testing.T) {
	docs, err := New(newFs(t)).Load(context.Background(), []string{"/lex"})
	require.NoError(t, err)

	var ids, sources []string
	for _, d := range docs {
		ids = append(ids, d.ID)
		sources = append(sources, d.Source)
	}
	assert.Equal(t, []string{"org.example.a", "org.example.b", "com.example.defs", "com.example.ping"}, ids)
	assert.Equal(t, []string{
		"/lex/bundle.txtar:a.json",
		"/lex/bundle.txtar:b.yaml",
		"/lex/com/example/defs.json",
		"/lex/com/example/ping.yaml",
	}, sources)
}

func TestLoad_MalformedNamesFile(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/bad/broken.json", []byte(`{"lexicon": 1}`), 0o644))

	_, err := New(fs).Load(context.Background(), []string{"/bad"})
	var lexErr *lexicon.Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, lexicon.CodeSchemaMalformed, lexErr.Code)
	assert.Equal(t, "/bad/broken.json", lexErr.Document)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newFs(t)).Load(ctx, []string{"/lex"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, found, err := LoadConfig(fs, ConfigFile)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, afero.WriteFile(fs, ConfigFile, []byte(`
inputs:
  - lexicons/**/*.json
out: ./src/lexicon
skip_guards: true
typescript:
  indent_size: 4
  import_extension: .js
`), 0o644))
	cfg, found, err = LoadConfig(fs, ConfigFile)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"lexicons/**/*.json"}, cfg.Inputs)
	assert.Equal(t, "./src/lexicon", cfg.Out)
	assert.True(t, cfg.SkipGuards)
	assert.Equal(t, 4, cfg.TypeScript.IndentSize)
	assert.Equal(t, ".js", cfg.TypeScript.ImportExtension)
}

func TestLoadConfig_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ConfigFile, []byte("out: \"\"\n"), 0o644))
	_, _, err := LoadConfig(fs, ConfigFile)
	assert.ErrorContains(t, err, "out is required")

	require.NoError(t, afero.WriteFile(fs, ConfigFile, []byte("inputs: {\n"), 0o644))
	_, _, err = LoadConfig(fs, ConfigFile)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestRoots(t *testing.T) {
	got := Roots([]string{"lexicons/**/*.json", "extra/one.json", "lexicons/com/", "", "*.yaml"})
	assert.Equal(t, []string{"lexicons", "extra/one.json", "lexicons/com", "."}, got)
}
