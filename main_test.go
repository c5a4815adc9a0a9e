package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsontree/internal/config"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/models"
)

const sampleJSON = `{
	"user": {"name": "John Doe", "address": {"city": "San Francisco"}},
	"items": [
		{"id": 101, "name": "Laptop", "price": 1299.99},
		{"id": 102, "name": "Mouse", "price": 29.99}
	]
}`

// withInput points the CLI at a temp file holding content and restores the
// previous CLI state when the test ends.
func withInput(t *testing.T, content string) {
	t.Helper()
	originalCLI := CLI
	t.Cleanup(func() { CLI = originalCLI })

	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	CLI.Input = path
}

func testContext(stdout io.Writer) *Context {
	logger := logging.New(io.Discard, false)
	cfg := config.NewConfig()
	cfg.Output.Color = false
	return &Context{
		Context: logging.WithLogger(context.Background(), logger),
		Config:  cfg,
		Logger:  logger,
		Stdout:  stdout,
	}
}

func TestBuild_JSON(t *testing.T) {
	withInput(t, sampleJSON)

	var out bytes.Buffer
	require.NoError(t, (&BuildCmd{Format: "json"}).Run(testContext(&out)))

	var tr models.Tree
	require.NoError(t, json.Unmarshal(out.Bytes(), &tr))
	assert.NotEmpty(t, tr.BuildID)
	require.Len(t, tr.Nodes, 14)
	assert.Len(t, tr.Edges, 13)
	assert.Equal(t, "root {2}", tr.Nodes[0].Label)
	assert.Equal(t, "$.user", tr.Nodes[1].JSONPath)
}

func TestBuild_Text(t *testing.T) {
	withInput(t, `{"a":[1,true],"b":null}`)

	var out bytes.Buffer
	require.NoError(t, (&BuildCmd{Format: "text"}).Run(testContext(&out)))

	expected := `root {2}  ($)
  a [2]  ($.a)
    0: 1  ($.a[0])
    1: true  ($.a[1])
  b: null  ($.b)
`
	assert.Equal(t, expected, out.String())
}

func TestBuild_ToFile(t *testing.T) {
	withInput(t, `[1,2,3]`)
	outPath := filepath.Join(t.TempDir(), "tree.json")

	var out bytes.Buffer
	require.NoError(t, (&BuildCmd{Format: "json", Output: outPath, Compact: true}).Run(testContext(&out)))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"buildId":"`))
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestBuild_CustomLayout(t *testing.T) {
	withInput(t, `[1,2]`)

	ctx := testContext(nil)
	var out bytes.Buffer
	ctx.Stdout = &out
	ctx.Config.Layout.NodeWidth = 50
	ctx.Config.Layout.HorizontalSpacing = 10
	ctx.Config.Layout.VerticalSpacing = 40
	require.NoError(t, (&BuildCmd{Format: "json"}).Run(ctx))

	var tr models.Tree
	require.NoError(t, json.Unmarshal(out.Bytes(), &tr))
	assert.Equal(t, models.Position{X: -30, Y: 40}, tr.Nodes[1].Position)
	assert.Equal(t, models.Position{X: 30, Y: 40}, tr.Nodes[2].Position)
}

func TestSearch(t *testing.T) {
	withInput(t, sampleJSON)

	tests := []struct {
		name     string
		cmd      SearchCmd
		expected string
	}{
		{"exact without prefix", SearchCmd{Path: "user.address.city"}, `city: "San Francisco"  ($.user.address.city)` + "\n"},
		{"array index", SearchCmd{Path: "$.items[1].name"}, `name: "Mouse"  ($.items[1].name)` + "\n"},
		{"case-insensitive", SearchCmd{Path: "USER.NAME", ShowTier: true}, `name: "John Doe"  ($.user.name)` + "\ntier: substring\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, tt.cmd.Run(testContext(&out)))
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestSearch_Outline(t *testing.T) {
	withInput(t, `{"a":{"b":1},"c":2}`)

	var out bytes.Buffer
	require.NoError(t, (&SearchCmd{Path: "a.b", Outline: true}).Run(testContext(&out)))

	expected := `root {2}  ($)
  a {1}  ($.a)
    * b: 1  ($.a.b)
  c: 2  ($.c)
`
	assert.Equal(t, expected, out.String())
}

func TestSearch_JSON(t *testing.T) {
	withInput(t, sampleJSON)

	var out bytes.Buffer
	require.NoError(t, (&SearchCmd{Path: "items[0]", Format: "json"}).Run(testContext(&out)))

	var result struct {
		Match models.TreeNode `json:"match"`
		Tier  string          `json:"tier"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "$.items[0]", result.Match.JSONPath)
	assert.True(t, result.Match.Highlighted)
	assert.Equal(t, "exact", result.Tier)
}

func TestSearch_NoMatch(t *testing.T) {
	withInput(t, sampleJSON)

	var out bytes.Buffer
	err := (&SearchCmd{Path: "$.nonexistent.path"}).Run(testContext(&out))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNoMatch))
	assert.Equal(t, "No match found", errors.UserFriendlyError(err))
	assert.Empty(t, out.String())
}

func TestQuery(t *testing.T) {
	withInput(t, sampleJSON)

	var out bytes.Buffer
	require.NoError(t, (&QueryCmd{Expr: "$.items[?@.price < 100].name"}).Run(testContext(&out)))
	assert.Equal(t, `name: "Mouse"  ($.items[1].name)`+"\n", out.String())
}

func TestQuery_JSONEmpty(t *testing.T) {
	withInput(t, sampleJSON)

	var out bytes.Buffer
	require.NoError(t, (&QueryCmd{Expr: "$.missing", Format: "json"}).Run(testContext(&out)))
	assert.Equal(t, "[]\n", out.String())
}

func TestQuery_InvalidExpression(t *testing.T) {
	withInput(t, sampleJSON)

	err := (&QueryCmd{Expr: "$.items["}).Run(testContext(io.Discard))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeQuery}))
}

func TestRender_DOTWithHighlight(t *testing.T) {
	withInput(t, sampleJSON)

	ctx := testContext(nil)
	var out bytes.Buffer
	ctx.Stdout = &out
	ctx.Config.Output.Format = "dot"
	require.NoError(t, (&RenderCmd{Highlight: "user.name"}).Run(ctx))

	dot := out.String()
	assert.True(t, strings.HasPrefix(dot, "digraph jsontree {"))
	assert.Equal(t, 1, strings.Count(dot, "penwidth=3"))
	assert.Contains(t, dot, `tooltip="$.user.name"`)
}

func TestRender_HighlightWithoutMatch(t *testing.T) {
	withInput(t, sampleJSON)

	ctx := testContext(io.Discard)
	ctx.Config.Output.Format = "dot"
	err := (&RenderCmd{Format: "text", Highlight: "$.nope"}).Run(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNoMatch))
}

func TestRender_UnknownFormat(t *testing.T) {
	withInput(t, sampleJSON)

	err := (&RenderCmd{Format: "gif"}).Run(testContext(io.Discard))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownFormat))
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&VersionCmd{}).Run(testContext(&out)))
	assert.Equal(t, "jsontree version "+Version+"\n", out.String())
}

func TestParseInput_FromFile(t *testing.T) {
	withInput(t, `{"user": {"name": "Alice", "id": 42}}`)

	v, err := parseInput()
	require.NoError(t, err)
	assert.Equal(t, models.ObjectValue, v.Kind)
	assert.Equal(t, "user", v.Members[0].Key)
}

func TestParseInput_FromStdin(t *testing.T) {
	originalCLI := CLI
	originalStdin := os.Stdin
	defer func() {
		CLI = originalCLI
		os.Stdin = originalStdin
	}()

	CLI.Input = ""

	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		defer func() { _ = w.Close() }()
		_, _ = w.WriteString(`[{"item": "apple"}, {"item": "banana"}]`)
	}()

	os.Stdin = r
	defer func() { _ = r.Close() }()

	v, err := parseInput()
	require.NoError(t, err)
	assert.Equal(t, models.ArrayValue, v.Kind)
	assert.Equal(t, 2, v.Len())
}

func TestParseInput_EmptyStdin(t *testing.T) {
	originalCLI := CLI
	originalStdin := os.Stdin
	defer func() {
		CLI = originalCLI
		os.Stdin = originalStdin
	}()

	CLI.Input = ""

	r, w, err := os.Pipe()
	require.NoError(t, err)
	_ = w.Close()

	os.Stdin = r
	defer func() { _ = r.Close() }()

	_, err = parseInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestParseInput_EmptyFile(t *testing.T) {
	withInput(t, "")

	_, err := parseInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileEmpty))
}

func TestParseInput_InvalidJSON(t *testing.T) {
	withInput(t, `{"name": "John", "age": }`)

	_, err := parseInput()
	require.Error(t, err)
	assert.Contains(t, errors.UserFriendlyError(err), "JSON parsing error")
}

func TestParseInput_NonExistentFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = "/non/existent/file.json"

	_, err := parseInput()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
}

func TestWriteOutput_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, writeOutput(testContext(io.Discard), path, []byte("hello\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWriteOutput_ToStdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeOutput(testContext(&out), "", []byte("hello\n")))
	assert.Equal(t, "hello\n", out.String())
}

func TestWriteOutput_FileError(t *testing.T) {
	err := writeOutput(testContext(io.Discard), "/non/existent/dir/out.txt", []byte("x"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeOutput}))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "plain")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, isTerminal(f))
}
