package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/mcncl/jsontree/internal/analyzer"
	"github.com/mcncl/jsontree/internal/config"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/explorer"
	"github.com/mcncl/jsontree/internal/formatter"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/parser"
	"github.com/mcncl/jsontree/internal/pathmatch"
	"github.com/mcncl/jsontree/internal/query"
	"github.com/mcncl/jsontree/internal/render"
	"github.com/mcncl/jsontree/internal/server"
	"github.com/mcncl/jsontree/internal/tree"
)

// Globals are the flags shared by every command.
type Globals struct {
	Input       string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Config      string `help:"Path to a .jsontree.yml or .jsontree.toml config file." short:"c" type:"path"`
	Debug       bool   `help:"Enable debug logging." short:"d"`
	Interactive bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`

	NodeWidth  float64 `help:"Node width in layout units. Overrides the config file." name:"node-width"`
	NodeHeight float64 `help:"Node height in layout units. Overrides the config file." name:"node-height"`
	HSpacing   float64 `help:"Horizontal gap between sibling subtrees. Overrides the config file." name:"h-spacing"`
	VSpacing   float64 `help:"Vertical distance between depth levels. Overrides the config file." name:"v-spacing"`
}

// layout collects the layout flags; zero fields mean unset.
func (g Globals) layout() tree.LayoutConfig {
	return tree.LayoutConfig{
		NodeWidth:         g.NodeWidth,
		NodeHeight:        g.NodeHeight,
		HorizontalSpacing: g.HSpacing,
		VerticalSpacing:   g.VSpacing,
	}
}

// CLI defines the command-line interface
var CLI struct {
	Globals

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build the positioned tree (default command)."`
	Search  SearchCmd  `cmd:"" help:"Find the node best matching a path."`
	Query   QueryCmd   `cmd:"" help:"Select nodes with an RFC 9535 JSONPath expression."`
	Render  RenderCmd  `cmd:"" help:"Render the tree as SVG, PNG, DOT, text or JSON."`
	Explore ExploreCmd `cmd:"" help:"Browse and search the tree interactively."`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP API."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Context holds the runtime context
type Context struct {
	context.Context

	Debug  bool
	Config *config.Config
	Logger *log.Logger
	Stdout io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("jsontree"),
		kong.Description("Turn a JSON document into a positioned tree and search it by path"),
		kong.UsageOnError(),
	)

	// Without arguments, paste JSON interactively.
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	cfg, err := config.LoadConfigWithCLI(configPath, CLI.Render.Format, CLI.Serve.Addr, CLI.layout(), CLI.Debug)
	if err != nil {
		fail(err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(os.Stderr, cfg.Dev.Debug)
	logger.Debug("loaded configuration", "path", configPath)

	ctx := &Context{
		Context: logging.WithLogger(sigCtx, logger),
		Debug:   cfg.Dev.Debug,
		Config:  cfg,
		Logger:  logger,
		Stdout:  os.Stdout,
	}
	if err := kctx.Run(ctx); err != nil {
		stop()
		fail(err)
	}
}

// fail prints a user-friendly message and exits with status 1.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
	if !stderrors.Is(err, errors.ErrNoMatch) {
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsontree --help\n")
	}
	os.Exit(1)
}

// BuildCmd writes the tree as JSON or a text outline.
type BuildCmd struct {
	Format  string `help:"Output format." short:"f" enum:"json,text" default:"json"`
	Output  string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Compact bool   `help:"Write JSON without indentation."`
	Stats   bool   `help:"Print tree statistics to stderr." short:"s"`
}

func (c *BuildCmd) Run(ctx *Context) error {
	t, _, err := buildTree(ctx)
	if err != nil {
		return err
	}

	if c.Stats {
		printStats(ctx, t)
	}

	f := formatter.NewFormatter(formatter.Options{
		Layout:  ctx.Config.Layout,
		Color:   ctx.Config.Output.Color && c.Output == "" && isTerminal(ctx.Stdout),
		Compact: c.Compact || ctx.Config.Output.Compact,
	})
	var b strings.Builder
	if err := f.Write(&b, t, formatter.Format(c.Format)); err != nil {
		return err
	}
	return writeOutput(ctx, c.Output, []byte(b.String()))
}

// SearchCmd runs the path matcher against the tree.
type SearchCmd struct {
	Path     string `arg:"" help:"Path to look for, e.g. user.address.city or $.items[0]."`
	Format   string `help:"Output format." short:"f" enum:"text,json" default:"text"`
	ShowTier bool   `help:"Also print which matching tier produced the result." short:"t"`
	Outline  bool   `help:"Print the whole outline with the match highlighted."`
}

type searchResult struct {
	Match models.TreeNode `json:"match"`
	Tier  string          `json:"tier"`
}

func (c *SearchCmd) Run(ctx *Context) error {
	t, _, err := buildTree(ctx)
	if err != nil {
		return err
	}

	node, tier := pathmatch.FindTier(t.Nodes, c.Path)
	ctx.Logger.Debug("search", "query", c.Path, "normalized", pathmatch.Normalize(c.Path), "tier", tier)
	if tier == pathmatch.TierNone {
		return errors.NewSearchError(fmt.Sprintf("no node matches %q", c.Path), errors.ErrNoMatch)
	}
	node.Highlighted = true

	showTier := c.ShowTier || ctx.Config.Search.ShowTier
	f := formatter.NewFormatter(formatter.Options{
		Layout: ctx.Config.Layout,
		Color:  ctx.Config.Output.Color && isTerminal(ctx.Stdout),
	})

	var b strings.Builder
	switch {
	case c.Format == "json":
		if err := writeJSON(&b, searchResult{Match: node, Tier: tier.String()}); err != nil {
			return err
		}
	case c.Outline || ctx.Config.Search.Outline:
		t.Nodes = tree.Highlight(t.Nodes, node.ID)
		if err := f.Text(&b, t); err != nil {
			return err
		}
	default:
		b.WriteString(node.Label + "  (" + node.JSONPath + ")\n")
	}
	if showTier && c.Format != "json" {
		b.WriteString("tier: " + tier.String() + "\n")
	}
	return writeOutput(ctx, "", []byte(b.String()))
}

// QueryCmd evaluates a JSONPath expression and lists the selected nodes.
type QueryCmd struct {
	Expr   string `arg:"" help:"JSONPath expression, e.g. $.items[?@.price < 10].name."`
	Format string `help:"Output format." short:"f" enum:"text,json" default:"text"`
}

func (c *QueryCmd) Run(ctx *Context) error {
	t, doc, err := buildTree(ctx)
	if err != nil {
		return err
	}

	nodes, err := query.Select(t, doc, c.Expr)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("query", "expr", c.Expr, "results", len(nodes))

	var b strings.Builder
	if c.Format == "json" {
		if nodes == nil {
			nodes = []models.TreeNode{}
		}
		if err := writeJSON(&b, nodes); err != nil {
			return err
		}
	} else {
		for _, n := range nodes {
			b.WriteString(n.Label + "  (" + n.JSONPath + ")\n")
		}
	}
	return writeOutput(ctx, "", []byte(b.String()))
}

// RenderCmd draws the tree with every node at its layout position.
type RenderCmd struct {
	Format    string `help:"Output format: svg, png, dot, text or json. Defaults to output.format from the config file." short:"f"`
	Output    string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Highlight string `help:"Highlight the node matching this path." short:"H"`
}

func (c *RenderCmd) Run(ctx *Context) error {
	name := c.Format
	if name == "" {
		name = ctx.Config.Output.Format
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return err
	}

	t, _, err := buildTree(ctx)
	if err != nil {
		return err
	}

	if c.Highlight != "" {
		node, ok := pathmatch.Find(t.Nodes, c.Highlight)
		if !ok {
			return errors.NewSearchError(fmt.Sprintf("no node matches %q", c.Highlight), errors.ErrNoMatch)
		}
		t.Nodes = tree.Highlight(t.Nodes, node.ID)
	}

	f := formatter.NewFormatter(formatter.Options{
		Layout:  ctx.Config.Layout,
		Color:   ctx.Config.Output.Color && c.Output == "" && isTerminal(ctx.Stdout),
		Compact: ctx.Config.Output.Compact,
	})

	if !format.IsImage() {
		var b strings.Builder
		if err := f.Write(&b, t, format); err != nil {
			return err
		}
		return writeOutput(ctx, c.Output, []byte(b.String()))
	}

	progress := logging.NewProgress(ctx.Logger)
	out, err := render.Render(ctx, f.DOT(t), format)
	if err != nil {
		return err
	}
	progress.Done(fmt.Sprintf("Rendered %s", format))
	return writeOutput(ctx, c.Output, out)
}

// ExploreCmd opens the interactive explorer.
type ExploreCmd struct{}

func (c *ExploreCmd) Run(ctx *Context) error {
	t, _, err := buildTree(ctx)
	if err != nil {
		return err
	}

	in, closeIn, err := terminalInput()
	if err != nil {
		return err
	}
	defer closeIn()

	selected, err := explorer.Run(t, in, os.Stderr)
	if err != nil {
		return errors.NewOutputError("explorer failed", err)
	}
	if selected != nil {
		return writeOutput(ctx, "", []byte(selected.JSONPath+"\n"))
	}
	return nil
}

// ServeCmd serves the HTTP API until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to server.addr from the config file (:8080)." short:"a"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	srv := server.New(server.Options{
		Layout:       ctx.Config.Layout,
		MaxBodyBytes: ctx.Config.Server.MaxBodyBytes,
		Logger:       ctx.Logger,
	})
	return srv.ListenAndServe(ctx, ctx.Config.Server.Addr)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintf(ctx.Stdout, "jsontree version %s\n", Version)
	return err
}

// buildTree reads the input and builds its tree with the configured layout.
func buildTree(ctx *Context) (models.Tree, models.Value, error) {
	doc, err := parseInput()
	if err != nil {
		return models.Tree{}, models.Value{}, err
	}

	progress := logging.NewProgress(ctx.Logger)
	t := tree.NewBuilder(ctx.Config.Layout).Build(doc)
	progress.Done(fmt.Sprintf("Built %d nodes", len(t.Nodes)))
	return t, doc, nil
}

// printStats writes a short summary of t to stderr.
func printStats(ctx *Context, t models.Tree) {
	stats := analyzer.NewAnalyzerWithLayout(ctx.Config.Layout).Analyze(t)
	ctx.Logger.Info("tree",
		"nodes", stats.Nodes,
		"objects", stats.ByKind[models.KindObject],
		"arrays", stats.ByKind[models.KindArray],
		"primitives", stats.ByKind[models.KindPrimitive],
		"depth", stats.MaxDepth,
		"width", stats.Bounds.Width(),
		"height", stats.Bounds.Height(),
	)
}

// parseInput reads JSON from file or stdin
func parseInput() (models.Value, error) {
	if CLI.Input != "" {
		return parser.ParseFile(CLI.Input)
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return models.Value{}, errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		if CLI.Interactive {
			return readInteractiveInput()
		}
		return models.Value{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	jsonData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return models.Value{}, errors.NewInputError("failed to read from stdin", err)
	}

	if len(jsonData) == 0 {
		return models.Value{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseBytes(jsonData)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(ctx *Context, path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		ctx.Logger.Info("Output written", "path", path)
		return nil
	}

	if _, err := ctx.Stdout.Write(data); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	return formatter.EncodeJSON(w, v, false)
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminalFile(f)
}

// terminalInput returns a reader attached to the terminal even when the JSON
// arrived on stdin.
func terminalInput() (io.Reader, func(), error) {
	if isTerminalFile(os.Stdin) {
		return os.Stdin, func() {}, nil
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, nil, errors.NewInputError("the explorer needs a terminal", err)
	}
	return tty, func() { _ = tty.Close() }, nil
}

func isTerminalFile(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (models.Value, error) {
	fmt.Fprintln(os.Stderr, "jsontree interactive mode")
	fmt.Fprintln(os.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(os.Stdin)
	var jsonBuilder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Value{}, errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if strings.TrimSpace(jsonData) == "" {
		return models.Value{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing JSON...")
	return parser.ParseString(jsonData)
}
