// Package server exposes tree building, path search and JSONPath queries
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/formatter"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/parser"
	"github.com/mcncl/jsontree/internal/pathmatch"
	"github.com/mcncl/jsontree/internal/query"
	"github.com/mcncl/jsontree/internal/render"
	"github.com/mcncl/jsontree/internal/tree"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Layout       tree.LayoutConfig
	MaxBodyBytes int64
	Logger       *log.Logger
}

// Server holds the state shared by all handlers. Handlers build a fresh tree
// per request, so a Server is safe for concurrent use.
type Server struct {
	builder   *tree.Builder
	formatter *formatter.Formatter
	logger    *log.Logger
	maxBody   int64
}

// New creates a Server. Zero options fall back to the default layout, a
// 10 MiB body limit and log.Default().
func New(opts Options) *Server {
	if opts.Layout == (tree.LayoutConfig{}) {
		opts.Layout = tree.DefaultLayout()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		builder:   tree.NewBuilder(opts.Layout),
		formatter: formatter.NewFormatter(formatter.Options{Layout: opts.Layout}),
		logger:    opts.Logger,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/tree", s.handleTree)
		r.Post("/search", s.handleSearch)
		r.Post("/query", s.handleQuery)
		r.Post("/render", s.handleRender)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.NewServerError("failed to listen on "+addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewServerError("shutdown", err)
	}
	return nil
}

// logRequests logs one line per request and puts the logger in the request
// context.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))

		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), logger)))

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleTree handles POST /api/tree. The body is the JSON document itself.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	doc, err := parser.Parse(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, err)
		return
	}

	t := s.builder.Build(doc)
	logging.FromContext(r.Context()).Debug("built tree", "nodes", len(t.Nodes), "build_id", t.BuildID)
	writeJSON(w, http.StatusOK, t)
}

type searchRequest struct {
	Document json.RawMessage `json:"document"`
	Query    string          `json:"query"`
}

func (r *searchRequest) document() json.RawMessage { return r.Document }

type searchResponse struct {
	Match *models.TreeNode  `json:"match"`
	Tier  string            `json:"tier"`
	Nodes []models.TreeNode `json:"nodes"`
	Edges []models.TreeEdge `json:"edges"`
}

// handleSearch handles POST /api/search. Nodes come back with the match,
// if any, highlighted.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	t, _, ok := s.decodeDocument(w, r, &req)
	if !ok {
		return
	}

	node, tier := pathmatch.FindTier(t.Nodes, req.Query)
	resp := searchResponse{Tier: tier.String(), Edges: t.Edges}
	if tier == pathmatch.TierNone {
		resp.Nodes = tree.Highlight(t.Nodes, "")
	} else {
		resp.Nodes = tree.Highlight(t.Nodes, node.ID)
		node.Highlighted = true
		resp.Match = &node
	}

	logging.FromContext(r.Context()).Debug("search", "query", req.Query, "tier", resp.Tier)
	writeJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	Document json.RawMessage `json:"document"`
	Expr     string          `json:"expr"`
}

func (r *queryRequest) document() json.RawMessage { return r.Document }

type queryResponse struct {
	Nodes []models.TreeNode `json:"nodes"`
}

// handleQuery handles POST /api/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	t, doc, ok := s.decodeDocument(w, r, &req)
	if !ok {
		return
	}

	nodes, err := query.Select(t, doc, req.Expr)
	if err != nil {
		writeError(w, err)
		return
	}
	if nodes == nil {
		nodes = []models.TreeNode{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Nodes: nodes})
}

// handleRender handles POST /api/render?format=svg|png|dot. The body is the
// JSON document.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(formatter.FormatSVG)
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		writeError(w, err)
		return
	}
	if format != formatter.FormatDOT && !format.IsImage() {
		writeError(w, errors.NewOutputError(fmt.Sprintf("format %q cannot be rendered", name), errors.ErrUnknownFormat))
		return
	}

	doc, err := parser.Parse(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, err)
		return
	}
	dot := s.formatter.DOT(s.builder.Build(doc))

	if format == formatter.FormatDOT {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
		return
	}

	out, err := render.Render(r.Context(), dot, format)
	if err != nil {
		writeError(w, err)
		return
	}
	if format == formatter.FormatPNG {
		w.Header().Set("Content-Type", "image/png")
	} else {
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	_, _ = w.Write(out)
}

// documentRequest is a request envelope carrying a JSON document.
type documentRequest interface {
	document() json.RawMessage
}

// decodeDocument decodes the request envelope into req, then parses and
// builds the embedded document. On failure it has already written the
// response.
func (s *Server) decodeDocument(w http.ResponseWriter, r *http.Request, req documentRequest) (models.Tree, models.Value, bool) {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(req); err != nil {
		writeError(w, errors.NewInputError("invalid request body", err))
		return models.Tree{}, models.Value{}, false
	}

	raw := req.document()
	if len(raw) == 0 {
		writeError(w, errors.NewInputError("document is required", errors.ErrNoInput))
		return models.Tree{}, models.Value{}, false
	}

	doc, err := parser.ParseBytes(raw)
	if err != nil {
		writeError(w, err)
		return models.Tree{}, models.Value{}, false
	}
	return s.builder.Build(doc), doc, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with a status derived from err.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": errors.UserFriendlyError(err)})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeInput, errors.ErrorTypeParsing, errors.ErrorTypeQuery, errors.ErrorTypeOutput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
