// Package server is the HTTP surface of the analyzer: the page, the HTML
// fragments it swaps in, and a JSON view of the same actions.
package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"training-analyzer/apperrors"
	"training-analyzer/metrics"
	"training-analyzer/models"
	"training-analyzer/render"
	"training-analyzer/services"
	"training-analyzer/utils"
)

// Analyzer runs the analyze action.
type Analyzer interface {
	Analyze(ctx context.Context, name string, r io.Reader) (*models.Analysis, error)
}

// Reports runs the save, load and delete actions.
type Reports interface {
	Save(ctx context.Context, a *models.Analysis) ([]string, error)
	LoadRecent(ctx context.Context, limit int) ([]*models.StoredRecord, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context) services.StoreStatus
}

// PDFExporter prints a complete HTML document.
type PDFExporter interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// Deps are the collaborators of a Server. PDF and Metrics may be nil.
type Deps struct {
	Analyzer  Analyzer
	Reports   Reports
	PDF       PDFExporter
	Renderer  *render.Renderer
	Formatter *services.Formatter
	Metrics   *metrics.Recorder
	Logger    *utils.Logger
}

// Options limit request sizes. MaxPayloadBytes bounds the analysis posted
// back for save and export, which carries the raw rows and so outgrows the
// upload it came from.
type Options struct {
	MaxUploadBytes  int64
	MaxPayloadBytes int64
	MaxLoadRecords  int
}

// Server holds no analysis state between requests; the browser posts the
// analysis back for save and export.
type Server struct {
	Deps
	opts     Options
	inflight *utils.InFlight
}

func New(deps Deps, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.MaxPayloadBytes <= 0 {
		opts.MaxPayloadBytes = 8 * opts.MaxUploadBytes
	}
	if opts.MaxLoadRecords <= 0 {
		opts.MaxLoadRecords = 20
	}
	return &Server{Deps: deps, opts: opts, inflight: utils.NewInFlight()}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.Logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Route("/static", func(r chi.Router) {
		r.Use(middleware.SetHeader("Cache-Control", "public, max-age=3600"))
		r.Handle("/*", http.StripPrefix("/static/", s.Renderer.Static()))
	})

	r.With(s.guard("analysis")).Post("/analyze", s.handleAnalyze)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleLoad)
		r.With(s.guard("save")).Post("/", s.handleSave)
		r.With(s.guard("delete")).Delete("/{id}", s.handleDelete)
	})

	r.Route("/export", func(r chi.Router) {
		r.Use(s.guard("export"))
		r.Post("/csv", s.handleExportCSV)
		r.Post("/pdf", s.handleExportPDF)
	})

	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", s.Metrics.Handler())

	return r
}

// Serve runs an http.Server on addr until ctx ends, then shuts it down.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("[server] Listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("[server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// guard turns away a second copy of action from the same client while the
// first is still running.
func (s *Server) guard(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := s.inflight.TryAcquire(action + "|" + clientAddr(r))
			if !ok {
				s.fail(w, r, apperrors.Busy(action))
				return
			}
			defer release()
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// wantsJSON reports whether the caller asked for JSON instead of HTML.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func sentJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// writeHTML renders into a buffer first so a template error still yields a
// clean error response.
func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, status int, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.Logger.Error("[server] %s %s: render: %v", r.Method, r.URL.Path, err)
		http.Error(w, "An unexpected error occurred.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
