package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	applog "scontrini/internal/log"
	"scontrini/internal/middleware/ratelimit"
	"scontrini/internal/middleware/security"
	"scontrini/internal/middleware/trace"
	"scontrini/internal/report"
	"scontrini/internal/services"
	"scontrini/web"
)

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Queries       *services.Queries
	Mutations     *services.Mutations
	Formatter     report.Formatter
	DefaultUserID string
	Backend       Pinger
	Logger        *applog.Logger
	RateLimit     ratelimit.Config

	// RequestTimeout bounds every handler; zero selects 30s.
	RequestTimeout time.Duration
}

type Server struct {
	http.Server
	templates     *template.Template
	queries       *services.Queries
	mutations     *services.Mutations
	formatter     report.Formatter
	defaultUserID string
	backend       Pinger
	logger        *applog.Logger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	startedAt time.Time
	stopOnce  sync.Once
}

// NewServer parses the embedded templates and builds the router.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Queries == nil || deps.Mutations == nil {
		return nil, errors.New("http server requires queries and mutations")
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.DefaultUserID == "" {
		deps.DefaultUserID = "local"
	}
	if deps.RateLimit.RequestsPerMinute <= 0 {
		deps.RateLimit = ratelimit.DefaultConfig()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		formatter:     deps.Formatter,
		queries:       deps.Queries,
		mutations:     deps.Mutations,
		defaultUserID: deps.DefaultUserID,
		backend:       deps.Backend,
		logger:        deps.Logger.WithComponent(applog.ComponentHTTP),
		detector:      security.NewDetector(deps.Logger.WithComponent(applog.ComponentSecurity).Slog()),
		limiter:       ratelimit.NewLimiter(deps.RateLimit),
		startedAt:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(deps.Logger, s.detector.ExtractClientIP)

	tmpl, err := parseTemplates(s.formatter)
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = tmpl

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(deps.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      deps.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.tracer.Handler)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	static, _ := fs.Sub(web.StaticFS, "static")
	r.With(security.StaticAssets(86400)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))

		r.Get("/", s.handleIndex)
		r.Post("/restaurants", s.handleCreateRestaurant)
		r.Route("/restaurants/{id}", func(r chi.Router) {
			r.Get("/", s.handleRestaurant)
			r.Post("/records", s.handleAddRecord)
			r.Delete("/records/{recordID}", s.handleDeleteRecord)
			r.Get("/print", s.handleRestaurantPrint)
			r.Get("/export.xlsx", s.handleRestaurantExport)
		})
		r.Route("/records/all", func(r chi.Router) {
			r.Get("/", s.handleAllRecords)
			r.Get("/print", s.handleAllRecordsPrint)
			r.Get("/export.xlsx", s.handleAllRecordsExport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Page not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewHTMXResponse().Status(http.StatusMethodNotAllowed).Write(w)
	})
	return r
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again in a minute").
		TriggerNotification(NotificationWarning, "Too many requests", 5000).
		Write(w)
}

// Shutdown stops background helpers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

func parseTemplates(f report.Formatter) (*template.Template, error) {
	funcs := template.FuncMap{
		"amount":    f.Amount,
		"date":      f.Date,
		"datekey":   f.DateKey,
		"pending":   isPending,
		"rangeForm": newRangeForm,
	}
	return template.New("").Funcs(funcs).ParseFS(web.TemplatesFS, "templates/*.html")
}

// render executes a named template into a buffer so that a failing
// template never produces a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.renderWith(w, r, NewHTMXResponse(), name, data)
}

func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			applog.FieldError, err)
		InternalServerError("Unable to render page").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}
