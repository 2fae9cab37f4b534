// Package http renders the dashboard and translates htmx form posts into
// accessor calls. Handlers never derive domain state: they dispatch to the
// stores, refetch affected collections and re-render from snapshots.
package http

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sopdash/internal/cache"
	"sopdash/internal/events"
	"sopdash/internal/log"
	"sopdash/internal/middleware/ratelimit"
	"sopdash/internal/middleware/security"
	"sopdash/internal/middleware/trace"
	"sopdash/internal/session"
	"sopdash/internal/store"
	appweb "sopdash/web"
)

// ReportStreamer is the slice of the accessor the PDF proxy needs.
type ReportStreamer interface {
	PaymentsReportPDF(ctx context.Context) (io.ReadCloser, error)
}

// MutationPublisher emits mutation events after successful writes.
// Satisfied by events.Client; nil disables publishing.
type MutationPublisher interface {
	PublishMutation(ctx context.Context, entity string, action events.Action, id int64) error
}

// Deps carries everything the server renders from.
type Deps struct {
	Stores  *store.Stores
	Session *session.Store
	Auth    session.Authenticator
	Reports ReportStreamer
	Events  MutationPublisher
}

type Server struct {
	http.Server
	templates *template.Template

	stores  *store.Stores
	session *session.Store
	auth    session.Authenticator
	reports ReportStreamer
	events  MutationPublisher

	// fragments caches rendered detail modals between refetches, keyed
	// "entity:id". Mutations drop the affected prefix.
	fragments *cache.LRUCache[string]
	cacheMgr  *cache.Manager

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		stores:    deps.Stores,
		session:   deps.Session,
		auth:      deps.Auth,
		reports:   deps.Reports,
		events:    deps.Events,
		fragments: cache.NewLRUCache[string](200, 5*time.Minute),
		cacheMgr:  cache.NewManager(),
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:  security.NewDetector(),
	}
	s.cacheMgr.Register(s.fragments)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.HandleFunc("/ui/refresh", s.requireSession(s.handleRefresh))
	mux.HandleFunc("/ui/expenses", s.requireSession(s.handleExpenseList))
	mux.HandleFunc("/ui/expenses/detail", s.requireSession(s.handleExpenseDetail))
	mux.HandleFunc("/ui/commitments", s.requireSession(s.handleCommitmentList))
	mux.HandleFunc("/ui/commitments/detail", s.requireSession(s.handleCommitmentDetail))
	mux.HandleFunc("/ui/payments", s.requireSession(s.handlePaymentList))

	mux.HandleFunc("/expenses", s.requireSession(s.handleCreateExpense))
	mux.HandleFunc("/expenses/update", s.requireSession(s.handleUpdateExpense))
	mux.HandleFunc("/expenses/delete", s.requireSession(s.handleDeleteExpense))
	mux.HandleFunc("/commitments", s.requireSession(s.handleCreateCommitment))
	mux.HandleFunc("/commitments/update", s.requireSession(s.handleUpdateCommitment))
	mux.HandleFunc("/commitments/delete", s.requireSession(s.handleDeleteCommitment))
	mux.HandleFunc("/payments", s.requireSession(s.handleCreatePayment))
	mux.HandleFunc("/payments/update", s.requireSession(s.handleUpdatePayment))
	mux.HandleFunc("/payments/delete", s.requireSession(s.handleDeletePayment))

	mux.HandleFunc("/reports/payments.pdf", s.requireSession(s.handlePaymentsReport))

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	httpLogger := log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)

	handler := s.rejectSuspicious(mux)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = log.Middleware(httpLogger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the cleanup goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheMgr.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession gates authenticated routes. htmx requests get a 401
// fragment pointing at the login form; full-page requests are redirected.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session.State() != session.Authenticated {
			if r.Header.Get("HX-Request") == "true" {
				NewResponse().
					Status(http.StatusUnauthorized).
					Header("HX-Redirect", "/login").
					Write(w)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// render executes a template, falling back to a plain error fragment when
// templates failed to parse at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name)
		_, _ = w.Write([]byte(`<div class="error">Erro ao renderizar a página</div>`))
	}
}

// publish emits a mutation event after a successful write. Publishing is
// best effort; a broker outage never fails the user's request.
func (s *Server) publish(ctx context.Context, entity string, action events.Action, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishMutation(ctx, entity, action, id); err != nil {
		slog.WarnContext(ctx, "Mutation event not published",
			log.FieldEntity, entity,
			log.FieldOperation, string(action),
			log.FieldError, err)
	}
}
