// Package httpapi is the JSON API in front of the store. It authenticates
// requests, restricts every collection to the caller's own records, and maps
// domain errors to HTTP statuses. All business rules live in the packages it
// calls.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/logging"
	"github.com/dmitrijs2005/dailyops/internal/server/models"
	"github.com/dmitrijs2005/dailyops/internal/server/sessions"
	"github.com/dmitrijs2005/dailyops/internal/timex"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxBodyBytes    = 1_000_000
	shutdownTimeout = 5 * time.Second
	cookieName      = "session"
)

// Store is the part of storage.Engine the API uses.
type Store interface {
	Running() bool
	Snapshot() *models.Store

	ListTasks() []models.Task
	GetTask(id string) (models.Task, error)
	AddTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
	RemoveTask(ctx context.Context, id string) error

	ListIdeas() []models.Idea
	GetIdea(id string) (models.Idea, error)
	AddIdea(ctx context.Context, i models.Idea) (models.Idea, error)
	UpdateIdea(ctx context.Context, id string, patch models.IdeaPatch) (models.Idea, error)
	RemoveIdea(ctx context.Context, id string) error

	ListProfits() []models.ProfitEntry
	GetProfit(id string) (models.ProfitEntry, error)
	AddProfit(ctx context.Context, p models.ProfitEntry) (models.ProfitEntry, error)
	UpdateProfit(ctx context.Context, id string, patch models.ProfitPatch) (models.ProfitEntry, error)
	RemoveProfit(ctx context.Context, id string) error

	ListInbox() []models.InboxEntry
	GetInboxEntry(id string) (models.InboxEntry, error)
	AddInboxEntry(ctx context.Context, e models.InboxEntry) (models.InboxEntry, error)
	RemoveInboxEntry(ctx context.Context, id string) error

	ListReviews() []models.Review
	UpsertReview(ctx context.Context, r models.Review) (models.Review, error)
}

// Accounts is the part of users.Service the API uses.
type Accounts interface {
	SetupRequired() bool
	Setup(ctx context.Context, token, username, password string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	Lookup(id string) (models.User, error)
}

type Options struct {
	Store    Store
	Accounts Accounts
	Sessions *sessions.Manager
	Logger   logging.Logger

	CookieSecure       bool
	LoginRatePerMinute int
	// Now overrides the clock used for default dates.
	Now func() time.Time
}

type Server struct {
	store    Store
	accounts Accounts
	sessions *sessions.Manager
	logger   logging.Logger

	cookieSecure bool
	limiter      *ipLimiter
	now          func() time.Time

	router chi.Router
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:        opts.Store,
		accounts:     opts.Accounts,
		sessions:     opts.Sessions,
		logger:       opts.Logger,
		cookieSecure: opts.CookieSecure,
		limiter:      newIPLimiter(opts.LoginRatePerMinute),
		now:          opts.Now,
	}
	if s.logger == nil {
		s.logger = logging.Nop{}
	}
	s.logger = s.logger.With("module", "http")
	if s.now == nil {
		s.now = time.Now
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/setup", s.handleSetupStatus)
		r.Post("/setup", s.handleSetup)
		r.With(s.limitLogin).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/session", s.handleSession)
			r.Get("/dashboard", s.handleDashboard)

			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleCreateTask)
			r.Patch("/tasks/{id}", s.handleUpdateTask)
			r.Delete("/tasks/{id}", s.handleDeleteTask)

			r.Get("/ideas", s.handleListIdeas)
			r.Post("/ideas", s.handleCreateIdea)
			r.Patch("/ideas/{id}", s.handleUpdateIdea)
			r.Delete("/ideas/{id}", s.handleDeleteIdea)

			r.Get("/profits", s.handleListProfits)
			r.Post("/profits", s.handleCreateProfit)
			r.Patch("/profits/{id}", s.handleUpdateProfit)
			r.Delete("/profits/{id}", s.handleDeleteProfit)

			r.Get("/inbox", s.handleListInbox)
			r.Post("/inbox", s.handleCreateInbox)
			r.Delete("/inbox/{id}", s.handleDeleteInbox)

			r.Get("/reviews", s.handleListReviews)
			r.Post("/reviews", s.handleUpsertReview)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

// Run serves the API on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.store.Running() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "stopping"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) today() string {
	return timex.FormatDate(s.now().UTC())
}
