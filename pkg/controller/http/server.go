package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/secmon-lab/meetlink/pkg/utils/safe"
)

// ReviewUseCase is the review queue consumed by the API
type ReviewUseCase interface {
	ListCalls(ctx context.Context, opts ...interfaces.ListCallOption) ([]*model.Call, error)
	GetCall(ctx context.Context, id model.CallID) (*usecase.CallDetail, error)
	LinkContact(ctx context.Context, callID model.CallID, contactID model.ContactID) (*model.Call, error)
	SetNeedsReview(ctx context.Context, callID model.CallID, needsReview bool) (*model.Call, error)
	ListSyncLogs(ctx context.Context, limit int) ([]*model.SyncLog, error)
	ListActionItems(ctx context.Context, callID model.CallID) ([]*model.ActionItem, error)
	ListOpenActionItems(ctx context.Context, limit int) ([]*model.ActionItem, error)
	SetActionItemCompleted(ctx context.Context, id model.ActionItemID, completed bool) (*model.ActionItem, error)
}

// SyncUseCase triggers sync runs
type SyncUseCase interface {
	Sync(ctx context.Context, in usecase.SyncInput) (*model.SyncStats, error)
}

type Server struct {
	router   *chi.Mux
	review   ReviewUseCase
	sync     SyncUseCase
	gatherer prometheus.Gatherer
	apiToken string
	nowFn    func() time.Time
}

type Options func(*Server)

// WithReview exposes the review API under /api
func WithReview(uc ReviewUseCase) Options {
	return func(s *Server) {
		s.review = uc
	}
}

// WithSync exposes POST /api/sync
func WithSync(uc SyncUseCase) Options {
	return func(s *Server) {
		s.sync = uc
	}
}

// WithMetrics serves gatherer on /metrics
func WithMetrics(gatherer prometheus.Gatherer) Options {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithAPIToken requires "Authorization: Bearer <token>" on /api routes
func WithAPIToken(token string) Options {
	return func(s *Server) {
		s.apiToken = token
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	if s.review != nil || s.sync != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(tokenAuthMiddleware(s.apiToken))

			if s.review != nil {
				r.Get("/calls", s.listCallsHandler)
				r.Get("/calls/{callID}", s.getCallHandler)
				r.Post("/calls/{callID}/link", s.linkContactHandler)
				r.Post("/calls/{callID}/review", s.setNeedsReviewHandler)
				r.Get("/calls/{callID}/action-items", s.listActionItemsHandler)
				r.Get("/action-items", s.listOpenActionItemsHandler)
				r.Post("/action-items/{itemID}/complete", s.completeActionItemHandler)
				r.Get("/sync-logs", s.listSyncLogsHandler)
			}
			if s.sync != nil {
				r.Post("/sync", s.triggerSyncHandler)
			}
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte("ok"))
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				return
			}
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
