// Package server exposes the relay over HTTP: the Telegram webhook, a liveness
// banner and a health endpoint.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/fpt/klein-relay/internal/relay"
	"github.com/fpt/klein-relay/internal/telegram"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
)

const (
	DefaultBanner    = "🤖 Klein Relay Telegram Bot Running!"
	DefaultDedupeTTL = 10 * time.Minute

	maxUpdateBytes  = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Dispatcher handles one relay event to completion
type Dispatcher interface {
	Dispatch(ctx context.Context, ev relay.Event)
}

// UserCounter reports how many conversations are tracked
type UserCounter interface {
	Len() int
}

// Config wires a Server
type Config struct {
	Addr string
	// WebhookSecret is the last path segment Telegram posts updates to
	WebhookSecret string
	Dispatcher    Dispatcher
	Users         UserCounter // optional, reported by /healthz
	Banner        string
	DedupeTTL     time.Duration
	Logger        *pkgLogger.Logger
}

// Server receives Telegram updates and hands them to the dispatcher in the
// background. Webhook requests are always acknowledged with 200 so Telegram
// does not redeliver them.
type Server struct {
	router     *chi.Mux
	addr       string
	secret     string
	dispatcher Dispatcher
	users      UserCounter
	banner     string
	seen       *cache.Cache // update ids already dispatched
	started    time.Time
	logger     *pkgLogger.Logger

	wg sync.WaitGroup // in-flight dispatches
}

// New creates a server. WebhookSecret and Dispatcher are required.
func New(cfg Config) (*Server, error) {
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook secret is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if cfg.Banner == "" {
		cfg.Banner = DefaultBanner
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = DefaultDedupeTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("server")
	} else {
		logger = logger.WithComponent("server")
	}

	s := &Server{
		router:     chi.NewRouter(),
		addr:       cfg.Addr,
		secret:     cfg.WebhookSecret,
		dispatcher: cfg.Dispatcher,
		users:      cfg.Users,
		banner:     cfg.Banner,
		seen:       cache.New(cfg.DedupeTTL, 2*cfg.DedupeTTL),
		started:    time.Now(),
		logger:     logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Get("/", s.handleBanner)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/webhook/{secret}", s.handleWebhook)
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully and waits
// for in-flight dispatches to finish.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.InfoWithIntention(pkgLogger.IntentionStatus, "HTTP server listening", "addr", s.addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	s.logger.InfoWithIntention(pkgLogger.IntentionShutdown, "Waiting for in-flight updates")
	s.Wait()
	return nil
}

// Wait blocks until every dispatched update has been handled
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, s.banner)
}

type healthResponse struct {
	Status       string `json:"status"`
	TrackedUsers int    `json:"tracked_users"`
	Uptime       string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.users != nil {
		resp.TrackedUsers = s.users.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	secret := chi.URLParam(r, "secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	// From here on Telegram always gets 200, whatever happens to the update.
	defer acknowledge(w)
	if err != nil {
		s.logger.Warn("Failed to read update", "error", err)
		return
	}

	update, err := telegram.DecodeUpdate(body)
	if err != nil {
		s.logger.Warn("Dropping malformed update", "error", err, "bytes", len(body))
		return
	}

	if update.UpdateID != 0 {
		if err := s.seen.Add(strconv.Itoa(update.UpdateID), struct{}{}, cache.DefaultExpiration); err != nil {
			s.logger.Debug("Dropping redelivered update", "update_id", update.UpdateID)
			return
		}
	}

	ev, ok := telegram.ToEvent(update)
	if !ok {
		s.logger.Debug("Ignoring unsupported update", "update_id", update.UpdateID)
		return
	}
	s.logger.DebugWithIntention(pkgLogger.IntentionInbound, "Update received", "update_id", update.UpdateID, "type", fmt.Sprintf("%T", ev))

	// Dispatch outlives the request; Telegram must not wait for the AI.
	ctx := context.WithoutCancel(r.Context())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Dispatch panicked", "update_id", update.UpdateID, "panic", rec)
			}
		}()
		s.dispatcher.Dispatch(ctx, ev)
	}()
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}
