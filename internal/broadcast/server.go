package broadcast

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladvlasov256/YourDutchBot/core/logger"
)

// Config holds the push trigger endpoint settings.
type Config struct {
	Listen  string `yaml:"listen" envconfig:"BROADCAST_LISTEN"`
	Secret  string `yaml:"secret" envconfig:"CRON_SECRET"`
	DelayMS int    `yaml:"delay_ms" envconfig:"BROADCAST_DELAY_MS"`
}

// Normalize fills listen defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = ":8081"
	}
}

// Server exposes the daily push over HTTP so an external scheduler
// can trigger it. The endpoint is protected by a shared bearer secret.
type Server struct {
	cfg Config
	job *Job
	srv *http.Server
}

// NewServer builds the trigger server around a push job.
func NewServer(cfg Config, job *Job) *Server {
	cfg.Normalize()
	s := &Server{cfg: cfg, job: job}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/daily-push", s.handleDailyPush)

	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves the trigger endpoint until the listener fails or the
// server is shut down.
func (s *Server) Start() {
	logger.SVCBroadcast.Info("push trigger listening",
		slog.String("event", "broadcast.listen"),
		slog.String("addr", s.cfg.Listen),
	)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.SVCBroadcast.Error("push trigger stopped",
			slog.String("event", "broadcast.listen"),
			slog.String("err", err.Error()),
		)
	}
}

// Shutdown stops the trigger server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDailyPush(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := s.job.Run(r.Context())
	if err != nil {
		http.Error(w, "push failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Secret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Secret)) == 1
}
