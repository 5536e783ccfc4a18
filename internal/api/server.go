package api

import (
	"context"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"routeplan/internal/config"
	"routeplan/internal/store"
	"routeplan/internal/webhooks"
)

type Server struct {
	Store  store.Store
	Pub    *webhooks.Publisher
	Broker EventBroker
	Cfg    config.Config

	planLimiter *rate.Limiter // nil = unlimited
}

// NewServer creates a Server. If the config carries no database URL, the
// in-memory store is used; likewise the in-memory broker when no Redis URL
// is set.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Schema bootstrap (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.Migrate(context.Background())
		}
		s = sp
	}
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	var lim *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}
	return &Server{Store: s, Pub: webhooks.NewPublisher(s), Broker: broker, Cfg: cfg, planLimiter: lim}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
