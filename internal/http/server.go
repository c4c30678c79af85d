package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smorady/msg-orchestrator/internal/config"
	"github.com/smorady/msg-orchestrator/internal/content"
	"github.com/smorady/msg-orchestrator/internal/http/middleware"
	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/orchestrator"
	"github.com/smorady/msg-orchestrator/internal/providererr"
	"github.com/smorady/msg-orchestrator/internal/repository"
	"github.com/smorady/msg-orchestrator/internal/sendability"
	"github.com/smorady/msg-orchestrator/internal/track"
	"github.com/smorady/msg-orchestrator/internal/transport"
	"github.com/smorady/msg-orchestrator/internal/twilio"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, log *zap.Logger, stats metrics.Client, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos
	dispatchesRepo := repository.NewDispatchesRepository(mysqlDB)
	deliveriesRepo := repository.NewDeliveriesRepository(clickhouseDB)

	// provider pipeline
	settings := cfg.Settings()
	httpDoer := transport.NewHTTPClient(&http.Client{Timeout: 30 * time.Second})
	provider := twilio.NewClient(transport.NewBreaker(httpDoer, 5, 10*time.Second), settings)

	orch := &orchestrator.Orchestrator{
		Settings:   settings,
		Evaluator:  sendability.NewEvaluator(log, stats),
		Resolver:   content.NewResolver(provider, log),
		Classifier: providererr.NewClassifier(log, stats),
		Sender:     provider,
		Tracker:    track.New(log, stats),
		Stats:      stats,
		Log:        log,
		Store:      dispatchesRepo,
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(cfg.APIKeys)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:      rds,
		DefaultRPS: cfg.RateLimit.RPS,
		KeyPrefix:  "rl:client:",
		Window:     time.Second,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/messages/:channel", sendMessageHandler(orch))
	v1.GET("/reports/deliveries", listDeliveriesHandler(deliveriesRepo))

	// the provider posts delivery callbacks here; no API key on its side
	e.POST("/v1/callbacks/status", statusCallbackHandler(dispatchesRepo, deliveriesRepo, stats))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
