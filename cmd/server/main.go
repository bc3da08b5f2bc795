package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rhyrak/allston-schedule/internal/config"
	"github.com/rhyrak/allston-schedule/internal/logger"
	"github.com/rhyrak/allston-schedule/internal/metrics"
	"github.com/rhyrak/allston-schedule/internal/middleware"
	"github.com/rhyrak/allston-schedule/internal/repository"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repository.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	runs := repository.NewRunRepository(db)
	if err := runs.EnsureSchema(context.Background()); err != nil {
		logr.Fatal("failed to prepare database", zap.Error(err))
	}

	redisClient, err := repository.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("score cache disabled", zap.Error(err))
	}
	cache := repository.NewCacheRepository(redisClient, logr)
	defer cache.Close()

	sc := scheduler.NewDefaultConfiguration()
	cfg.Apply(sc)
	if err := sc.Validate(); err != nil {
		logr.Fatal("invalid solver configuration", zap.Error(err))
	}

	m := metrics.New()
	workDir := filepath.Join(cmp.Or(cfg.Data.Dir, os.TempDir()), "uploads")
	h := NewHandler(runs, cache, sc, logr, m, workDir, cfg.Redis.ScoreTTL)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(h, cfg, logr, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown", zap.Error(err))
	}
	h.Shutdown()
}

func newRouter(h *Handler, cfg *config.Config, logr *zap.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/health", handleHealth)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.GET("/schedule", h.handleGetSchedule)
	r.GET("/schedule/:id", h.handleGetScheduleWithID)
	r.POST("/schedule", h.handlePostSchedule)
	r.DELETE("/schedule/:id", h.handleDeleteSchedule)
	r.POST("/score", h.handlePostScore)

	return r
}
