package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/app"
	"github.com/iliyamo/house-rental-booking/internal/config"
	"github.com/iliyamo/house-rental-booking/internal/handler"
	"github.com/iliyamo/house-rental-booking/internal/metrics"
	"github.com/iliyamo/house-rental-booking/internal/middleware"
	"github.com/iliyamo/house-rental-booking/internal/queue"
	"github.com/iliyamo/house-rental-booking/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.JWTSecret == "" {
		log.Fatal("missing required env var: JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close()

	if cfg.EventsEnabled && cfg.EventsConsumerEnabled {
		go func() {
			if err := queue.StartStatusConsumer(ctx, cfg.RabbitURL, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("status consumer stopped")
			}
		}()
	}
	if cfg.SweepInterval > 0 {
		log.WithField("interval", cfg.SweepInterval).Info("in-process sweeper enabled")
		go a.Service.RunSweeper(ctx, cfg.SweepInterval)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			}).Debug("request")
			return nil
		},
	}))
	e.Use(metrics.Middleware())

	h := handler.NewBookingHandler(a.Service, log, cfg.RequestTimeout)

	router.RegisterRoutes(e, handler.Health(a.DB))
	router.RegisterPublic(e, h, middleware.NewRedisCache(config.LoadCacheConfig(), a.Redis, log))
	router.RegisterBookings(e, h, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), a.Redis, log))

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
