package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/mentor-chat/internal/app"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/config"
	"github.com/suPer8Hu/mentor-chat/internal/db"
	"github.com/suPer8Hu/mentor-chat/internal/httpapi"
	"github.com/suPer8Hu/mentor-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/mentor-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/mentor-chat/internal/logging"
	"github.com/suPer8Hu/mentor-chat/internal/metrics"
	"github.com/suPer8Hu/mentor-chat/internal/store/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb := db.Connect(cfg.DBDSN)
	a, err := app.New(ctx, cfg, gdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}
	defer a.Close()

	h := &handlers.Handler{
		Chats:        chat.NewService(a.Chats),
		Orchestrator: a.Orchestrator,
		Advisors:     a.Advisors,
		Prompts:      a.Prompts,
		Settings:     a.Settings,
		Analyses:     a.Analyses,
		Log:          log,
	}
	if a.Redis != nil {
		h.StopBus = a.Redis
	}

	// async turns are optional: without a broker the endpoint answers 503
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, async turns disabled")
	} else {
		defer pub.Close()
		h.Queue = pub
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, limiter, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
