package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/app"
	"github.com/suPer8Hu/mentor-chat/internal/config"
	"github.com/suPer8Hu/mentor-chat/internal/db"
	"github.com/suPer8Hu/mentor-chat/internal/logging"
	"github.com/suPer8Hu/mentor-chat/internal/metrics"
	"github.com/suPer8Hu/mentor-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/mentor-chat/internal/turn"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).With().Str("proc", "worker").Logger()
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb := db.Connect(cfg.DBDSN)
	a, err := app.New(ctx, cfg, gdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}
	defer a.Close()

	runner := turn.NewJobRunner(a.Chats, a.Orchestrator, log)

	if cfg.WorkerMetricsAddr != "" {
		msrv := metrics.NewServer(cfg.WorkerMetricsAddr)
		go func() {
			log.Info().Str("addr", cfg.WorkerMetricsAddr).Msg("metrics listening")
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer msrv.Close()
	}

	// stop requests made against the server reach turns running here
	if a.Redis != nil {
		if err := a.Redis.SubscribeStop(ctx, log, func(chatID string) { a.Orchestrator.Stop(chatID) }); err != nil {
			log.Warn().Err(err).Msg("subscribe stop bus failed, stop only works for server-side turns")
		}
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatal().Err(err).Msg("declare topology")
	}

	// retries go out on their own channel
	pubCh, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit publish channel")
	}
	retries := rabbitmq.NewChannelPublisher(pubCh, cfg.RabbitQueue)
	defer retries.Close()

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.With().Int("worker", workerID).Logger()
			for d := range jobs {
				handle(ctx, wlog, runner, retries, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error().Msg("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// handle runs one delivery. Deferred jobs are parked on the retry queue and acked; jobs
// that fail go to the dead-letter queue. A job already taken finishes even during shutdown.
func handle(ctx context.Context, log zerolog.Logger, runner *turn.JobRunner, retries *rabbitmq.Publisher, d amqp.Delivery) {
	ctx = context.WithoutCancel(ctx)
	m, err := rabbitmq.DecodeJobMessage(d.Body)
	if err != nil || m.JobID == "" {
		log.Warn().Err(err).Msg("bad message")
		_ = d.Nack(false, false)
		return
	}
	log = log.With().Str("job_id", m.JobID).Int("attempt", m.Attempt).Logger()

	start := time.Now()
	err = runner.Handle(ctx, m.JobID)
	switch {
	case err == nil:
		if err := d.Ack(false); err != nil {
			log.Error().Err(err).Msg("ack failed")
		}

	case errors.Is(err, turn.ErrRetryLater) && m.Attempt+1 < rabbitmq.MaxAttempts:
		delay := rabbitmq.RetryDelay(m.Attempt)
		if perr := retries.PublishRetry(ctx, m, delay); perr != nil {
			log.Error().Err(perr).Msg("publish retry failed, requeueing")
			_ = d.Nack(false, true)
			return
		}
		log.Info().Dur("delay", delay).Msg("chat busy, job deferred")
		_ = d.Ack(false)

	default:
		if errors.Is(err, turn.ErrRetryLater) {
			runner.Abandon(ctx, m.JobID, "chat stayed busy, retries exhausted")
		}
		log.Warn().Err(err).Dur("cost", time.Since(start)).Msg("job failed")
		_ = d.Nack(false, false)
	}
}
