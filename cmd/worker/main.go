// worker delivers queued invitation mail from asynq and ships audit events from Kafka to Loki.
// REDIS_URL enables the mail worker; KAFKA_BROKERS with LOKI_URL enables the shipper. At least one is required.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"staffhub/backend/internal/config"
	"staffhub/backend/internal/logging"
	"staffhub/backend/internal/notify/mail"
	"staffhub/backend/internal/notify/queue"
	"staffhub/backend/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)

	brokers := cfg.AuditKafkaBrokersList()
	ship := len(brokers) > 0 && cfg.LokiURL != ""
	if cfg.RedisURL == "" && !ship {
		log.Fatal().Msg("worker: set REDIS_URL, or KAFKA_BROKERS and LOKI_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.RedisURL != "" {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("worker: REDIS_URL")
		}
		var mailer mail.Mailer = mail.NewLogMailer(log)
		if cfg.ResendAPIKey != "" {
			rm, err := mail.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, cfg.ResendBaseURL)
			if err != nil {
				log.Fatal().Err(err).Msg("worker: mailer")
			}
			mailer = rm
		}
		w := queue.NewWorker(redisOpt, mailer, log)
		if err := w.Run(); err != nil {
			log.Fatal().Err(err).Msg("worker: asynq")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			w.Shutdown()
		}()
	}

	if ship {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shipAudit(ctx, cfg, brokers, log)
		}()
	}

	wg.Wait()
	log.Info().Msg("worker: stopped")
}

// shipAudit reads audit events from Kafka and pushes each to Loki until ctx is done. Push failures are
// logged and the message is still committed.
func shipAudit(ctx context.Context, cfg *config.Config, brokers []string, log zerolog.Logger) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.AuditKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	client := loki.NewClient(cfg.LokiURL)
	log.Info().Str("topic", cfg.AuditKafkaTopic).Str("group", cfg.KafkaGroupID).Str("loki", cfg.LokiURL).Msg("worker: shipping audit events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("worker: kafka read")
			continue
		}
		pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := client.PushEventJSON(pushCtx, msg.Value); err != nil {
			log.Warn().Err(err).Msg("worker: loki push")
		}
		cancel()
	}
}
