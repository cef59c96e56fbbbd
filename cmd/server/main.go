// server runs the HTTP API, the chat socket gateway and the optional gRPC health service.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staffhub/backend/internal/audit"
	chatgateway "staffhub/backend/internal/chat/gateway"
	chatrepo "staffhub/backend/internal/chat/repository"
	chatservice "staffhub/backend/internal/chat/service"
	"staffhub/backend/internal/config"
	"staffhub/backend/internal/db"
	"staffhub/backend/internal/devotp"
	employeerepo "staffhub/backend/internal/employee/repository"
	employeeservice "staffhub/backend/internal/employee/service"
	"staffhub/backend/internal/health"
	identityrepo "staffhub/backend/internal/identity/repository"
	identityservice "staffhub/backend/internal/identity/service"
	"staffhub/backend/internal/logging"
	"staffhub/backend/internal/notify"
	"staffhub/backend/internal/notify/mail"
	"staffhub/backend/internal/notify/queue"
	"staffhub/backend/internal/notify/sms"
	otprepo "staffhub/backend/internal/otp/repository"
	otpservice "staffhub/backend/internal/otp/service"
	"staffhub/backend/internal/policy/engine"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/server"
	"staffhub/backend/internal/server/handler"
	"staffhub/backend/internal/server/middleware"
	"staffhub/backend/internal/session"
	"staffhub/backend/internal/store"
	taskrepo "staffhub/backend/internal/task/repository"
	taskservice "staffhub/backend/internal/task/service"
	"staffhub/backend/internal/telemetry"
	telemetryotel "staffhub/backend/internal/telemetry/otel"
	"staffhub/backend/internal/telemetry/producer"
)

const serviceName = "staffhub-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("config")
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()

	checker := health.NewChecker(3 * time.Second)

	docs, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	checker.AddPinger("store", docs)

	var (
		challenges otprepo.Repository = otprepo.NewDocumentRepository(docs)
		enqueuer   notify.InvitationEnqueuer
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		checker.Add("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		challenges = otprepo.NewRedisRepository(rdb, "")

		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			return err
		}
		q := queue.NewAsynqEnqueuer(redisOpt, log)
		defer q.Close()
		enqueuer = q
	} else {
		log.Warn().Msg("REDIS_URL not set; OTP challenges use the document store and mail is sent inline")
	}

	codec, err := security.NewCodec(cfg.JWTSecret, cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.SessionTokenTTL())
	if err != nil {
		return err
	}
	hasher := security.NewHasher(cfg.BcryptCost)
	issuer := session.NewIssuer(codec, session.Options{
		TokenTTL:     cfg.SessionTokenTTL(),
		CookieMaxAge: cfg.CookieMaxAge(),
		Secure:       cfg.CookieSecure,
	})

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}
	var smsSender sms.Sender = sms.NewLogSender(log)
	if cfg.TwilioAccountSID != "" {
		smsSender = sms.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.TwilioBaseURL)
	}
	notifier := notify.New(smsSender, mailer, enqueuer, log)

	var devCodes devotp.Store
	if cfg.OTPReturnToClient {
		log.Warn().Msg("OTP_RETURN_TO_CLIENT is on; codes are echoed to clients and served from /dev/otp")
		devCodes = devotp.NewMemoryStore()
	}

	identities := identityrepo.NewDocumentRepository(docs)
	employees := employeerepo.NewDocumentRepository(docs)

	otpManager := otpservice.NewManager(challenges, notifier, cfg.ChallengeTTL(), devCodes, log)
	resolver := identityservice.NewResolver(identities, hasher)
	invitations := employeeservice.NewInvitationManager(employees, identities, hasher, codec, issuer, notifier,
		employeeservice.Config{InviteBaseURL: cfg.InviteBaseURL, TokenTTL: cfg.InvitationTokenTTL()}, log)
	board := taskservice.NewBoard(taskrepo.NewDocumentRepository(docs), employees)
	chat := chatservice.NewService(chatrepo.NewDocumentRepository(docs), identities)

	evaluator, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		return err
	}
	checker.AddPolicy("policy", evaluator)

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	if err != nil {
		return err
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}
	auditSink := telemetry.NewBackground(telemetry.Multi(emitters...), telemetry.DefaultEmitTimeout, log)
	auditLogger := audit.NewLogger(auditSink, middleware.IPFromContext, log)

	authn := middleware.NewAuthenticator(issuer)
	hub := chatgateway.NewHub(chat, middleware.OriginChecker(cfg.CORSOriginsList()), log)

	router := server.NewRouter(server.RouterConfig{
		Auth:          handler.NewAuthHandler(otpManager, resolver, issuer, invitations, auditLogger, cfg.OTPReturnToClient, log),
		Employees:     handler.NewEmployeeHandler(invitations, auditLogger, log),
		Tasks:         handler.NewTaskHandler(board),
		Chat:          handler.NewChatHandler(chat, authn, hub),
		Health:        checker,
		Authenticator: authn,
		RoleGate:      middleware.NewRoleGate(evaluator, auditLogger, log),
		Audit:         auditLogger,
		CORSOrigins:   cfg.CORSOriginsList(),
		Secure:        middleware.NewSecure(middleware.SecureOptions(!cfg.IsProduction())),
		DevCodes:      devCodes,
		Metrics:       true,
		Log:           log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var stopGRPC func()
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcSrv, hs := server.NewGRPCServer()
		go server.WatchHealth(ctx, hs, checker, 10*time.Second, log)
		go func() {
			log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc health listening")
			if err := grpcSrv.Serve(lis); err != nil {
				errc <- err
			}
		}()
		stopGRPC = grpcSrv.GracefulStop
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Error().Err(err).Msg("listener failed")
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if stopGRPC != nil {
		stopGRPC()
	}

	if err := auditSink.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit drain")
	}
	if err := kafkaProducer.Close(); err != nil {
		log.Warn().Err(err).Msg("kafka producer close")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	return nil
}

// openStore returns the Postgres document store, or the in-memory one when DATABASE_URL is empty.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set; using the in-memory store, data is lost on restart")
		return store.NewMemoryStore(store.DefaultUniques...), func() {}, nil
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

func newMailer(cfg *config.Config, log zerolog.Logger) (mail.Mailer, error) {
	if cfg.ResendAPIKey == "" {
		return mail.NewLogMailer(log), nil
	}
	return mail.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, cfg.ResendBaseURL)
}
