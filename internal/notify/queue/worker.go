package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"staffhub/backend/internal/notify/mail"
)

// Worker runs asynq task handlers.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	mailer mail.Mailer
	log    zerolog.Logger
}

// NewWorker creates an asynq server and registers handlers. Call Run to start.
func NewWorker(redisOpt asynq.RedisConnOpt, mailer mail.Mailer, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.WarnLevel,
	})
	w := &Worker{srv: srv, mux: asynq.NewServeMux(), mailer: mailer, log: log.With().Str("component", "queue_worker").Logger()}
	w.mux.HandleFunc(TypeSendInvitation, w.handleSendInvitation)
	return w
}

func (w *Worker) handleSendInvitation(ctx context.Context, t *asynq.Task) error {
	var p invitationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("invitation task payload invalid")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := w.mailer.Send(ctx, mail.InvitationMessage(p.Email, p.Name, p.Link)); err != nil {
		w.log.Warn().Err(err).Str("email", p.Email).Msg("invitation email failed")
		return err
	}
	w.log.Info().Str("email", p.Email).Msg("invitation email sent")
	return nil
}

// Run starts processing in the background. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Start(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
