// Package queue moves slow deliveries (invitation mail) off the request path using asynq on Redis.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	TypeSendInvitation = "email:invitation"
)

// invitationPayload is the JSON enqueued by EnqueueInvitation.
type invitationPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Link  string `json:"link"`
}

// TaskEnqueuer enqueues delivery tasks.
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

// NewAsynqEnqueuer returns an enqueuer on redisOpt.
func NewAsynqEnqueuer(redisOpt asynq.RedisConnOpt, log zerolog.Logger) *TaskEnqueuer {
	return &TaskEnqueuer{client: asynq.NewClient(redisOpt), log: log.With().Str("component", "queue").Logger()}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

// EnqueueInvitation schedules the invitation mail for email. Retries are bounded and the task expires
// with the invitation token.
func (q *TaskEnqueuer) EnqueueInvitation(ctx context.Context, email, name, link string) error {
	payload, err := json.Marshal(invitationPayload{Email: email, Name: name, Link: link})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeSendInvitation, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue invitation email failed")
		return err
	}
	q.log.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("invitation email enqueued")
	return nil
}
