package turn

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
)

// ErrRetryLater means the job could not start now and should be redelivered.
var ErrRetryLater = errors.New("turn job deferred")

// JobRunner executes queued turn jobs.
type JobRunner struct {
	chats *chat.Repo
	orch  *Orchestrator
	log   zerolog.Logger
}

func NewJobRunner(chats *chat.Repo, orch *Orchestrator, log zerolog.Logger) *JobRunner {
	return &JobRunner{chats: chats, orch: orch, log: log}
}

// Handle runs the job's turn and records the outcome on the job. Jobs that already
// finished are skipped so a redelivery never produces a second reply.
func (r *JobRunner) Handle(ctx context.Context, jobID string) error {
	start := time.Now()

	j, err := r.chats.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status == chat.JobSucceeded || j.Status == chat.JobFailed {
		r.log.Info().Str("job_id", jobID).Str("status", string(j.Status)).Msg("job already finished, skipping")
		return nil
	}
	_ = r.chats.UpdateJobStatusRunning(ctx, jobID)

	res, err := r.orch.Run(ctx, Request{
		ChatID:          j.ChatID,
		Content:         j.Content,
		SystemPrompt:    j.SystemPrompt,
		AssistantPrompt: j.AssistantPrompt,
		MentorPrompt:    j.MentorPrompt,
	})
	if errors.Is(err, ErrTurnInProgress) {
		_ = r.chats.RequeueJob(ctx, jobID)
		return ErrRetryLater
	}
	if err != nil {
		if markErr := r.chats.MarkJobFailed(ctx, jobID, err.Error()); markErr != nil {
			r.log.Error().Err(markErr).Str("job_id", jobID).Msg("mark job failed")
		}
		r.log.Warn().Err(err).Str("job_id", jobID).Dur("cost", time.Since(start)).Msg("job failed")
		return err
	}

	if err := r.chats.MarkJobSucceeded(ctx, jobID, res.Reply.ID); err != nil {
		return err
	}
	if cost := time.Since(start); cost > 2*time.Second {
		r.log.Info().Str("job_id", jobID).Str("status", string(res.Status)).Dur("cost", cost).Msg("slow job")
	}
	return nil
}

// Abandon marks a job that will not be retried again as failed.
func (r *JobRunner) Abandon(ctx context.Context, jobID, reason string) {
	if err := r.chats.MarkJobFailed(ctx, jobID, reason); err != nil {
		r.log.Error().Err(err).Str("job_id", jobID).Msg("mark abandoned job failed")
	}
}
