package chat

import (
	"time"

	"gorm.io/gorm"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is a turn queued for the worker. Prompts are stored as resolved text so the worker
// does not depend on prompt records that may change in between.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	ChatID string `gorm:"size:26;not null;index:uniq_turn_job_idempo,unique,priority:1" json:"chat_id"`

	Content         string `gorm:"type:text;not null" json:"-"`
	SystemPrompt    string `gorm:"type:text" json:"-"`
	AssistantPrompt string `gorm:"type:text" json:"-"`
	MentorPrompt    string `gorm:"type:text" json:"-"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_turn_job_idempo,unique,priority:2" json:"-"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	ResultMessageID *string `gorm:"size:26" json:"result_message_id"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "turn_jobs" }

// DeleteJobsInTx removes a chat's turn jobs; register it with Repo.OnDelete.
func DeleteJobsInTx(tx *gorm.DB, chatID string) error {
	return tx.Where("chat_id = ?", chatID).Delete(&Job{}).Error
}
