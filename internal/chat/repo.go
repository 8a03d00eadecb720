package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suPer8Hu/mentor-chat/internal/common"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("chat not found")
	ErrJobNotFound = errors.New("job not found")
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// CascadeFunc deletes rows owned by a chat inside the chat-deletion transaction.
type CascadeFunc func(tx *gorm.DB, chatID string) error

type Repo struct {
	db       *gorm.DB
	cascades []CascadeFunc
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// OnDelete registers extra rows to remove when a chat is deleted.
func (r *Repo) OnDelete(f CascadeFunc) {
	r.cascades = append(r.cascades, f)
}

func (r *Repo) CreateChat(ctx context.Context, title string) (*Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	c := &Chat{ID: common.NewULID(), Title: title}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repo) GetChat(ctx context.Context, id string) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListChats returns chats newest first.
func (r *Repo) ListChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *Repo) UpdateChatTitle(ctx context.Context, id, title string) error {
	res := r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": title, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChat removes the chat, its messages and every registered cascade in one transaction.
func (r *Repo) DeleteChat(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		for _, f := range r.cascades {
			if err := f(tx, id); err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&Chat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AppendMessage stores a message and bumps the chat's updated_at in one transaction.
func (r *Repo) AppendMessage(ctx context.Context, chatID string, role Role, content string) (*Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("append message: unknown role %q", role)
	}
	m := &Message{
		ID:      common.NewULID(),
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Chat{}).Where("id = ?", chatID).Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns every message of a chat in creation order.
func (r *Repo) ListMessages(ctx context.Context, chatID string, order Order) ([]Message, error) {
	return r.listMessages(r.db.WithContext(ctx).Where("chat_id = ?", chatID), order)
}

// ListMessagesForUI is ListMessages without system entries.
func (r *Repo) ListMessagesForUI(ctx context.Context, chatID string, order Order) ([]Message, error) {
	return r.listMessages(r.db.WithContext(ctx).Where("chat_id = ? AND role <> ?", chatID, RoleSystem), order)
}

func (r *Repo) listMessages(q *gorm.DB, order Order) ([]Message, error) {
	dir := "ASC"
	if order == OrderDesc {
		dir = "DESC"
	}
	var msgs []Message
	if err := q.Order("created_at " + dir + ", id " + dir).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// Job CRUD
func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

// RequeueJob puts a running job back to queued, used when it is deferred for a retry.
func (r *Repo) RequeueJob(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobRunning).
		Update("status", JobQueued).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string, replyMsgID string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobSucceeded,
			"result_message_id": replyMsgID,
			"error":             nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobFailed,
			"error":             errMsg,
			"result_message_id": nil,
		}).Error
}

func (r *Repo) GetJobByIdempotencyKey(ctx context.Context, chatID, key string) (*Job, error) {
	var job Job
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND idempotency_key = ?", chatID, key).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJobOrGetExisting tries to create a job, but if the idempotency key already exists
// for the chat it returns the existing job instead.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		// No key provided -> always a new job
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.GetJobByIdempotencyKey(ctx, job.ChatID, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}

	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}
