package calculation

import (
	"context"
	"errors"
	"time"

	"github.com/suPer8Hu/mentor-chat/internal/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatAnalysis is the cached result of running a calculation prompt over a chat. A chat
// has at most one.
type ChatAnalysis struct {
	ID            string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ChatID        string    `gorm:"type:varchar(26);not null;uniqueIndex" json:"chat_id"`
	PromptID      string    `gorm:"type:varchar(26)" json:"prompt_id"`
	PromptName    string    `gorm:"type:varchar(255)" json:"prompt_name"`
	PromptContent string    `gorm:"type:text" json:"prompt_content"`
	ModelName     string    `gorm:"type:varchar(255)" json:"model_name"`
	Temperature   float64   `json:"temperature"`
	Result        string    `gorm:"type:text" json:"result"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ChatAnalysis) TableName() string { return "chat_analyses" }

var ErrNotFound = errors.New("analysis not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Get(ctx context.Context, chatID string) (*ChatAnalysis, error) {
	var a ChatAnalysis
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Save replaces the chat's analysis in a single upsert keyed by chat_id.
func (r *Repo) Save(ctx context.Context, a *ChatAnalysis) error {
	a.ID = common.NewULID()
	a.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"id", "prompt_id", "prompt_name", "prompt_content", "model_name", "temperature", "result", "created_at",
		}),
	}).Create(a).Error
}

func (r *Repo) Delete(ctx context.Context, chatID string) error {
	return deleteFor(r.db.WithContext(ctx), chatID)
}

// DeleteInTx removes a chat's analysis inside the chat-deletion transaction.
func DeleteInTx(tx *gorm.DB, chatID string) error {
	return deleteFor(tx, chatID)
}

func deleteFor(tx *gorm.DB, chatID string) error {
	return tx.Where("chat_id = ?", chatID).Delete(&ChatAnalysis{}).Error
}
