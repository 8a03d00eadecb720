package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suPer8Hu/mentor-chat/internal/common"
	"gorm.io/gorm"
)

// Target says which model a prompt is written for. Empty means any.
type Target string

const (
	TargetNone      Target = ""
	TargetMain      Target = "main"
	TargetAssistant Target = "assistant"
	TargetMentor    Target = "mentor"
	TargetCalculate Target = "calculate-main-model"
)

func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.TrimSpace(s)); t {
	case TargetNone, TargetMain, TargetAssistant, TargetMentor, TargetCalculate:
		return t, nil
	}
	return "", fmt.Errorf("unknown prompt target %q", s)
}

type Prompt struct {
	ID          string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	TargetModel Target    `gorm:"type:varchar(32);index" json:"target_model"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Prompt) TableName() string { return "prompts" }

var (
	ErrNotFound     = errors.New("prompt not found")
	ErrInvalidInput = errors.New("prompt name and content are required")
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) List(ctx context.Context) ([]Prompt, error) {
	var out []Prompt
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByTarget returns the prompts written for t.
func (r *Repo) ListByTarget(ctx context.Context, t Target) ([]Prompt, error) {
	var out []Prompt
	if err := r.db.WithContext(ctx).
		Where("target_model = ?", t).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Prompt, error) {
	var p Prompt
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, name, content string, target Target) (*Prompt, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(content) == "" {
		return nil, ErrInvalidInput
	}
	p := &Prompt{ID: common.NewULID(), Name: name, Content: content, TargetModel: target}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the non-nil fields.
func (r *Repo) Update(ctx context.Context, id string, name, content *string, target *Target) (*Prompt, error) {
	updates := map[string]any{}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, ErrInvalidInput
		}
		updates["name"] = strings.TrimSpace(*name)
	}
	if content != nil {
		if strings.TrimSpace(*content) == "" {
			return nil, ErrInvalidInput
		}
		updates["content"] = *content
	}
	if target != nil {
		updates["target_model"] = *target
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		res := r.db.WithContext(ctx).Model(&Prompt{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Prompt{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
