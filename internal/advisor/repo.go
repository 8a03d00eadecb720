package advisor

import (
	"context"
	"errors"
	"strings"

	"github.com/suPer8Hu/mentor-chat/internal/common"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("advisor not found")
	ErrInvalidInput = errors.New("advisor name and model are required")
)

// Repo stores assistants and mentors. Every write that turns the default flag on clears
// it on the siblings of the same kind in the same transaction, so readers never see two
// defaults of one kind.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) List(ctx context.Context, kind Kind) ([]Advisor, error) {
	var out []Advisor
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, kind Kind, id string) (*Advisor, error) {
	return get(r.db.WithContext(ctx), kind, id)
}

func get(tx *gorm.DB, kind Kind, id string) (*Advisor, error) {
	var a Advisor
	if err := tx.Where("kind = ? AND id = ?", kind, id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetDefault returns the default advisor of kind, or nil when none is marked.
func (r *Repo) GetDefault(ctx context.Context, kind Kind) (*Advisor, error) {
	var out []Advisor
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND is_default = ?", kind, true).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *Repo) Create(ctx context.Context, a *Advisor) error {
	a.Name = strings.TrimSpace(a.Name)
	a.ModelName = strings.TrimSpace(a.ModelName)
	if a.Name == "" || a.ModelName == "" {
		return ErrInvalidInput
	}
	if a.ID == "" {
		a.ID = common.NewULID()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := clearDefault(tx, a.Kind); err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

func (r *Repo) Update(ctx context.Context, kind Kind, id string, p Patch) (*Advisor, error) {
	var out *Advisor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := get(tx, kind, id)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if p.Name != nil {
			if strings.TrimSpace(*p.Name) == "" {
				return ErrInvalidInput
			}
			updates["name"] = strings.TrimSpace(*p.Name)
		}
		if p.ModelName != nil {
			if strings.TrimSpace(*p.ModelName) == "" {
				return ErrInvalidInput
			}
			updates["model_name"] = strings.TrimSpace(*p.ModelName)
		}
		if p.Temperature != nil {
			updates["temperature"] = *p.Temperature
		}
		if p.ActiveAfterQuestions != nil {
			updates["active_after_questions"] = *p.ActiveAfterQuestions
		}
		if p.SystemPrompt != nil {
			updates["system_prompt"] = *p.SystemPrompt
		}
		if p.IsDefault != nil {
			if *p.IsDefault {
				if err := clearDefault(tx, kind); err != nil {
					return err
				}
			}
			updates["is_default"] = *p.IsDefault
		}
		if len(updates) > 0 {
			if err := tx.Model(a).Updates(updates).Error; err != nil {
				return err
			}
		}
		out, err = get(tx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetDefault makes id the only default of its kind.
func (r *Repo) SetDefault(ctx context.Context, kind Kind, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, kind, id); err != nil {
			return err
		}
		if err := clearDefault(tx, kind); err != nil {
			return err
		}
		return tx.Model(&Advisor{}).Where("id = ?", id).Update("is_default", true).Error
	})
}

func (r *Repo) Delete(ctx context.Context, kind Kind, id string) error {
	res := r.db.WithContext(ctx).Where("kind = ? AND id = ?", kind, id).Delete(&Advisor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func clearDefault(tx *gorm.DB, kind Kind) error {
	return tx.Model(&Advisor{}).
		Where("kind = ? AND is_default = ?", kind, true).
		Update("is_default", false).Error
}
