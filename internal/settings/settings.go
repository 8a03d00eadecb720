package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/mentor-chat/internal/common"
	"gorm.io/gorm"
)

const DefaultProvider = "OpenRouter"

// APISettings configures the main model. Only the first row is ever read.
type APISettings struct {
	ID          string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Provider    string    `gorm:"type:varchar(64);not null" json:"provider"`
	APIKey      string    `gorm:"column:api_key;type:text" json:"-"`
	ModelName   string    `gorm:"type:varchar(255)" json:"model_name"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (APISettings) TableName() string { return "api_settings" }

// CalculationSettings configures the model used for chat analyses.
type CalculationSettings struct {
	ID          string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ModelName   string    `gorm:"type:varchar(255)" json:"model_name"`
	Temperature float64   `json:"temperature"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (CalculationSettings) TableName() string { return "calculation_settings" }

// APIPatch is a partial update; nil fields keep their stored value.
type APIPatch struct {
	Provider    *string  `json:"provider"`
	APIKey      *string  `json:"api_key"`
	ModelName   *string  `json:"model_name"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

type CalculationPatch struct {
	ModelName   *string  `json:"model_name"`
	Temperature *float64 `json:"temperature"`
}

type Repo struct {
	db     *gorm.DB
	sealer *Sealer
}

func NewRepo(db *gorm.DB, sealer *Sealer) *Repo {
	if sealer == nil {
		sealer = &Sealer{}
	}
	return &Repo{db: db, sealer: sealer}
}

// GetAPISettings returns the stored settings with the API key opened, or nil when nothing
// has been saved yet.
func (r *Repo) GetAPISettings(ctx context.Context) (*APISettings, error) {
	s, err := firstAPI(r.db.WithContext(ctx))
	if err != nil || s == nil {
		return nil, err
	}
	key, err := r.sealer.Open(s.APIKey)
	if err != nil {
		return nil, err
	}
	s.APIKey = key
	return s, nil
}

// SaveAPISettings updates the first record or creates it, and returns its id.
func (r *Repo) SaveAPISettings(ctx context.Context, p APIPatch) (string, error) {
	var sealedKey *string
	if p.APIKey != nil {
		v, err := r.sealer.Seal(strings.TrimSpace(*p.APIKey))
		if err != nil {
			return "", err
		}
		sealedKey = &v
	}

	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := firstAPI(tx)
		if err != nil {
			return err
		}
		if cur == nil {
			cur = &APISettings{ID: common.NewULID(), Provider: DefaultProvider}
			applyAPI(cur, p, sealedKey)
			id = cur.ID
			return tx.Create(cur).Error
		}
		applyAPI(cur, p, sealedKey)
		id = cur.ID
		return tx.Save(cur).Error
	})
	return id, err
}

func applyAPI(s *APISettings, p APIPatch, sealedKey *string) {
	if p.Provider != nil && strings.TrimSpace(*p.Provider) != "" {
		s.Provider = strings.TrimSpace(*p.Provider)
	}
	if sealedKey != nil {
		s.APIKey = *sealedKey
	}
	if p.ModelName != nil {
		s.ModelName = strings.TrimSpace(*p.ModelName)
	}
	if p.Temperature != nil {
		s.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		s.MaxTokens = *p.MaxTokens
	}
}

func firstAPI(tx *gorm.DB) (*APISettings, error) {
	var s APISettings
	if err := tx.Order("created_at ASC, id ASC").First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetCalculationSettings(ctx context.Context) (*CalculationSettings, error) {
	return firstCalc(r.db.WithContext(ctx))
}

func (r *Repo) SaveCalculationSettings(ctx context.Context, p CalculationPatch) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := firstCalc(tx)
		if err != nil {
			return err
		}
		create := cur == nil
		if create {
			cur = &CalculationSettings{ID: common.NewULID()}
		}
		if p.ModelName != nil {
			cur.ModelName = strings.TrimSpace(*p.ModelName)
		}
		if p.Temperature != nil {
			cur.Temperature = *p.Temperature
		}
		id = cur.ID
		if create {
			return tx.Create(cur).Error
		}
		return tx.Save(cur).Error
	})
	return id, err
}

func firstCalc(tx *gorm.DB) (*CalculationSettings, error) {
	var s CalculationSettings
	if err := tx.Order("created_at ASC, id ASC").First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
