package advisor

import "time"

// Kind distinguishes the two secondary analysers sharing the advisors table.
type Kind string

const (
	KindAssistant Kind = "assistant"
	KindMentor    Kind = "mentor"
)

// DefaultActiveAfter is used when an advisor has no active_after_questions value.
const DefaultActiveAfter = 3

type Advisor struct {
	ID                   string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Kind                 Kind      `gorm:"type:varchar(16);not null;index:idx_advisor_kind_default,priority:1" json:"kind"`
	Name                 string    `gorm:"type:varchar(255);not null" json:"name"`
	ModelName            string    `gorm:"type:varchar(255);not null" json:"model_name"`
	Temperature          float64   `gorm:"not null" json:"temperature"`
	ActiveAfterQuestions int       `gorm:"not null;default:0" json:"active_after_questions"`
	SystemPrompt         string    `gorm:"type:text" json:"system_prompt"`
	IsDefault            bool      `gorm:"not null;default:false;index:idx_advisor_kind_default,priority:2" json:"is_default"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Advisor) TableName() string { return "advisors" }

// ActiveAfter is the trigger period, DefaultActiveAfter when unset.
func (a *Advisor) ActiveAfter() int {
	if a.ActiveAfterQuestions <= 0 {
		return DefaultActiveAfter
	}
	return a.ActiveAfterQuestions
}

// Config is the subset of an advisor an analysis call needs.
func (a *Advisor) Config() Config {
	return Config{ModelName: a.ModelName, Temperature: a.Temperature}
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	Name                 *string  `json:"name"`
	ModelName            *string  `json:"model_name"`
	Temperature          *float64 `json:"temperature"`
	ActiveAfterQuestions *int     `json:"active_after_questions"`
	SystemPrompt         *string  `json:"system_prompt"`
	IsDefault            *bool    `json:"is_default"`
}
