package db

import (
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/calculation"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
	"gorm.io/gorm"
)

// Models lists every table the application owns.
func Models() []any {
	return []any{
		&chat.Chat{},
		&chat.Message{},
		&chat.Job{},
		&advisor.Advisor{},
		&prompt.Prompt{},
		&settings.APISettings{},
		&settings.CalculationSettings{},
		&calculation.ChatAnalysis{},
	}
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(Models()...)
}
