package chat

import (
	"fmt"
	"time"
)

// Role is the closed set of message authors stored in a chat.
type Role string

const (
	RoleUser      Role = "user"
	RoleAI        Role = "ai"
	RoleAssistant Role = "assistant"
	RoleMentor    Role = "mentor"
	RoleSystem    Role = "system"
)

var roles = []Role{RoleUser, RoleAI, RoleAssistant, RoleMentor, RoleSystem}

func ParseRole(s string) (Role, error) {
	for _, r := range roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown message role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Conversational reports whether messages of this role are part of the dialogue replayed
// to the main model. Analysis output (assistant, mentor) and system entries are not.
func (r Role) Conversational() bool {
	return r == RoleUser || r == RoleAI
}

// WireRole maps a stored role to the provider's role vocabulary.
func (r Role) WireRole() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	default:
		return "assistant"
	}
}

const DefaultTitle = "New Chat"

type Chat struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

// Message is immutable once written.
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	ChatID    string    `gorm:"type:varchar(26);not null;index:idx_chat_msg_chat_created,priority:1" json:"chat_id"`
	Role      Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_chat_msg_chat_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
