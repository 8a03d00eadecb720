package chat

import (
	"strings"

	"github.com/suPer8Hu/mentor-chat/internal/ai"
)

const (
	titleMaxRunes  = 50
	titleKeepRunes = 47
)

// DeriveTitle turns the first user message into a chat title. The text is kept as written
// apart from outer whitespace; anything longer than 50 runes is cut to 47 runes plus "...".
func DeriveTitle(content string) string {
	title := strings.TrimSpace(content)
	r := []rune(title)
	if len(r) > titleMaxRunes {
		return string(r[:titleKeepRunes]) + "..."
	}
	return title
}

// ConversationHistory keeps only conversational messages (see Role.Conversational), maps
// them to provider roles and appends the new utterance as the last user entry.
func ConversationHistory(msgs []Message, utterance string) []ai.Message {
	out := make([]ai.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		if !m.Role.Conversational() {
			continue
		}
		out = append(out, ai.Message{Role: m.Role.WireRole(), Content: m.Content})
	}
	if utterance != "" {
		out = append(out, ai.Message{Role: ai.RoleUser, Content: utterance})
	}
	return out
}

// CountExchanges is the number of complete user/ai pairs in a conversation history.
func CountExchanges(history []ai.Message) int {
	return len(history) / 2
}
