package turn

import "strings"

const (
	assistantHeader    = "ASSISTANT ANALYSIS (PRIORITY EXECUTION):"
	mentorHeader       = "MENTOR GUIDANCE:"
	closingInstruction = "Please incorporate this guidance into your response while maintaining your natural conversation style."
)

// ComposeSystemPrompt builds the main model's system prompt. The order is fixed: main
// prompt, assistant analysis, mentor guidance, then the closing instruction when either
// analysis was added. Blank parts are omitted.
func ComposeSystemPrompt(main, assistant, mentor string) string {
	var parts []string
	if s := strings.TrimSpace(main); s != "" {
		parts = append(parts, s)
	}
	guided := false
	if s := strings.TrimSpace(assistant); s != "" {
		parts = append(parts, assistantHeader+"\n"+s)
		guided = true
	}
	if s := strings.TrimSpace(mentor); s != "" {
		parts = append(parts, mentorHeader+"\n"+s)
		guided = true
	}
	if guided {
		parts = append(parts, closingInstruction)
	}
	return strings.Join(parts, "\n\n")
}
