package turn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeSystemPrompt_Order(t *testing.T) {
	got := ComposeSystemPrompt("You are a tutor.", "user struggles with recursion", "encourage them")

	iMain := strings.Index(got, "You are a tutor.")
	iAssistant := strings.Index(got, assistantHeader)
	iMentor := strings.Index(got, mentorHeader)
	iClosing := strings.Index(got, closingInstruction)

	assert.Equal(t, 0, iMain)
	assert.Greater(t, iAssistant, iMain)
	assert.Greater(t, iMentor, iAssistant)
	assert.Greater(t, iClosing, iMentor)
	assert.Contains(t, got, assistantHeader+"\nuser struggles with recursion")
}

func TestComposeSystemPrompt_OptionalParts(t *testing.T) {
	assert.Equal(t, "", ComposeSystemPrompt("", "", " "))
	assert.Equal(t, "main", ComposeSystemPrompt(" main ", "", ""))

	onlyMentor := ComposeSystemPrompt("", "", "nudge")
	assert.True(t, strings.HasPrefix(onlyMentor, mentorHeader))
	assert.NotContains(t, onlyMentor, assistantHeader)
	assert.True(t, strings.HasSuffix(onlyMentor, closingInstruction))
}
