package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldTrigger_Thresholds(t *testing.T) {
	cases := []struct {
		kind        Kind
		exchanges   int
		activeAfter int
		want        bool
	}{
		{KindAssistant, 0, 0, false},
		{KindAssistant, 2, 1, false},
		{KindAssistant, 3, 0, true},
		{KindAssistant, 4, 0, false},
		{KindAssistant, 6, 3, true},
		{KindAssistant, 4, 2, true},
		{KindMentor, 3, 3, false},
		{KindMentor, 5, 1, false},
		{KindMentor, 6, 0, true},
		{KindMentor, 8, 4, true},
		{KindMentor, 9, 0, true},
		{KindMentor, 10, 4, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ShouldTrigger(tc.kind, tc.exchanges, tc.activeAfter),
			"%s exchanges=%d k=%d", tc.kind, tc.exchanges, tc.activeAfter)
	}
}

// 3k exchanges with period k always fire the assistant, 6k the mentor.
func TestShouldTrigger_MultiplesOfPeriod(t *testing.T) {
	for k := 1; k <= 12; k++ {
		assert.True(t, ShouldTrigger(KindAssistant, 3*k, k), "assistant k=%d", k)
		assert.True(t, ShouldTrigger(KindMentor, 6*k, k), "mentor k=%d", k)
		if k > 1 {
			assert.False(t, ShouldTrigger(KindAssistant, 3*k+1, k), "assistant off-period k=%d", k)
		}
	}
}
