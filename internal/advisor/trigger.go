package advisor

// Minimum completed exchanges before each kind may run.
const (
	AssistantThreshold = 3
	MentorThreshold    = 6
)

func (k Kind) Threshold() int {
	if k == KindMentor {
		return MentorThreshold
	}
	return AssistantThreshold
}

// ShouldTrigger reports whether an advisor of kind with the given period runs at this
// exchange count. A non-positive period means DefaultActiveAfter.
func ShouldTrigger(kind Kind, exchanges, activeAfter int) bool {
	if activeAfter <= 0 {
		activeAfter = DefaultActiveAfter
	}
	return exchanges >= kind.Threshold() && exchanges%activeAfter == 0
}
