package coordinator

type State int

const (
	Idle State = iota
	AwaitingSuggestion
	Showing
	// Stale means the surface changed while a request was in flight; its
	// result will be discarded.
	Stale
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSuggestion:
		return "awaiting"
	case Showing:
		return "showing"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}
