package provider

import "time"

// State is the selection state of one provider.
type State struct {
	LastRequestAt       time.Time
	BaseInterval        time.Duration
	MinInterval         time.Duration
	ConsecutiveFailures int
	Available           bool
}

// CoolingDown reports whether a request at now would come too early.
func (s State) CoolingDown(now time.Time) bool {
	if s.LastRequestAt.IsZero() || s.MinInterval <= 0 {
		return false
	}
	return now.Sub(s.LastRequestAt) < s.MinInterval
}

// backoff multiplies the minimum interval, starting from floor when there
// is none, and caps it at max.
func (s *State) backoff(mult float64, floor, max time.Duration) {
	cur := s.MinInterval
	if cur <= 0 {
		cur = floor
	}
	next := time.Duration(float64(cur) * mult)
	if max > 0 && next > max {
		next = max
	}
	s.MinInterval = next
}

func (s *State) reset() {
	s.MinInterval = s.BaseInterval
	s.ConsecutiveFailures = 0
}
