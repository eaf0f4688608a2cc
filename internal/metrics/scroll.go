package metrics

// ScrollTracker follows the article viewer's scroll position. Positions are
// normalized with 1 at the top and 0 at the bottom.
type ScrollTracker struct {
	threshold   float64
	streamEvery int

	last        float64
	minPosition float64
	started     bool
	significant int
}

// NewScrollTracker counts a change larger than threshold as significant and
// asks for every streamEvery-th significant change to be streamed.
func NewScrollTracker(threshold float64, streamEvery int) *ScrollTracker {
	if threshold <= 0 {
		threshold = 0.1
	}
	if streamEvery <= 0 {
		streamEvery = 5
	}
	return &ScrollTracker{threshold: threshold, streamEvery: streamEvery, last: 1, minPosition: 1}
}

// Observe records a position. It returns the current depth and whether this
// observation should be streamed.
func (s *ScrollTracker) Observe(position float64) (depth float64, stream bool) {
	position = clamp(position)
	s.started = true
	if position < s.minPosition {
		s.minPosition = position
	}
	depth = 1 - position

	diff := position - s.last
	if diff < 0 {
		diff = -diff
	}
	if diff <= s.threshold {
		return depth, false
	}
	s.last = position
	s.significant++
	return depth, s.significant%s.streamEvery == 0
}

// MaxDepth is the deepest point reached, 0 before any observation.
func (s *ScrollTracker) MaxDepth() float64 {
	if !s.started {
		return 0
	}
	return 1 - s.minPosition
}

// SignificantChanges counts changes above the threshold.
func (s *ScrollTracker) SignificantChanges() int {
	return s.significant
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
