package analyzer

import (
	"sort"
	"sync"
	"time"
)

// SightingIndex records the capture times of frames with a visible body
// camera. Frames taken within the window of a sighting inherit it.
type SightingIndex struct {
	mu    sync.Mutex
	times []time.Time
}

// Record inserts t keeping the index sorted.
func (s *SightingIndex) Record(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.times), func(i int) bool { return !s.times[i].Before(t) })
	s.times = append(s.times, time.Time{})
	copy(s.times[i+1:], s.times[i:])
	s.times[i] = t
}

// Near reports whether a sighting lies within window of t, inclusive.
func (s *SightingIndex) Near(t time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.times), func(i int) bool { return !s.times[i].Before(t) })
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(s.times) {
			continue
		}
		d := t.Sub(s.times[j])
		if d < 0 {
			d = -d
		}
		if d <= window {
			return true
		}
	}
	return false
}

// Len returns the number of recorded sightings.
func (s *SightingIndex) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.times)
}
