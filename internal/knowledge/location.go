// Package knowledge holds the two learned repositories: labeled location
// samples with per-feature running statistics, and labeled trigger samples
// with a per-category keyword vocabulary. Both persist as indented JSON.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shot-sorter/internal/features"
)

// timestampLayout matches the naive ISO timestamps of existing files.
const timestampLayout = "2006-01-02T15:04:05.000000"

// Stat is the running aggregate of one feature for one location.
type Stat struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// UnmarshalJSON restores Sum from Mean*Count when an older file omits it.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var raw struct {
		Min   float64  `json:"min"`
		Max   float64  `json:"max"`
		Sum   *float64 `json:"sum"`
		Count int      `json:"count"`
		Mean  float64  `json:"mean"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Min, s.Max, s.Count, s.Mean = raw.Min, raw.Max, raw.Count, raw.Mean
	if raw.Sum != nil {
		s.Sum = *raw.Sum
	} else {
		s.Sum = raw.Mean * float64(raw.Count)
	}
	return nil
}

func (s *Stat) add(v float64) {
	if s.Count == 0 {
		*s = Stat{Min: v, Max: v, Sum: v, Count: 1, Mean: v}
		return
	}
	s.Min = min(s.Min, v)
	s.Max = max(s.Max, v)
	s.Sum += v
	s.Count++
	s.Mean = s.Sum / float64(s.Count)
}

// LocationSample is one labeled screenshot.
type LocationSample struct {
	Location  string          `json:"location"`
	Filename  string          `json:"filename"`
	Features  features.Vector `json:"features"`
	Timestamp string          `json:"timestamp"`
}

// LocationKB is the persistent store of labeled location samples.
type LocationKB struct {
	mu sync.RWMutex

	Samples       []LocationSample            `json:"samples"`
	FeatureRanges map[string]map[string]*Stat `json:"feature_ranges"`
	Version       int                         `json:"version"`

	// FilePath is where the repository is persisted.
	FilePath string `json:"-"`
}

// NewLocationKB returns an empty repository bound to path.
func NewLocationKB(path string) *LocationKB {
	return &LocationKB{
		Samples:       []LocationSample{},
		FeatureRanges: make(map[string]map[string]*Stat),
		Version:       1,
		FilePath:      path,
	}
}

// LoadLocationKB reads a repository from disk. A missing file yields an empty
// repository. A malformed file also yields an empty repository, together with
// the parse error so the caller can report it.
func LoadLocationKB(path string) (*LocationKB, error) {
	kb := NewLocationKB(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return kb, nil
		}
		return kb, fmt.Errorf("failed to read location knowledge: %w", err)
	}

	loaded := NewLocationKB(path)
	if err := json.Unmarshal(data, loaded); err != nil {
		return kb, fmt.Errorf("failed to parse location knowledge: %w", err)
	}
	if loaded.Samples == nil {
		loaded.Samples = []LocationSample{}
	}
	if loaded.FeatureRanges == nil {
		loaded.FeatureRanges = make(map[string]map[string]*Stat)
	}
	return loaded, nil
}

// Save writes the repository to FilePath.
func (kb *LocationKB) Save() error {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.save()
}

func (kb *LocationKB) save() error {
	return writeJSON(kb.FilePath, kb)
}

// AddSample records a labeled feature vector, folds it into the location's
// running statistics and persists the repository.
func (kb *LocationKB) AddSample(vec features.Vector, location, filename string) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.Samples = append(kb.Samples, LocationSample{
		Location:  location,
		Filename:  filename,
		Features:  vec.Clone(),
		Timestamp: time.Now().Format(timestampLayout),
	})

	ranges := kb.FeatureRanges[location]
	if ranges == nil {
		ranges = make(map[string]*Stat)
		kb.FeatureRanges[location] = ranges
	}
	for key, v := range vec {
		st := ranges[key]
		if st == nil {
			st = &Stat{}
			ranges[key] = st
		}
		st.add(v)
	}

	return kb.save()
}

// SampleCount returns the number of stored samples.
func (kb *LocationKB) SampleCount() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.Samples)
}

// LocationCounts returns the number of samples per location.
func (kb *LocationKB) LocationCounts() map[string]int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	counts := make(map[string]int)
	for _, s := range kb.Samples {
		counts[s.Location]++
	}
	return counts
}

// Ranges returns a copy of the per-location feature statistics.
func (kb *LocationKB) Ranges() map[string]map[string]Stat {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	out := make(map[string]map[string]Stat, len(kb.FeatureRanges))
	for loc, ranges := range kb.FeatureRanges {
		m := make(map[string]Stat, len(ranges))
		for k, st := range ranges {
			if st != nil {
				m[k] = *st
			}
		}
		out[loc] = m
	}
	return out
}

// Reset drops every sample and removes the backing file.
func (kb *LocationKB) Reset() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.Samples = []LocationSample{}
	kb.FeatureRanges = make(map[string]map[string]*Stat)
	kb.Version = 1

	if kb.FilePath == "" {
		return nil
	}
	if err := os.Remove(kb.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove location knowledge: %w", err)
	}
	return nil
}

// writeJSON persists v as indented JSON. An empty path marks an in-memory
// repository and writes nothing.
func writeJSON(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
