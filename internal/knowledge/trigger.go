package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"shot-sorter/internal/features"

	"golang.org/x/text/cases"
)

// Category codes stored in the trigger repository.
const (
	CodeTablets  = "TAB"
	CodeVaccines = "VAC"
	CodePMP      = "PMP"
)

// minKeywordLen is the shortest token kept in, and matched from, the vocabulary.
const minKeywordLen = 4

const tokenPunct = ".,!?:;()[]"

var baseCodes = []string{CodeTablets, CodeVaccines, CodePMP}

// TriggerSample is one screenshot labeled with a category.
type TriggerSample struct {
	File     string          `json:"file"`
	Cat      string          `json:"cat"`
	OCRTexts []string        `json:"ocr_texts"`
	Features features.Vector `json:"features"`
}

// TriggerKB is the persistent store of labeled trigger samples.
type TriggerKB struct {
	mu sync.RWMutex

	Labeled     []TriggerSample     `json:"labeled"`
	CatKeywords map[string][]string `json:"cat_keywords"`
	Version     int                 `json:"version"`

	FilePath string `json:"-"`
}

// NewTriggerKB returns an empty repository bound to path.
func NewTriggerKB(path string) *TriggerKB {
	kb := &TriggerKB{
		Labeled:  []TriggerSample{},
		Version:  1,
		FilePath: path,
	}
	kb.ensureCodes()
	return kb
}

func (kb *TriggerKB) ensureCodes() {
	if kb.CatKeywords == nil {
		kb.CatKeywords = make(map[string][]string)
	}
	for _, c := range baseCodes {
		if kb.CatKeywords[c] == nil {
			kb.CatKeywords[c] = []string{}
		}
	}
	if kb.Labeled == nil {
		kb.Labeled = []TriggerSample{}
	}
}

// LoadTriggerKB reads a repository from disk with the same fallback rules as
// LoadLocationKB.
func LoadTriggerKB(path string) (*TriggerKB, error) {
	kb := NewTriggerKB(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return kb, nil
		}
		return kb, fmt.Errorf("failed to read trigger knowledge: %w", err)
	}

	loaded := &TriggerKB{FilePath: path}
	if err := json.Unmarshal(data, loaded); err != nil {
		return kb, fmt.Errorf("failed to parse trigger knowledge: %w", err)
	}
	loaded.ensureCodes()
	return loaded, nil
}

// Save writes the repository to FilePath.
func (kb *TriggerKB) Save() error {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return writeJSON(kb.FilePath, kb)
}

// AddSample stores a labeled sample, replacing any earlier sample for the
// same file, extends the category vocabulary and persists the repository.
func (kb *TriggerKB) AddSample(file, cat string, texts []string, vec features.Vector) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kept := kb.Labeled[:0]
	for _, s := range kb.Labeled {
		if s.File != file {
			kept = append(kept, s)
		}
	}
	kb.Labeled = append(kept, TriggerSample{
		File:     file,
		Cat:      cat,
		OCRTexts: append([]string(nil), texts...),
		Features: vec.Clone(),
	})

	kb.learnWords(cat, texts)
	return writeJSON(kb.FilePath, kb)
}

func (kb *TriggerKB) learnWords(cat string, texts []string) {
	known := make(map[string]bool)
	for _, w := range kb.CatKeywords[cat] {
		known[w] = true
	}
	words := kb.CatKeywords[cat]
	if words == nil {
		words = []string{}
	}
	fold := cases.Fold()
	for _, text := range texts {
		for _, tok := range strings.Fields(text) {
			tok = strings.Trim(tok, tokenPunct)
			if utf8.RuneCountInString(tok) < minKeywordLen {
				continue
			}
			tok = fold.String(tok)
			if known[tok] {
				continue
			}
			known[tok] = true
			words = append(words, tok)
		}
	}
	kb.CatKeywords[cat] = words
}

// Prediction is the vocabulary vote over a set of OCR texts.
type Prediction struct {
	Code       string
	Confidence float64
	Words      []string
}

// Predict counts vocabulary substring hits per category. It needs at least one
// labeled sample and two hits for the winning category; below that Code is
// empty but the matched words are still reported.
func (kb *TriggerKB) Predict(texts []string) Prediction {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	if len(kb.Labeled) == 0 {
		return Prediction{}
	}

	combined := cases.Fold().String(strings.Join(texts, " "))
	scores := make(map[string]int)
	matched := make(map[string][]string)
	for cat, words := range kb.CatKeywords {
		for _, w := range words {
			if utf8.RuneCountInString(w) >= minKeywordLen && strings.Contains(combined, w) {
				scores[cat]++
				matched[cat] = append(matched[cat], w)
			}
		}
	}

	total, best, bestCat := 0, 0, ""
	for _, cat := range kb.codeOrder() {
		total += scores[cat]
		if scores[cat] > best {
			best, bestCat = scores[cat], cat
		}
	}
	if total == 0 {
		return Prediction{}
	}
	if best < 2 {
		return Prediction{Words: matched[bestCat]}
	}
	return Prediction{
		Code:       bestCat,
		Confidence: float64(best) / float64(total),
		Words:      matched[bestCat],
	}
}

// codeOrder lists the base codes first, then any other categories sorted.
func (kb *TriggerKB) codeOrder() []string {
	order := append([]string(nil), baseCodes...)
	var extra []string
	for cat := range kb.CatKeywords {
		if cat != CodeTablets && cat != CodeVaccines && cat != CodePMP {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// DeleteCategory removes every sample labeled cat, clears its vocabulary and
// persists the repository. It returns the number of samples removed.
func (kb *TriggerKB) DeleteCategory(cat string) (int, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	removed := kb.filter(func(s TriggerSample) bool { return s.Cat != cat })
	kb.CatKeywords[cat] = []string{}
	return removed, writeJSON(kb.FilePath, kb)
}

// DeleteFile removes the samples of one file. The repository is persisted only
// when something was removed.
func (kb *TriggerKB) DeleteFile(file string) (int, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	removed := kb.filter(func(s TriggerSample) bool { return s.File != file })
	if removed == 0 {
		return 0, nil
	}
	return removed, writeJSON(kb.FilePath, kb)
}

func (kb *TriggerKB) filter(keep func(TriggerSample) bool) int {
	kept := kb.Labeled[:0]
	for _, s := range kb.Labeled {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	removed := len(kb.Labeled) - len(kept)
	kb.Labeled = kept
	return removed
}

// LabeledCount returns the number of labeled samples.
func (kb *TriggerKB) LabeledCount() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.Labeled)
}

// Keywords returns a copy of one category's vocabulary.
func (kb *TriggerKB) Keywords(cat string) []string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]string(nil), kb.CatKeywords[cat]...)
}
