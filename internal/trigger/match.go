package trigger

import (
	"strings"

	"shot-sorter/internal/config"
)

// maxEdits is the edit budget of the fuzzy keyword search.
const maxEdits = 2

// translitEntry maps an OCR misreading (Latin look-alikes, digits for
// letters) to the Russian stem it stands for.
type translitEntry struct {
	from, to string
}

// translit is scanned in order; the first entry whose stem decides a
// category wins.
var translit = []translitEntry{
	{"baklnh", "вакцин"},
	{"bakuih", "вакцин"},
	{"vakc", "вакцин"},
	{"baklnhy", "вакцину"},
	{"baknhy", "вакцину"},
	{"vaktsn", "вакцин"},
	{"вакц", "вакцин"},

	{"tabletk", "таблетк"},
	{"tablet", "таблет"},
	{"ta6teleok", "таблеток"},
	{"ta6let", "таблет"},

	{"lekarst", "лекарств"},
	{"nekapctb", "лекарств"},
	{"npenapat", "препарат"},
	{"preparat", "препарат"},
	{"nekapctbehhbi", "лекарственны"},
	{"medukami", "медикам"},
	{"medikament", "медикамент"},

	{"пмп", "пмп"},
	{"pmp", "пмп"},
	{"nмn", "пмп"},
	{"pmп", "пмп"},
	{"пмn", "пмп"},

	{"vydal", "выдал"},
	{"poluchil", "получил"},
	{"bыдaл", "выдал"},
	{"пoлyчил", "получил"},
	{"b3an", "взял"},
	{"b3ял", "взял"},

	{"aptechk", "аптечк"},
	{"anteчk", "аптечк"},

	{"elsh", "elsh"},
	{"sandy", "sandy"},
	{"paleto", "paleto"},
	{"3nш", "элш"},
	{"caнди", "санди"},
	{"naneto", "палето"},
}

// translitPMPConfirm are the hand-over verbs required for a transliterated PMP hit.
var translitPMPConfirm = []string{"выдал", "получил", "взял", "vydal", "poluchil", "b3an"}

// stemCategory maps a translit target stem to the category it implies.
func stemCategory(stem string) Category {
	switch stem {
	case "вакцин", "вакцину":
		return Vaccines
	case "таблетк", "таблет", "лекарств", "препарат", "медикамент", "аптечк":
		return Tablets
	case "пмп":
		return PMP
	}
	return None
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Matcher applies the keyword rules of a configuration to OCR text.
// Texts are expected in lower case.
type Matcher struct {
	kw config.Keywords
}

// NewMatcher returns a matcher over the given vocabularies.
func NewMatcher(kw config.Keywords) *Matcher {
	return &Matcher{kw: kw}
}

// Exact checks literal keywords. PMP needs a confirmation word and is tried first.
func (m *Matcher) Exact(text string) Category {
	switch {
	case containsAny(text, m.kw.PMP) && containsAny(text, m.kw.PMPConfirm):
		return PMP
	case containsAny(text, m.kw.Vaccines):
		return Vaccines
	case containsAny(text, m.kw.Tablets):
		return Tablets
	}
	return None
}

// Fuzzy checks the core keywords allowing up to two edits.
func (m *Matcher) Fuzzy(text string) Category {
	if FuzzyFind(text, m.kw.FuzzyPMP, maxEdits) && containsAny(text, m.kw.PMPConfirm) {
		return PMP
	}
	if FuzzyFind(text, m.kw.FuzzyVaccine, maxEdits) {
		return Vaccines
	}
	if FuzzyFind(text, m.kw.FuzzyTablets, maxEdits) {
		return Tablets
	}
	return None
}

// Translit checks literal keywords first (vaccines, tablets, then confirmed
// PMP) and then the transliteration table.
func (m *Matcher) Translit(text string) Category {
	text = strings.ToLower(text)
	switch {
	case containsAny(text, m.kw.Vaccines):
		return Vaccines
	case containsAny(text, m.kw.Tablets):
		return Tablets
	case containsAny(text, m.kw.PMP) && containsAny(text, m.kw.PMPConfirm):
		return PMP
	}

	for _, e := range translit {
		if !strings.Contains(text, e.from) {
			continue
		}
		switch cat := stemCategory(e.to); cat {
		case Vaccines, Tablets:
			return cat
		case PMP:
			if containsAny(text, translitPMPConfirm) {
				return PMP
			}
		}
	}
	return None
}

// Rejected reports whether text carries a veto word.
func (m *Matcher) Rejected(text string) bool {
	return containsAny(text, m.kw.Reject)
}

// Refused reports whether text describes a refused treatment.
func (m *Matcher) Refused(text string) bool {
	return containsAny(text, m.kw.Refuse)
}

// Levenshtein returns the edit distance between a and b counted in runes, or
// 99 when their lengths differ by more than three.
func Levenshtein(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(s1, s2 []rune) int {
	if d := len(s1) - len(s2); d > 3 || d < -3 {
		return 99
	}
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	prev := make([]int, len(s1)+1)
	curr := make([]int, len(s1)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(s2); j++ {
		curr[0] = j
		for i := 1; i <= len(s1); i++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[i] = min(curr[i-1]+1, prev[i]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s1)]
}

// FuzzyFind reports whether any keyword occurs in text within maxDist edits.
// Keywords shorter than four runes only match as substrings. Longer ones are
// compared against every window of length len(kw)-maxDist (at least 3) up to
// len(kw)+maxDist.
func FuzzyFind(text string, keywords []string, maxDist int) bool {
	t := []rune(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
		k := []rune(kw)
		if len(k) < 4 {
			continue
		}
		for start := 0; start < len(t)-len(k)+maxDist+1; start++ {
			for winLen := max(len(k)-maxDist, 3); winLen <= len(k)+maxDist; winLen++ {
				end := start + winLen
				if end > len(t) {
					break
				}
				if levenshtein(t[start:end], k) <= maxDist {
					return true
				}
			}
		}
	}
	return false
}
