package detector

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bimsrama/relasi4warna/internal/models"
)

// Detector scans text against a keyword-set snapshot and reports matches per
// category. It has no side effects: malformed input (empty text, unknown
// language) yields no matches rather than an error, so absence of signal
// never suppresses the other checks.
type Detector struct {
	mu       sync.Mutex
	compiled map[string][]pattern // keyed by set version + language
}

type pattern struct {
	keyword models.RiskKeyword
	re      *regexp.Regexp
}

func New() *Detector {
	return &Detector{
		compiled: make(map[string][]pattern),
	}
}

// Detect returns category -> matched terms for text in the given language.
// Matching is case-insensitive on word/phrase boundaries.
func (d *Detector) Detect(text string, lang models.Language, set *models.KeywordSet) map[models.RiskCategory][]string {
	matches := make(map[models.RiskCategory][]string)

	if strings.TrimSpace(text) == "" || set == nil {
		return matches
	}

	for _, p := range d.patterns(lang, set) {
		if p.re.MatchString(text) {
			matches[p.keyword.Category] = append(matches[p.keyword.Category], p.keyword.Term)
		}
	}

	return matches
}

// patterns compiles the boundary regexps for one set version and language,
// caching the result. Snapshots are immutable, so the cache never goes stale.
func (d *Detector) patterns(lang models.Language, set *models.KeywordSet) []pattern {
	key := set.Version + "/" + string(lang)

	d.mu.Lock()
	defer d.mu.Unlock()

	if ps, ok := d.compiled[key]; ok {
		return ps
	}

	var ps []pattern
	for _, kw := range set.ForLanguage(lang) {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw.Term) + `\b`)
		if err != nil {
			continue
		}
		ps = append(ps, pattern{keyword: kw, re: re})
	}

	d.compiled[key] = ps
	return ps
}
