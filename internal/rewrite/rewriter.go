package rewrite

import (
	"regexp"

	"github.com/bimsrama/relasi4warna/internal/models"
)

// Rewriter softens absolute and diagnostic phrasing into probabilistic
// framing and appends a fixed disclaimer block. It is a pure text transform:
// deterministic, no external calls. Applied to level-2 outputs chosen for
// buffering and to level-3 outputs a moderator approves with safety buffer.
type Rewriter struct {
	substitutions map[models.Language][]substitution
}

type substitution struct {
	re          *regexp.Regexp
	replacement string
}

// Longest constructions first, so "you are clearly" is not half-eaten by
// the plain "you are" rule.
var englishRules = []struct{ pattern, replacement string }{
	{`(?i)\byou are clearly\b`, "you may sometimes come across as"},
	{`(?i)\byou are always\b`, "you may often be"},
	{`(?i)\byou are never\b`, "you may rarely be"},
	{`(?i)\byou are\b`, "you may tend toward being"},
	{`(?i)\byou always\b`, "you may often"},
	{`(?i)\byou never\b`, "you may rarely"},
	{`(?i)\byou will\b`, "you may"},
	{`(?i)\bthis means you\b`, "this may suggest you"},
	{`(?i)\byour partner is\b`, "your partner may come across as"},
}

var indonesianRules = []struct{ pattern, replacement string }{
	{`(?i)\bkamu selalu\b`, "kamu mungkin sering"},
	{`(?i)\banda selalu\b`, "Anda mungkin sering"},
	{`(?i)\bkamu tidak pernah\b`, "kamu mungkin jarang"},
	{`(?i)\banda tidak pernah\b`, "Anda mungkin jarang"},
	{`(?i)\bkamu adalah\b`, "kamu mungkin cenderung"},
	{`(?i)\banda adalah\b`, "Anda mungkin cenderung"},
	{`(?i)\bkamu pasti\b`, "kamu mungkin"},
	{`(?i)\banda pasti\b`, "Anda mungkin"},
}

var disclaimers = map[models.Language]string{
	models.LanguageEnglish: "\n\n---\n*This reflection describes tendencies, not fixed traits. " +
		"Personality is contextual and learnable. If emotions feel overwhelming, " +
		"reaching out for human support is a valid step.*",
	models.LanguageIndonesian: "\n\n---\n*Refleksi ini menggambarkan kecenderungan, bukan sifat yang tetap. " +
		"Kepribadian bersifat kontekstual dan dapat dipelajari. Jika emosi terasa berat, " +
		"mencari dukungan manusia adalah langkah yang valid.*",
}

// Canned fallback returned in place of withheld content. The real output is
// retained only inside the queue item.
var safeResponses = map[models.Language]string{
	models.LanguageEnglish: "Your personalized report needs a brief review by our team before delivery. " +
		"You will receive the full version shortly. Thank you for your patience.",
	models.LanguageIndonesian: "Laporan personal Anda memerlukan peninjauan singkat oleh tim kami sebelum dikirim. " +
		"Anda akan menerima versi lengkapnya segera. Terima kasih atas kesabaran Anda.",
}

func New() *Rewriter {
	r := &Rewriter{
		substitutions: make(map[models.Language][]substitution),
	}
	for _, rule := range englishRules {
		r.substitutions[models.LanguageEnglish] = append(r.substitutions[models.LanguageEnglish],
			substitution{re: regexp.MustCompile(rule.pattern), replacement: rule.replacement})
	}
	for _, rule := range indonesianRules {
		r.substitutions[models.LanguageIndonesian] = append(r.substitutions[models.LanguageIndonesian],
			substitution{re: regexp.MustCompile(rule.pattern), replacement: rule.replacement})
	}
	return r
}

// Buffer rewrites text into probabilistic framing and appends the disclaimer
// block in the caller's language.
func (r *Rewriter) Buffer(text string, lang models.Language) string {
	rewritten := text
	for _, sub := range r.substitutions[language(lang)] {
		rewritten = sub.re.ReplaceAllString(rewritten, sub.replacement)
	}
	return rewritten + disclaimers[language(lang)]
}

// SafeResponse returns the canned fallback message in the caller's language.
func (r *Rewriter) SafeResponse(lang models.Language) string {
	return safeResponses[language(lang)]
}

// language defaults unknown tags to Indonesian, the product's primary locale.
func language(lang models.Language) models.Language {
	if lang == models.LanguageEnglish {
		return models.LanguageEnglish
	}
	return models.LanguageIndonesian
}
