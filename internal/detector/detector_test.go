package detector

import (
	"testing"
	"time"

	"github.com/bimsrama/relasi4warna/internal/models"
)

func testSet() *models.KeywordSet {
	return &models.KeywordSet{
		Version:     "v-test",
		PublishedAt: time.Now(),
		Keywords: []models.RiskKeyword{
			{ID: "1", Category: models.CategoryRed, Language: models.LanguageEnglish, Term: "kill yourself", Weight: 40},
			{ID: "2", Category: models.CategoryRed, Language: models.LanguageIndonesian, Term: "bunuh diri", Weight: 40},
			{ID: "3", Category: models.CategoryYellow, Language: models.LanguageEnglish, Term: "toxic", Weight: 15},
			{ID: "4", Category: models.CategoryClinical, Language: models.LanguageEnglish, Term: "narcissist", Weight: 20},
			{ID: "5", Category: models.CategoryLabeling, Language: models.LanguageEnglish, Term: "manipulative", Weight: 10},
			{ID: "6", Category: models.CategoryWeaponization, Language: models.LanguageIndonesian, Term: "gunakan ini untuk", Weight: 25},
		},
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	d := New()

	matches := d.Detect("Your partner is TOXIC and Manipulative.", models.LanguageEnglish, testSet())

	if got := matches[models.CategoryYellow]; len(got) != 1 || got[0] != "toxic" {
		t.Errorf("expected yellow match [toxic], got %v", got)
	}
	if got := matches[models.CategoryLabeling]; len(got) != 1 || got[0] != "manipulative" {
		t.Errorf("expected labeling match [manipulative], got %v", got)
	}
}

func TestDetect_WordBoundary(t *testing.T) {
	d := New()

	// "toxicity" must not match the keyword "toxic".
	matches := d.Detect("There is some toxicity in the air.", models.LanguageEnglish, testSet())

	if len(matches) != 0 {
		t.Errorf("expected no matches inside larger words, got %v", matches)
	}
}

func TestDetect_MultiWordPhrase(t *testing.T) {
	d := New()

	matches := d.Detect("Jangan pernah berpikir untuk bunuh diri.", models.LanguageIndonesian, testSet())

	if got := matches[models.CategoryRed]; len(got) != 1 || got[0] != "bunuh diri" {
		t.Errorf("expected red match [bunuh diri], got %v", got)
	}
}

func TestDetect_LanguageSeparation(t *testing.T) {
	d := New()

	// English keywords must not fire on an Indonesian scan.
	matches := d.Detect("you are toxic", models.LanguageIndonesian, testSet())

	if len(matches) != 0 {
		t.Errorf("expected no cross-language matches, got %v", matches)
	}
}

func TestDetect_EmptyInputs(t *testing.T) {
	d := New()

	if matches := d.Detect("", models.LanguageEnglish, testSet()); len(matches) != 0 {
		t.Errorf("expected no matches for empty text, got %v", matches)
	}
	if matches := d.Detect("   ", models.LanguageEnglish, testSet()); len(matches) != 0 {
		t.Errorf("expected no matches for blank text, got %v", matches)
	}
	if matches := d.Detect("toxic", models.LanguageEnglish, nil); len(matches) != 0 {
		t.Errorf("expected no matches for nil set, got %v", matches)
	}
}

func TestDetect_MultipleCategories(t *testing.T) {
	d := New()

	matches := d.Detect("You narcissist, stop being toxic, just kill yourself.", models.LanguageEnglish, testSet())

	if len(matches) != 3 {
		t.Errorf("expected matches in 3 categories, got %d: %v", len(matches), matches)
	}
	if got := matches[models.CategoryRed]; len(got) != 1 {
		t.Errorf("expected one red match, got %v", got)
	}
}
