package keywords

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/store"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func seedKeywords() []models.RiskKeyword {
	return []models.RiskKeyword{
		{Category: models.CategoryYellow, Language: models.LanguageEnglish, Term: "toxic", Weight: 15},
		{Category: models.CategoryRed, Language: models.LanguageIndonesian, Term: "bunuh diri", Weight: 40},
	}
}

func TestLoad_SeedsWhenStoreEmpty(t *testing.T) {
	st := store.NewMemory()
	r := NewRegistry(st, newTestLogger())
	ctx := context.Background()

	if err := r.Load(ctx, seedKeywords()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	current := r.Current()
	if current == nil {
		t.Fatalf("expected a current set after seeding")
	}
	if len(current.Keywords) != 2 {
		t.Errorf("want 2 keywords, got %d", len(current.Keywords))
	}
	for _, kw := range current.Keywords {
		if kw.ID == "" {
			t.Errorf("published keywords must get ids")
		}
	}

	// The seed must be persisted, not just held in memory.
	persisted, err := st.LatestKeywordSet(ctx)
	if err != nil {
		t.Fatalf("seed was not persisted: %v", err)
	}
	if persisted.Version != current.Version {
		t.Errorf("persisted version %s != current %s", persisted.Version, current.Version)
	}
}

func TestLoad_EmptySeedFailsClosed(t *testing.T) {
	r := NewRegistry(store.NewMemory(), newTestLogger())

	if err := r.Load(context.Background(), nil); err != nil {
		t.Fatalf("load with no seed must not error: %v", err)
	}
	if r.Current() != nil {
		t.Errorf("registry must stay empty without a seed")
	}
}

func TestLoad_PrefersStoredSet(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	stored := &models.KeywordSet{
		Version:  "v-stored",
		Keywords: []models.RiskKeyword{{ID: "k1", Category: models.CategoryYellow, Language: models.LanguageEnglish, Term: "drama", Weight: 15}},
	}
	if err := st.SaveKeywordSet(ctx, stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	r := NewRegistry(st, newTestLogger())
	if err := r.Load(ctx, seedKeywords()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := r.Current().Version; got != "v-stored" {
		t.Errorf("stored set must win over seed, got version %s", got)
	}
}

func TestPublish_SwapsSnapshot(t *testing.T) {
	st := store.NewMemory()
	r := NewRegistry(st, newTestLogger())
	ctx := context.Background()

	if err := r.Load(ctx, seedKeywords()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	old := r.Current()

	updated := append(seedKeywords(), models.RiskKeyword{
		Category: models.CategoryLabeling, Language: models.LanguageEnglish, Term: "manipulative", Weight: 10,
	})
	published, err := r.Publish(ctx, updated)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if r.Current() != published {
		t.Errorf("publish must swap the current snapshot")
	}
	if len(published.Keywords) != 3 {
		t.Errorf("want 3 keywords, got %d", len(published.Keywords))
	}

	// The old snapshot is untouched: in-flight assessments holding it keep
	// a consistent view.
	if len(old.Keywords) != 2 {
		t.Errorf("old snapshot must be immutable, got %d keywords", len(old.Keywords))
	}
}
