package keywords

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/store"
)

// Registry holds the current keyword-set snapshot. Snapshots are immutable
// and copy-on-write: Publish persists a new version and swaps the pointer
// atomically, so in-flight assessments keep the version they started with.
type Registry struct {
	store   store.Store
	current atomic.Pointer[models.KeywordSet]
	logger  *zerolog.Logger
}

func NewRegistry(st store.Store, logger *zerolog.Logger) *Registry {
	return &Registry{
		store:  st,
		logger: logger,
	}
}

// Load restores the latest published snapshot from the store. When the store
// holds none yet, seed is published as the first version; a nil seed leaves
// the registry empty, in which case the pipeline fails closed.
func (r *Registry) Load(ctx context.Context, seed []models.RiskKeyword) error {
	set, err := r.store.LatestKeywordSet(ctx)
	if err == nil {
		r.current.Store(set)
		r.logger.Info().Str("version", set.Version).Int("keywords", len(set.Keywords)).Msg("keyword set loaded")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load keyword set: %w", err)
	}

	if len(seed) == 0 {
		r.logger.Warn().Msg("no keyword set available; assessments will fail closed")
		return nil
	}

	if _, err := r.Publish(ctx, seed); err != nil {
		return fmt.Errorf("failed to seed keyword set: %w", err)
	}
	return nil
}

// Publish persists the keywords as a new immutable snapshot and makes it the
// current version.
func (r *Registry) Publish(ctx context.Context, kws []models.RiskKeyword) (*models.KeywordSet, error) {
	now := time.Now().UTC()
	set := &models.KeywordSet{
		// Timestamp plus a short random suffix so rapid publishes never
		// collide on version.
		Version:     now.Format("v20060102T150405") + "-" + uuid.NewString()[:8],
		PublishedAt: now,
	}
	for _, kw := range kws {
		if kw.ID == "" {
			kw.ID = uuid.NewString()
		}
		set.Keywords = append(set.Keywords, kw)
	}

	if err := r.store.SaveKeywordSet(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to save keyword set: %w", err)
	}

	r.current.Store(set)
	r.logger.Info().Str("version", set.Version).Int("keywords", len(set.Keywords)).Msg("keyword set published")
	return set, nil
}

// Current returns the active snapshot, or nil when none is available.
func (r *Registry) Current() *models.KeywordSet {
	return r.current.Load()
}
