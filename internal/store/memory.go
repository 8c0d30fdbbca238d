package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bimsrama/relasi4warna/internal/models"
)

// Memory is an in-process Store used in tests and DB-less development.
// A single mutex stands in for the per-item compare-and-swap the Postgres
// implementation does with conditional updates.
type Memory struct {
	mu          sync.Mutex
	keywordSets []models.KeywordSet
	assessments map[string]models.RiskAssessment
	queue       map[string]models.ModerationQueueItem
	audit       []models.AuditLogEntry
}

func NewMemory() *Memory {
	return &Memory{
		assessments: make(map[string]models.RiskAssessment),
		queue:       make(map[string]models.ModerationQueueItem),
	}
}

func (m *Memory) SaveKeywordSet(ctx context.Context, set *models.KeywordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordSets = append(m.keywordSets, *set)
	return nil
}

func (m *Memory) LatestKeywordSet(ctx context.Context) (*models.KeywordSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keywordSets) == 0 {
		return nil, ErrNotFound
	}
	set := m.keywordSets[len(m.keywordSets)-1]
	return &set, nil
}

func (m *Memory) GetKeywordSet(ctx context.Context, version string) (*models.KeywordSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keywordSets {
		if m.keywordSets[i].Version == version {
			set := m.keywordSets[i]
			return &set, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateAssessment(ctx context.Context, a *models.RiskAssessment, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = *a
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *Memory) GetAssessment(ctx context.Context, id string) (*models.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListAssessmentsSince(ctx context.Context, since time.Time) ([]models.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RiskAssessment
	for _, a := range m.assessments {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateQueueItem(ctx context.Context, item *models.ModerationQueueItem, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[item.ID] = *item
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *Memory) GetQueueItem(ctx context.Context, id string) (*models.ModerationQueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.queue[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *Memory) ListQueueItems(ctx context.Context, status models.QueueStatus, since time.Time) ([]models.ModerationQueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ModerationQueueItem
	for _, item := range m.queue {
		if status != "" && item.Status != status {
			continue
		}
		if item.CreatedAt.Before(since) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ClaimQueueItem(ctx context.Context, id, moderatorID string, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.queue[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status != models.StatusPending || item.ModeratorID != nil {
		return ErrConflict
	}
	item.ModeratorID = &moderatorID
	item.UpdatedAt = entry.CreatedAt
	m.queue[id] = item
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *Memory) DecideQueueItem(ctx context.Context, item *models.ModerationQueueItem, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.queue[item.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != models.StatusPending {
		return ErrConflict
	}
	if current.ModeratorID == nil || item.ModeratorID == nil || *current.ModeratorID != *item.ModeratorID {
		return ErrConflict
	}
	m.queue[item.ID] = *item
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *Memory) ReopenQueueItem(ctx context.Context, originalID string, replacement *models.ModerationQueueItem, reopened, created *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	original, ok := m.queue[originalID]
	if !ok {
		return ErrNotFound
	}
	if original.Status != models.StatusEscalated || original.EscalatedTo != "" {
		return ErrConflict
	}
	original.EscalatedTo = replacement.ID
	original.UpdatedAt = reopened.CreatedAt
	m.queue[originalID] = original
	m.queue[replacement.ID] = *replacement
	m.audit = append(m.audit, *reopened, *created)
	return nil
}

func (m *Memory) AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *Memory) ListAuditSince(ctx context.Context, since time.Time) ([]models.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range m.audit {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) ListAuditForItem(ctx context.Context, itemID string) ([]models.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range m.audit {
		if e.QueueItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}
