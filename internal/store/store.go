package store

import (
	"context"
	"errors"
	"time"

	"github.com/bimsrama/relasi4warna/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a compare-and-swap transition loses:
	// a claim on an already-claimed item, a decision on an already-decided
	// item, or a second reopen of the same escalated item.
	ErrConflict = errors.New("conflicting state transition")
)

// Store persists the four HITL collections: risk_keywords, risk_assessments,
// moderation_queue and audit_logs. Assessments and audit entries are never
// deleted or updated. Every method that performs a state transition takes
// the audit entry for that transition and writes both in one logical
// transaction; if the audit write fails the transition is rolled back.
type Store interface {
	// Keyword sets are immutable snapshots; saving publishes a new version.
	SaveKeywordSet(ctx context.Context, set *models.KeywordSet) error
	LatestKeywordSet(ctx context.Context) (*models.KeywordSet, error)
	GetKeywordSet(ctx context.Context, version string) (*models.KeywordSet, error)

	CreateAssessment(ctx context.Context, a *models.RiskAssessment, entry *models.AuditLogEntry) error
	GetAssessment(ctx context.Context, id string) (*models.RiskAssessment, error)
	ListAssessmentsSince(ctx context.Context, since time.Time) ([]models.RiskAssessment, error)

	CreateQueueItem(ctx context.Context, item *models.ModerationQueueItem, entry *models.AuditLogEntry) error
	GetQueueItem(ctx context.Context, id string) (*models.ModerationQueueItem, error)
	// ListQueueItems filters by status when status is non-empty and by
	// creation time when since is non-zero.
	ListQueueItems(ctx context.Context, status models.QueueStatus, since time.Time) ([]models.ModerationQueueItem, error)
	// ClaimQueueItem assigns the moderator if the item is pending and
	// unclaimed; any other state returns ErrConflict.
	ClaimQueueItem(ctx context.Context, id, moderatorID string, entry *models.AuditLogEntry) error
	// DecideQueueItem applies a terminal decision if the item is still
	// pending and claimed by item.ModeratorID; otherwise ErrConflict.
	DecideQueueItem(ctx context.Context, item *models.ModerationQueueItem, entry *models.AuditLogEntry) error
	// ReopenQueueItem creates the replacement item and marks the escalated
	// original, provided it has not been reopened before. Two entries are
	// written: reopened closes out the original's trail, created opens the
	// replacement's.
	ReopenQueueItem(ctx context.Context, originalID string, replacement *models.ModerationQueueItem, reopened, created *models.AuditLogEntry) error

	// AppendAudit records transitions that have no queue item, such as
	// auto-publish and buffer decisions.
	AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditSince(ctx context.Context, since time.Time) ([]models.AuditLogEntry, error)
	ListAuditForItem(ctx context.Context, itemID string) ([]models.AuditLogEntry, error)
}
