package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/rewrite"
	"github.com/bimsrama/relasi4warna/internal/store"
)

// ErrInvalidDecision is returned synchronously when a decision is missing a
// required field for its action; the item stays pending and claimed.
var ErrInvalidDecision = errors.New("invalid moderation decision")

// Service is the moderation queue: pending items created by the safety gate,
// claimed and decided by moderators. Claim and decide are serialized per
// item through the store's compare-and-swap transitions, and every
// transition writes exactly one audit entry in the same transaction.
type Service struct {
	store    store.Store
	rewriter *rewrite.Rewriter
	logger   *zerolog.Logger
}

// DecisionResult carries the decided item and the text released to the
// delivery path; ReleasedText is empty for Escalate, which releases nothing.
type DecisionResult struct {
	Item         *models.ModerationQueueItem
	ReleasedText string
}

func NewService(st store.Store, rewriter *rewrite.Rewriter, logger *zerolog.Logger) *Service {
	return &Service{
		store:    st,
		rewriter: rewriter,
		logger:   logger,
	}
}

// Enqueue creates a pending item holding the original output for moderator
// inspection. sampled marks level-2 QA items whose output was already
// delivered.
func (s *Service) Enqueue(ctx context.Context, assessment *models.RiskAssessment, lang models.Language, originalText string, sampled bool) (*models.ModerationQueueItem, error) {
	now := time.Now().UTC()
	item := &models.ModerationQueueItem{
		ID:           uuid.NewString(),
		AssessmentID: assessment.ID,
		Status:       models.StatusPending,
		Language:     lang,
		OriginalText: originalText,
		Sampled:      sampled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	entry := newAudit(item.ID, models.ActorSystem, models.AuditItemCreated, "", string(models.StatusPending))
	if err := s.store.CreateQueueItem(ctx, item, entry); err != nil {
		return nil, fmt.Errorf("failed to enqueue item: %w", err)
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("assessment_id", assessment.ID).
		Bool("sampled", sampled).
		Msg("moderation item enqueued")
	return item, nil
}

// Claim assigns the item to the moderator. Claiming an item already held by
// another moderator returns store.ErrConflict; re-claiming one's own item is
// a no-op success and writes no audit entry.
func (s *Service) Claim(ctx context.Context, itemID, moderatorID string) (*models.ModerationQueueItem, error) {
	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.ModeratorID != nil {
		if *item.ModeratorID == moderatorID && item.Status == models.StatusPending {
			return item, nil
		}
		return nil, store.ErrConflict
	}

	entry := newAudit(itemID, moderatorID, models.AuditItemClaimed, string(item.Status), string(item.Status))
	if err := s.store.ClaimQueueItem(ctx, itemID, moderatorID, entry); err != nil {
		return nil, err
	}

	s.logger.Info().Str("item_id", itemID).Str("moderator_id", moderatorID).Msg("moderation item claimed")
	return s.store.GetQueueItem(ctx, itemID)
}

// Decide applies one of the five terminal actions. The caller must hold the
// claim; a decision on an already-decided item returns store.ErrConflict and
// writes no audit entry.
func (s *Service) Decide(
	ctx context.Context,
	itemID, moderatorID string,
	action models.ModerationAction,
	editedText, notes string,
) (*DecisionResult, error) {
	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ModeratorID == nil || *item.ModeratorID != moderatorID {
		return nil, store.ErrConflict
	}

	status, released, err := s.applyAction(item, action, editedText)
	if err != nil {
		return nil, err
	}

	decided := *item
	decided.Status = status
	decided.Notes = notes
	decided.UpdatedAt = time.Now().UTC()
	if action == models.ActionEditOutput {
		decided.EditedText = &editedText
	}
	if action == models.ActionAddSafetyBuffer {
		decided.EditedText = &released
	}

	entry := newAudit(itemID, moderatorID, models.AuditItemDecided, string(item.Status), string(status))
	if err := s.store.DecideQueueItem(ctx, &decided, entry); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", itemID).
		Str("moderator_id", moderatorID).
		Str("action", string(action)).
		Str("status", string(status)).
		Msg("moderation decision recorded")

	return &DecisionResult{Item: &decided, ReleasedText: released}, nil
}

// Reopen turns an escalated item into a fresh pending item for an elevated
// reviewer. Each escalated item may be reopened exactly once; the store CAS
// on escalated_to enforces that.
func (s *Service) Reopen(ctx context.Context, itemID, actor string) (*models.ModerationQueueItem, error) {
	original, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	replacement := &models.ModerationQueueItem{
		ID:           uuid.NewString(),
		AssessmentID: original.AssessmentID,
		Status:       models.StatusPending,
		Language:     original.Language,
		OriginalText: original.OriginalText,
		Sampled:      original.Sampled,
		ReopenedFrom: original.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	reopened := newAudit(itemID, actor, models.AuditItemReopened, string(models.StatusEscalated), string(models.StatusPending))
	created := newAudit(replacement.ID, actor, models.AuditItemCreated, "", string(models.StatusPending))
	if err := s.store.ReopenQueueItem(ctx, itemID, replacement, reopened, created); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", itemID).
		Str("replacement_id", replacement.ID).
		Msg("escalated item reopened")
	return replacement, nil
}

func (s *Service) List(ctx context.Context, status models.QueueStatus) ([]models.ModerationQueueItem, error) {
	return s.store.ListQueueItems(ctx, status, time.Time{})
}

func (s *Service) Get(ctx context.Context, itemID string) (*models.ModerationQueueItem, error) {
	return s.store.GetQueueItem(ctx, itemID)
}

// AuditTrail returns the audit entries recorded for one item.
func (s *Service) AuditTrail(ctx context.Context, itemID string) ([]models.AuditLogEntry, error) {
	return s.store.ListAuditForItem(ctx, itemID)
}

func (s *Service) applyAction(item *models.ModerationQueueItem, action models.ModerationAction, editedText string) (models.QueueStatus, string, error) {
	switch action {
	case models.ActionApprove:
		return models.StatusApproved, item.OriginalText, nil
	case models.ActionAddSafetyBuffer:
		return models.StatusBuffered, s.rewriter.Buffer(item.OriginalText, item.Language), nil
	case models.ActionEditOutput:
		if editedText == "" {
			return "", "", fmt.Errorf("%w: edit_output requires edited text", ErrInvalidDecision)
		}
		return models.StatusEdited, editedText, nil
	case models.ActionSafeResponseOnly:
		return models.StatusSafeResponseOnly, s.rewriter.SafeResponse(item.Language), nil
	case models.ActionEscalate:
		return models.StatusEscalated, "", nil
	default:
		return "", "", fmt.Errorf("%w: unknown action %q", ErrInvalidDecision, action)
	}
}

func newAudit(itemID, actor string, action models.AuditAction, before, after string) *models.AuditLogEntry {
	return &models.AuditLogEntry{
		ID:          uuid.NewString(),
		QueueItemID: itemID,
		Actor:       actor,
		Action:      action,
		Before:      before,
		After:       after,
		CreatedAt:   time.Now().UTC(),
	}
}
