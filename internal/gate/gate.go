package gate

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/queue"
	"github.com/bimsrama/relasi4warna/internal/rewrite"
	"github.com/bimsrama/relasi4warna/internal/store"
)

// Gate routes a scored text to its publication action:
//
//	Scored -> AutoPublish | Buffer | Hold
//
// A blocked pattern holds unconditionally. Level 1 auto-publishes. Level 2
// buffers, except the deterministic sample that also gets a QA queue item.
// Level 3 holds: the caller receives the safe response and the real output
// lives only inside the queue item until a moderator approves it.
type Gate struct {
	queue      *queue.Service
	rewriter   *rewrite.Rewriter
	store      store.Store
	sampleRate int
	logger     *zerolog.Logger
}

func New(q *queue.Service, rewriter *rewrite.Rewriter, st store.Store, sampleRate int, logger *zerolog.Logger) *Gate {
	return &Gate{
		queue:      q,
		rewriter:   rewriter,
		store:      st,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Route decides the publication action for one assessed text. Every branch
// records its audit entry before the outcome is returned; an audit failure
// fails the whole call so the caller can retry.
func (g *Gate) Route(ctx context.Context, assessment *models.RiskAssessment, actx models.AssessmentContext, text string) (*models.AssessOutcome, error) {
	outcome := &models.AssessOutcome{Assessment: assessment}

	if assessment.BlockedPattern || assessment.Level == models.LevelCritical {
		item, err := g.queue.Enqueue(ctx, assessment, actx.Language, text, false)
		if err != nil {
			return nil, err
		}
		outcome.Decision = models.DecisionHold
		outcome.DeliverableText = g.rewriter.SafeResponse(actx.Language)
		outcome.QueueItemID = item.ID

		g.logger.Info().
			Str("subject_id", actx.SubjectID).
			Bool("blocked_pattern", assessment.BlockedPattern).
			Str("item_id", item.ID).
			Msg("output withheld for moderation")
		return outcome, nil
	}

	switch assessment.Level {
	case models.LevelNormal:
		if err := g.auditAuto(ctx, assessment, models.AuditAutoPublished); err != nil {
			return nil, err
		}
		outcome.Decision = models.DecisionAutoPublish
		outcome.DeliverableText = text
		return outcome, nil

	case models.LevelSensitive:
		buffered := g.rewriter.Buffer(text, actx.Language)
		outcome.DeliverableText = buffered

		if Sampled(actx.SubjectID, assessment.KeywordSetVersion, g.sampleRate) {
			// Post-hoc QA: output is still delivered, but a queue item is
			// created in parallel for review.
			item, err := g.queue.Enqueue(ctx, assessment, actx.Language, text, true)
			if err != nil {
				return nil, err
			}
			outcome.Decision = models.DecisionHold
			outcome.QueueItemID = item.ID
			outcome.Sampled = true

			g.logger.Info().
				Str("subject_id", actx.SubjectID).
				Str("item_id", item.ID).
				Msg("sensitive output sampled for post-hoc review")
			return outcome, nil
		}

		if err := g.auditAuto(ctx, assessment, models.AuditBufferApplied); err != nil {
			return nil, err
		}
		outcome.Decision = models.DecisionBuffer
		return outcome, nil
	}

	return nil, fmt.Errorf("unroutable risk level %d", assessment.Level)
}

func (g *Gate) auditAuto(ctx context.Context, assessment *models.RiskAssessment, action models.AuditAction) error {
	entry := &models.AuditLogEntry{
		ID:        uuid.NewString(),
		Actor:     models.ActorSystem,
		Action:    action,
		After:     assessment.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("failed to record gate decision: %w", err)
	}
	return nil
}

// Sampled reports whether a level-2 event is selected for post-hoc review.
// The hash is over subject id and keyword-set version, so the same subject
// under the same published set always samples the same way.
func Sampled(subjectID, setVersion string, rate int) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 100 {
		return true
	}
	h := fnv.New32a()
	h.Write([]byte(subjectID + ":" + setVersion))
	return int(h.Sum32()%100) < rate
}
