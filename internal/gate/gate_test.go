package gate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/queue"
	"github.com/bimsrama/relasi4warna/internal/rewrite"
	"github.com/bimsrama/relasi4warna/internal/store"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestGate(sampleRate int) (*Gate, *store.Memory) {
	st := store.NewMemory()
	rewriter := rewrite.New()
	q := queue.NewService(st, rewriter, newTestLogger())
	return New(q, rewriter, st, sampleRate, newTestLogger()), st
}

func testAssessment(level models.RiskLevel, blocked bool) *models.RiskAssessment {
	return &models.RiskAssessment{
		ID:                uuid.NewString(),
		SubjectID:         "subject-1",
		Stage:             models.StagePostGeneration,
		Score:             int(level) * 20,
		Level:             level,
		Matches:           map[models.RiskCategory][]string{},
		BlockedPattern:    blocked,
		KeywordSetVersion: "v-test",
		CreatedAt:         time.Now().UTC(),
	}
}

func enCtx() models.AssessmentContext {
	return models.AssessmentContext{SubjectID: "subject-1", Language: models.LanguageEnglish}
}

func TestRoute_NormalAutoPublishes(t *testing.T) {
	g, st := newTestGate(0)

	outcome, err := g.Route(context.Background(), testAssessment(models.LevelNormal, false), enCtx(), "original text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Decision != models.DecisionAutoPublish {
		t.Errorf("want auto_publish, got %s", outcome.Decision)
	}
	if outcome.DeliverableText != "original text" {
		t.Errorf("auto-publish must deliver the text unchanged, got %q", outcome.DeliverableText)
	}

	entries, _ := st.ListAuditSince(context.Background(), time.Time{})
	if len(entries) != 1 || entries[0].Action != models.AuditAutoPublished {
		t.Errorf("want one auto_published audit entry, got %v", entries)
	}
}

func TestRoute_SensitiveBuffers(t *testing.T) {
	g, st := newTestGate(0)

	outcome, err := g.Route(context.Background(), testAssessment(models.LevelSensitive, false), enCtx(), "You are always late.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Decision != models.DecisionBuffer {
		t.Errorf("want buffer, got %s", outcome.Decision)
	}
	if !strings.Contains(outcome.DeliverableText, "you may often") {
		t.Errorf("buffered text must be softened, got %q", outcome.DeliverableText)
	}
	if outcome.QueueItemID != "" {
		t.Errorf("unsampled level 2 must not enqueue, got item %s", outcome.QueueItemID)
	}

	entries, _ := st.ListAuditSince(context.Background(), time.Time{})
	if len(entries) != 1 || entries[0].Action != models.AuditBufferApplied {
		t.Errorf("want one buffer_applied audit entry, got %v", entries)
	}
}

func TestRoute_SensitiveSampledEnqueuesAndDelivers(t *testing.T) {
	// Rate 100 forces sampling regardless of the hash.
	g, st := newTestGate(100)

	outcome, err := g.Route(context.Background(), testAssessment(models.LevelSensitive, false), enCtx(), "You are always late.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("sampled level 2 routes hold, got %s", outcome.Decision)
	}
	if !outcome.Sampled {
		t.Errorf("outcome must be marked sampled")
	}
	// QA sampling is post-hoc: the buffered output is still delivered.
	if !strings.Contains(outcome.DeliverableText, "you may often") {
		t.Errorf("sampled level 2 still delivers the buffered text, got %q", outcome.DeliverableText)
	}
	if outcome.QueueItemID == "" {
		t.Fatalf("sampled level 2 must create a queue item")
	}

	item, err := st.GetQueueItem(context.Background(), outcome.QueueItemID)
	if err != nil {
		t.Fatalf("queue item not found: %v", err)
	}
	if !item.Sampled {
		t.Errorf("queue item must be marked sampled")
	}
	if item.OriginalText != "You are always late." {
		t.Errorf("queue item must hold the original text, got %q", item.OriginalText)
	}
}

func TestRoute_CriticalHolds(t *testing.T) {
	g, st := newTestGate(0)

	outcome, err := g.Route(context.Background(), testAssessment(models.LevelCritical, false), enCtx(), "raw critical output")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("want hold, got %s", outcome.Decision)
	}
	if strings.Contains(outcome.DeliverableText, "raw critical output") {
		t.Errorf("held output must never leak to the caller, got %q", outcome.DeliverableText)
	}
	if !strings.Contains(outcome.DeliverableText, "brief review") {
		t.Errorf("want safe response, got %q", outcome.DeliverableText)
	}

	item, err := st.GetQueueItem(context.Background(), outcome.QueueItemID)
	if err != nil {
		t.Fatalf("queue item not found: %v", err)
	}
	if item.Status != models.StatusPending {
		t.Errorf("held item must be pending, got %s", item.Status)
	}
	if item.OriginalText != "raw critical output" {
		t.Errorf("held item must retain the original text, got %q", item.OriginalText)
	}
}

func TestRoute_BlockedPatternHoldsAtAnyLevel(t *testing.T) {
	g, _ := newTestGate(0)

	// "You are clearly manipulative" scores low but trips the labeling
	// blocked pattern: held regardless of level.
	outcome, err := g.Route(context.Background(), testAssessment(models.LevelNormal, true), enCtx(), "You are clearly manipulative.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("blocked pattern must hold, got %s", outcome.Decision)
	}
	if outcome.QueueItemID == "" {
		t.Errorf("blocked pattern must create a queue item")
	}
}

func TestSampled_Deterministic(t *testing.T) {
	first := Sampled("subject-42", "v1", 10)
	for i := 0; i < 5; i++ {
		if Sampled("subject-42", "v1", 10) != first {
			t.Fatalf("sampling must be reproducible for the same subject and set version")
		}
	}

	if Sampled("subject-42", "v1", 0) {
		t.Errorf("rate 0 must never sample")
	}
	if !Sampled("subject-42", "v1", 100) {
		t.Errorf("rate 100 must always sample")
	}
}

func TestSampled_RateRoughlyHolds(t *testing.T) {
	sampled := 0
	total := 1000
	for i := 0; i < total; i++ {
		if Sampled(uuid.NewString(), "v1", 10) {
			sampled++
		}
	}

	// 10% nominal; allow a generous band for hash variance.
	if sampled < 50 || sampled > 170 {
		t.Errorf("expected roughly 100/1000 sampled, got %d", sampled)
	}
}
