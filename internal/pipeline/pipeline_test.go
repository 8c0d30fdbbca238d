package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/bimsrama/relasi4warna/internal/config"
	"github.com/bimsrama/relasi4warna/internal/detector"
	"github.com/bimsrama/relasi4warna/internal/gate"
	"github.com/bimsrama/relasi4warna/internal/keywords"
	"github.com/bimsrama/relasi4warna/internal/llm/mocks"
	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/queue"
	"github.com/bimsrama/relasi4warna/internal/rewrite"
	"github.com/bimsrama/relasi4warna/internal/scoring"
	"github.com/bimsrama/relasi4warna/internal/store"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func seedKeywords() []models.RiskKeyword {
	return []models.RiskKeyword{
		{Category: models.CategoryRed, Language: models.LanguageEnglish, Term: "kill yourself", Weight: 40},
		{Category: models.CategoryYellow, Language: models.LanguageEnglish, Term: "toxic", Weight: 15},
		{Category: models.CategoryYellow, Language: models.LanguageEnglish, Term: "drama", Weight: 15},
		{Category: models.CategoryLabeling, Language: models.LanguageEnglish, Term: "manipulative", Weight: 10},
	}
}

type fixture struct {
	pipeline *Pipeline
	store    *store.Memory
}

// newTestPipeline wires an end-to-end pipeline over the in-memory store,
// with sampling off and the given generator.
func newTestPipeline(t *testing.T, seed []models.RiskKeyword, generator *mocks.MockDraftGenerator) fixture {
	t.Helper()
	logger := newTestLogger()
	st := store.NewMemory()

	registry := keywords.NewRegistry(st, logger)
	if err := registry.Load(context.Background(), seed); err != nil {
		t.Fatalf("registry load failed: %v", err)
	}

	rewriter := rewrite.New()
	q := queue.NewService(st, rewriter, logger)
	g := gate.New(q, rewriter, st, 0, logger)
	engine := scoring.NewEngine(testIncrements(), logger)

	p := New(registry, detector.New(), engine, g, rewriter, generator, st, logger)
	return fixture{pipeline: p, store: st}
}

func testIncrements() config.FlagIncrementsConfig {
	return config.FlagIncrementsConfig{
		MultiDomainConflict: 15,
		PowerAsymmetry:      15,
		CoercionLanguage:    25,
	}
}

func enRequest(prompt string) models.GenerationRequest {
	return models.GenerationRequest{
		SubjectID:  "subject-1",
		Language:   models.LanguageEnglish,
		Archetype:  "merah",
		Series:     "relationship",
		Tier:       models.TierStandard,
		PromptText: prompt,
	}
}

func TestRun_CleanDraftAutoPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generator := mocks.NewMockDraftGenerator(ctrl)
	generator.EXPECT().
		GenerateDraft(gomock.Any(), "describe my strengths").
		Return("A calm, encouraging reflection.", nil)

	f := newTestPipeline(t, seedKeywords(), generator)

	outcome, err := f.pipeline.Run(context.Background(), enRequest("describe my strengths"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if outcome.Decision != models.DecisionAutoPublish {
		t.Errorf("want auto_publish, got %s", outcome.Decision)
	}
	if outcome.DeliverableText != "A calm, encouraging reflection." {
		t.Errorf("unexpected deliverable: %q", outcome.DeliverableText)
	}
	if outcome.Assessment.Stage != models.StagePostGeneration {
		t.Errorf("final outcome must carry the post-generation assessment")
	}

	// Both stages persisted an assessment.
	assessments, _ := f.store.ListAssessmentsSince(context.Background(), time.Time{})
	if len(assessments) != 2 {
		t.Errorf("want pre and post assessments, got %d", len(assessments))
	}
}

func TestRun_CriticalPromptSkipsGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No GenerateDraft expectation: the AI call must not happen.
	generator := mocks.NewMockDraftGenerator(ctrl)

	f := newTestPipeline(t, seedKeywords(), generator)

	outcome, err := f.pipeline.Run(context.Background(), enRequest("I want to kill yourself jokes"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("want hold, got %s", outcome.Decision)
	}
	if outcome.Assessment.Stage != models.StagePreGeneration {
		t.Errorf("hold must come from the pre-generation stage")
	}
	if outcome.QueueItemID == "" {
		t.Errorf("pre-generation hold must create a queue item")
	}
}

func TestRun_BlockedPromptSkipsGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generator := mocks.NewMockDraftGenerator(ctrl)

	f := newTestPipeline(t, seedKeywords(), generator)

	// Labeling term: low score, but blocked pattern holds pre-generation.
	outcome, err := f.pipeline.Run(context.Background(), enRequest("tell me why I am manipulative"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("want hold, got %s", outcome.Decision)
	}
	if !outcome.Assessment.BlockedPattern {
		t.Errorf("assessment must record the blocked pattern")
	}
}

func TestRun_GenerationFailureYieldsSafeResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generator := mocks.NewMockDraftGenerator(ctrl)
	generator.EXPECT().
		GenerateDraft(gomock.Any(), gomock.Any()).
		Return("", errors.New("both models unavailable"))

	f := newTestPipeline(t, seedKeywords(), generator)

	outcome, err := f.pipeline.Run(context.Background(), enRequest("describe my strengths"))
	if err != nil {
		t.Fatalf("generation failure must not error the run: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("want hold, got %s", outcome.Decision)
	}
	if !strings.Contains(outcome.DeliverableText, "brief review") {
		t.Errorf("want safe response, got %q", outcome.DeliverableText)
	}
	if outcome.Assessment != nil {
		t.Errorf("no draft means no post-generation assessment")
	}

	// Only the pre-generation assessment exists.
	assessments, _ := f.store.ListAssessmentsSince(context.Background(), time.Time{})
	if len(assessments) != 1 {
		t.Errorf("want only the pre-generation assessment, got %d", len(assessments))
	}
}

func TestRun_RiskyDraftHeldPostGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generator := mocks.NewMockDraftGenerator(ctrl)
	generator.EXPECT().
		GenerateDraft(gomock.Any(), gomock.Any()).
		Return("You are clearly manipulative.", nil)

	f := newTestPipeline(t, seedKeywords(), generator)

	outcome, err := f.pipeline.Run(context.Background(), enRequest("describe my conflict style"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("labeling draft must be held, got %s", outcome.Decision)
	}
	if strings.Contains(outcome.DeliverableText, "manipulative") {
		t.Errorf("held draft must never reach the caller, got %q", outcome.DeliverableText)
	}

	item, err := f.store.GetQueueItem(context.Background(), outcome.QueueItemID)
	if err != nil {
		t.Fatalf("queue item not found: %v", err)
	}
	if item.OriginalText != "You are clearly manipulative." {
		t.Errorf("queue item must retain the raw draft")
	}
}

func TestAssess_FailsClosedWithoutKeywordSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	generator := mocks.NewMockDraftGenerator(ctrl)

	// Nil seed leaves the registry empty.
	f := newTestPipeline(t, nil, generator)

	actx := models.AssessmentContext{SubjectID: "subject-1", Language: models.LanguageEnglish}
	outcome, err := f.pipeline.Assess(context.Background(), "a harmless text", actx, models.StagePostGeneration)
	if err != nil {
		t.Fatalf("assess failed: %v", err)
	}

	if outcome.Decision != models.DecisionHold {
		t.Errorf("missing keyword set must fail closed to hold, got %s", outcome.Decision)
	}
	if outcome.Assessment.Score != 100 || outcome.Assessment.Level != models.LevelCritical {
		t.Errorf("fail-closed assessment must be critical, got score=%d level=%d",
			outcome.Assessment.Score, outcome.Assessment.Level)
	}
	if outcome.Assessment.KeywordSetVersion != "unavailable" {
		t.Errorf("fail-closed assessment must mark the set unavailable, got %q",
			outcome.Assessment.KeywordSetVersion)
	}
}

// failingStore simulates a database outage on the assessment write while
// delegating everything else to the in-memory store.
type failingStore struct {
	store.Store
	assessErr error
}

func (f *failingStore) CreateAssessment(ctx context.Context, a *models.RiskAssessment, entry *models.AuditLogEntry) error {
	if f.assessErr != nil {
		return f.assessErr
	}
	return f.Store.CreateAssessment(ctx, a, entry)
}

func TestAssess_PersistenceFailureLeavesNoState(t *testing.T) {
	logger := newTestLogger()
	mem := store.NewMemory()
	failing := &failingStore{Store: mem, assessErr: errors.New("connection reset by peer")}

	registry := keywords.NewRegistry(failing, logger)
	if err := registry.Load(context.Background(), seedKeywords()); err != nil {
		t.Fatalf("registry load failed: %v", err)
	}

	rewriter := rewrite.New()
	q := queue.NewService(failing, rewriter, logger)
	g := gate.New(q, rewriter, failing, 0, logger)
	engine := scoring.NewEngine(testIncrements(), logger)
	p := New(registry, detector.New(), engine, g, rewriter, nil, failing, logger)

	actx := models.AssessmentContext{SubjectID: "subject-1", Language: models.LanguageEnglish}
	outcome, err := p.Assess(context.Background(), "a harmless text", actx, models.StagePostGeneration)
	if err == nil {
		t.Fatal("a failed assessment write must surface as an error")
	}
	if outcome != nil {
		t.Errorf("no outcome must be returned on a failed write, got %+v", outcome)
	}

	// Nothing partial is visible: no assessment, no gate decision, and no
	// assessment_created audit entry.
	assessments, _ := mem.ListAssessmentsSince(context.Background(), time.Time{})
	if len(assessments) != 0 {
		t.Errorf("expected no persisted assessments, got %d", len(assessments))
	}
	entries, _ := mem.ListAuditSince(context.Background(), time.Time{})
	for _, e := range entries {
		if e.Action == models.AuditAssessmentCreated {
			t.Errorf("no assessment audit entry must exist, got %+v", e)
		}
	}
	items, _ := mem.ListQueueItems(context.Background(), "", time.Time{})
	if len(items) != 0 {
		t.Errorf("expected no queue items, got %d", len(items))
	}
}
