package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/detector"
	"github.com/bimsrama/relasi4warna/internal/gate"
	"github.com/bimsrama/relasi4warna/internal/keywords"
	"github.com/bimsrama/relasi4warna/internal/llm"
	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/rewrite"
	"github.com/bimsrama/relasi4warna/internal/scoring"
	"github.com/bimsrama/relasi4warna/internal/store"
)

// Pipeline runs the report safety flow for one subject: pre-generation
// assessment, the external AI generation call, post-generation assessment
// and the gate decision. Stages within one subject are strictly sequential;
// separate subjects run independent pipeline instances with no shared
// mutable state beyond the keyword-set snapshot.
type Pipeline struct {
	registry  *keywords.Registry
	detector  *detector.Detector
	engine    *scoring.Engine
	gate      *gate.Gate
	rewriter  *rewrite.Rewriter
	generator llm.DraftGenerator
	store     store.Store
	logger    *zerolog.Logger
}

func New(
	registry *keywords.Registry,
	det *detector.Detector,
	engine *scoring.Engine,
	g *gate.Gate,
	rewriter *rewrite.Rewriter,
	generator llm.DraftGenerator,
	st store.Store,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		registry:  registry,
		detector:  det,
		engine:    engine,
		gate:      g,
		rewriter:  rewriter,
		generator: generator,
		store:     st,
		logger:    logger,
	}
}

// Assess scores one text and routes it through the gate. The assessment and
// its audit entry are persisted before the outcome is returned; a
// persistence failure surfaces as an error and the caller retries the whole
// call.
func (p *Pipeline) Assess(ctx context.Context, text string, actx models.AssessmentContext, stage models.Stage) (*models.AssessOutcome, error) {
	set := p.registry.Current()

	var assessment *models.RiskAssessment
	if set == nil {
		// Cannot prove safety without a keyword set, so assume risk.
		p.logger.Error().Str("subject_id", actx.SubjectID).Msg("keyword set unavailable, failing closed")
		assessment = p.newAssessment(actx, stage, nil, scoring.Result{
			Score: 100,
			Level: models.LevelCritical,
		}, "unavailable")
	} else {
		matches := p.detector.Detect(text, actx.Language, set)
		result := p.engine.Score(matches, set, actx)
		assessment = p.newAssessment(actx, stage, matches, result, set.Version)
	}

	entry := &models.AuditLogEntry{
		ID:        uuid.NewString(),
		Actor:     models.ActorSystem,
		Action:    models.AuditAssessmentCreated,
		After:     assessment.ID,
		CreatedAt: assessment.CreatedAt,
	}
	if err := p.store.CreateAssessment(ctx, assessment, entry); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("subject_id", actx.SubjectID).
		Str("stage", string(stage)).
		Int("score", assessment.Score).
		Int("level", int(assessment.Level)).
		Bool("blocked_pattern", assessment.BlockedPattern).
		Msg("assessment recorded")

	return p.gate.Route(ctx, assessment, actx, text)
}

// Run executes the full pipeline for one generation request. A critical or
// blocked pre-generation assessment skips the AI call entirely; a generation
// failure (after its single fallback retry) yields the safe response without
// creating an assessment, since there is nothing to assess.
func (p *Pipeline) Run(ctx context.Context, req models.GenerationRequest) (*models.AssessOutcome, error) {
	actx := req.Context()

	pre, err := p.Assess(ctx, req.PromptText, actx, models.StagePreGeneration)
	if err != nil {
		return nil, err
	}
	if pre.Assessment.Level == models.LevelCritical || pre.Assessment.BlockedPattern {
		p.logger.Info().Str("subject_id", req.SubjectID).Msg("generation skipped after pre-generation hold")
		return pre, nil
	}

	draft, err := p.generator.GenerateDraft(ctx, req.PromptText)
	if err != nil {
		p.logger.Error().Err(err).Str("subject_id", req.SubjectID).Msg("draft generation failed")
		return &models.AssessOutcome{
			Decision:        models.DecisionHold,
			DeliverableText: p.rewriter.SafeResponse(req.Language),
		}, nil
	}

	return p.Assess(ctx, draft, actx, models.StagePostGeneration)
}

func (p *Pipeline) newAssessment(
	actx models.AssessmentContext,
	stage models.Stage,
	matches map[models.RiskCategory][]string,
	result scoring.Result,
	setVersion string,
) *models.RiskAssessment {
	if matches == nil {
		matches = map[models.RiskCategory][]string{}
	}
	return &models.RiskAssessment{
		ID:                uuid.NewString(),
		SubjectID:         actx.SubjectID,
		Stage:             stage,
		Score:             result.Score,
		Level:             result.Level,
		Matches:           matches,
		Flags:             actx.Flags,
		BlockedPattern:    result.BlockedPattern,
		KeywordSetVersion: setVersion,
		CreatedAt:         time.Now().UTC(),
	}
}
