package scoring

import (
	"github.com/bimsrama/relasi4warna/internal/config"
	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/rs/zerolog"
)

const (
	levelSensitiveFloor = 30
	levelCriticalFloor  = 70
	maxScore            = 100
)

// Result is one scoring run: the numeric score, the derived level, and the
// blocked-pattern outcome, which is distinct from the level and never folded
// into it.
type Result struct {
	Score          int
	Level          models.RiskLevel
	BlockedPattern bool
}

// Engine converts keyword matches and contextual flags into a score and a
// discrete risk level. Weights come from the keyword set itself (each match
// carries its keyword weight); flag increments come from configuration.
type Engine struct {
	increments config.FlagIncrementsConfig
	logger     *zerolog.Logger
}

func NewEngine(increments config.FlagIncrementsConfig, logger *zerolog.Logger) *Engine {
	return &Engine{
		increments: increments,
		logger:     logger,
	}
}

// Score computes the risk result for one assessment stage. The stage itself
// does not alter the arithmetic; it is recorded on the assessment.
func (e *Engine) Score(
	matches map[models.RiskCategory][]string,
	set *models.KeywordSet,
	actx models.AssessmentContext,
) Result {
	score := 0
	for _, cat := range models.Categories {
		for _, term := range matches[cat] {
			score += keywordWeight(set, cat, actx.Language, term)
		}
	}

	// Flag increments apply regardless of keyword score.
	if actx.Flags.MultiDomainConflict {
		score += e.increments.MultiDomainConflict
	}
	if actx.Flags.PowerAsymmetry {
		score += e.increments.PowerAsymmetry
	}
	if actx.Flags.CoercionLanguage {
		score += e.increments.CoercionLanguage
	}

	if score > maxScore {
		score = maxScore
	}

	level := levelForScore(score)

	// Hard override: any RED match is critical, whatever the sum says.
	if len(matches[models.CategoryRed]) > 0 {
		level = models.LevelCritical
	}

	level = e.applyFlagFloors(level, actx)

	result := Result{
		Score:          score,
		Level:          level,
		BlockedPattern: len(matches[models.CategoryClinical]) > 0 || len(matches[models.CategoryLabeling]) > 0,
	}

	e.logger.Debug().
		Str("subject_id", actx.SubjectID).
		Int("score", result.Score).
		Int("level", int(result.Level)).
		Bool("blocked_pattern", result.BlockedPattern).
		Msg("scoring complete")

	return result
}

// applyFlagFloors raises the level floor for contextual flags. Coercion
// content floors Sensitive on the standard tier; the elite report modules
// floor Sensitive on multi-domain conflict or power asymmetry and Critical
// on coercion.
func (e *Engine) applyFlagFloors(level models.RiskLevel, actx models.AssessmentContext) models.RiskLevel {
	if actx.Flags.CoercionLanguage && level < models.LevelSensitive {
		level = models.LevelSensitive
	}

	if actx.Tier == models.TierElite {
		if (actx.Flags.MultiDomainConflict || actx.Flags.PowerAsymmetry) && level < models.LevelSensitive {
			level = models.LevelSensitive
		}
		if actx.Flags.CoercionLanguage && level < models.LevelCritical {
			level = models.LevelCritical
		}
	}

	return level
}

func levelForScore(score int) models.RiskLevel {
	switch {
	case score >= levelCriticalFloor:
		return models.LevelCritical
	case score >= levelSensitiveFloor:
		return models.LevelSensitive
	default:
		return models.LevelNormal
	}
}

func keywordWeight(set *models.KeywordSet, cat models.RiskCategory, lang models.Language, term string) int {
	if set == nil {
		return 0
	}
	for _, kw := range set.Keywords {
		if kw.Category == cat && kw.Language == lang && kw.Term == term {
			return kw.Weight
		}
	}
	return 0
}
