package api

import (
	"github.com/bimsrama/relasi4warna/internal/models"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// AssessRequest runs a single gate stage over an already-existing text
// (post-generation by default).
type AssessRequest struct {
	Text      string              `json:"text"`
	SubjectID string              `json:"subject_id"`
	Language  models.Language     `json:"language"`
	Archetype string              `json:"archetype,omitempty"`
	Series    string              `json:"series,omitempty"`
	Tier      models.ReportTier   `json:"tier,omitempty"`
	Flags     models.ContextFlags `json:"flags"`
	Stage     models.Stage        `json:"stage,omitempty"`
}

func (r AssessRequest) context() models.AssessmentContext {
	return models.AssessmentContext{
		SubjectID: r.SubjectID,
		Language:  r.Language,
		Archetype: r.Archetype,
		Series:    r.Series,
		Tier:      r.Tier,
		Flags:     r.Flags,
	}
}

type ClaimRequest struct {
	ModeratorID string `json:"moderator_id"`
}

type DecisionRequest struct {
	ModeratorID string                  `json:"moderator_id"`
	Action      models.ModerationAction `json:"action"`
	EditedText  string                  `json:"edited_text,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
}

type DecisionResponse struct {
	Item         *models.ModerationQueueItem `json:"item"`
	ReleasedText string                      `json:"released_text,omitempty"`
}

type ReopenRequest struct {
	Actor string `json:"actor"`
}

type QueueListResponse struct {
	Items []models.ModerationQueueItem `json:"items"`
	Total int                          `json:"total"`
}

type AuditTrailResponse struct {
	QueueItemID string                 `json:"queue_item_id"`
	Entries     []models.AuditLogEntry `json:"entries"`
}

type KeywordsUpdateRequest struct {
	Keywords []models.RiskKeyword `json:"keywords"`
}
