package models

import (
	"time"
)

type Language string

const (
	LanguageIndonesian Language = "id"
	LanguageEnglish    Language = "en"
)

type Stage string

const (
	StagePreGeneration  Stage = "pre_generation"
	StagePostGeneration Stage = "post_generation"
)

type RiskCategory string

const (
	CategoryRed           RiskCategory = "red"
	CategoryYellow        RiskCategory = "yellow"
	CategoryWeaponization RiskCategory = "weaponization"
	CategoryClinical      RiskCategory = "clinical"
	CategoryLabeling      RiskCategory = "labeling"
)

// Categories lists every risk category; scoring iterates this so the
// weight table stays exhaustive.
var Categories = []RiskCategory{
	CategoryRed,
	CategoryYellow,
	CategoryWeaponization,
	CategoryClinical,
	CategoryLabeling,
}

type RiskLevel int

const (
	LevelNormal    RiskLevel = 1
	LevelSensitive RiskLevel = 2
	LevelCritical  RiskLevel = 3
)

// ReportTier distinguishes the elite report modules (multi-domain relational,
// parent-child, leadership contexts) that carry stricter flag floors.
type ReportTier string

const (
	TierStandard ReportTier = "standard"
	TierElite    ReportTier = "elite"
)

type Decision string

const (
	DecisionAutoPublish Decision = "auto_publish"
	DecisionBuffer      Decision = "buffer"
	DecisionHold        Decision = "hold"
)

type QueueStatus string

const (
	StatusPending          QueueStatus = "pending"
	StatusApproved         QueueStatus = "approved"
	StatusBuffered         QueueStatus = "buffered"
	StatusEdited           QueueStatus = "edited"
	StatusSafeResponseOnly QueueStatus = "safe_response_only"
	StatusEscalated        QueueStatus = "escalated"
)

// ModerationAction is one of the five terminal decisions a moderator can
// take on a pending queue item.
type ModerationAction string

const (
	ActionApprove          ModerationAction = "approve"
	ActionAddSafetyBuffer  ModerationAction = "add_safety_buffer"
	ActionEditOutput       ModerationAction = "edit_output"
	ActionSafeResponseOnly ModerationAction = "safe_response_only"
	ActionEscalate         ModerationAction = "escalate"
)

type AuditAction string

const (
	AuditAssessmentCreated AuditAction = "assessment_created"
	AuditAutoPublished     AuditAction = "auto_published"
	AuditBufferApplied     AuditAction = "buffer_applied"
	AuditItemCreated       AuditAction = "queue_item_created"
	AuditItemClaimed       AuditAction = "queue_item_claimed"
	AuditItemDecided       AuditAction = "queue_item_decided"
	AuditItemReopened      AuditAction = "queue_item_reopened"
)

// ActorSystem is the audit actor for automatic gate decisions; moderator
// decisions use the moderator id as actor.
const ActorSystem = "system"

type RiskKeyword struct {
	ID       string       `json:"id"`
	Category RiskCategory `json:"category"`
	Language Language     `json:"language"`
	Term     string       `json:"term"`
	Weight   int          `json:"weight"`
}

// KeywordSet is an immutable, versioned snapshot of the keyword lists.
// Admin updates publish a new snapshot; in-flight assessments keep the
// version they started with.
type KeywordSet struct {
	Version     string        `json:"version"`
	Keywords    []RiskKeyword `json:"keywords"`
	PublishedAt time.Time     `json:"published_at"`
}

// ForLanguage returns the keywords matching lang.
func (s *KeywordSet) ForLanguage(lang Language) []RiskKeyword {
	var out []RiskKeyword
	for _, kw := range s.Keywords {
		if kw.Language == lang {
			out = append(out, kw)
		}
	}
	return out
}

// ContextFlags are contextual risk signals supplied by the caller alongside
// the text; they add fixed score increments and can force level floors.
type ContextFlags struct {
	MultiDomainConflict bool `json:"multi_domain_conflict"`
	PowerAsymmetry      bool `json:"power_asymmetry"`
	CoercionLanguage    bool `json:"coercion_language"`
}

// AssessmentContext carries everything about the subject that scoring needs.
// Archetype and series are opaque to the scoring algorithm itself.
type AssessmentContext struct {
	SubjectID string       `json:"subject_id"`
	Language  Language     `json:"language"`
	Archetype string       `json:"archetype,omitempty"`
	Series    string       `json:"series,omitempty"`
	Tier      ReportTier   `json:"tier,omitempty"`
	Flags     ContextFlags `json:"flags"`
}

// RiskAssessment is the immutable record of one scoring run.
type RiskAssessment struct {
	ID                string                    `json:"id"`
	SubjectID         string                    `json:"subject_id"`
	Stage             Stage                     `json:"stage"`
	Score             int                       `json:"score"`
	Level             RiskLevel                 `json:"level"`
	Matches           map[RiskCategory][]string `json:"matches"`
	Flags             ContextFlags              `json:"flags"`
	BlockedPattern    bool                      `json:"blocked_pattern"`
	KeywordSetVersion string                    `json:"keyword_set_version"`
	CreatedAt         time.Time                 `json:"created_at"`
}

type ModerationQueueItem struct {
	ID           string      `json:"id"`
	AssessmentID string      `json:"assessment_id"`
	Status       QueueStatus `json:"status"`
	Language     Language    `json:"language"`
	OriginalText string      `json:"original_text"`
	EditedText   *string     `json:"edited_text,omitempty"`
	ModeratorID  *string     `json:"moderator_id,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	// Sampled marks level-2 QA items whose output was already delivered.
	Sampled bool `json:"sampled"`
	// ReopenedFrom links a re-review item back to the escalated original;
	// EscalatedTo marks an escalated item that has been reopened (at most once).
	ReopenedFrom string    `json:"reopened_from,omitempty"`
	EscalatedTo  string    `json:"escalated_to,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuditLogEntry is append-only; one entry per state transition, automatic
// ones included. QueueItemID is empty for auto-decisions.
type AuditLogEntry struct {
	ID          string      `json:"id"`
	QueueItemID string      `json:"queue_item_id,omitempty"`
	Actor       string      `json:"actor"`
	Action      AuditAction `json:"action"`
	Before      string      `json:"before,omitempty"`
	After       string      `json:"after,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AssessOutcome is what the report-delivery path receives: the routing
// decision and the text that may actually be shown to the user.
type AssessOutcome struct {
	Decision        Decision        `json:"decision"`
	DeliverableText string          `json:"deliverable_text"`
	Assessment      *RiskAssessment `json:"assessment"`
	QueueItemID     string          `json:"queue_item_id,omitempty"`
	Sampled         bool            `json:"sampled,omitempty"`
}

// GenerationRequest is the input message for a full pipeline run, consumed
// from the report-events stream or the REST API.
type GenerationRequest struct {
	SubjectID  string       `json:"subject_id"`
	Language   Language     `json:"language"`
	Archetype  string       `json:"archetype"`
	Series     string       `json:"series"`
	Tier       ReportTier   `json:"tier"`
	Flags      ContextFlags `json:"flags"`
	PromptText string       `json:"prompt_text"`
}

// Context builds the assessment context shared by both pipeline stages.
func (r GenerationRequest) Context() AssessmentContext {
	return AssessmentContext{
		SubjectID: r.SubjectID,
		Language:  r.Language,
		Archetype: r.Archetype,
		Series:    r.Series,
		Tier:      r.Tier,
		Flags:     r.Flags,
	}
}
