package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/analytics"
	"github.com/bimsrama/relasi4warna/internal/api/middleware"
	"github.com/bimsrama/relasi4warna/internal/keywords"
	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/pipeline"
	"github.com/bimsrama/relasi4warna/internal/queue"
	"github.com/bimsrama/relasi4warna/internal/store"
)

type Handler struct {
	pipeline  *pipeline.Pipeline
	queue     *queue.Service
	registry  *keywords.Registry
	analytics *analytics.Service
	logger    *zerolog.Logger
}

func NewHandler(
	p *pipeline.Pipeline,
	q *queue.Service,
	registry *keywords.Registry,
	analyticsService *analytics.Service,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		pipeline:  p,
		queue:     q,
		registry:  registry,
		analytics: analyticsService,
		logger:    logger,
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}

// POST /api/v1/assess
// Body: AssessRequest
// Returns: models.AssessOutcome
func (h *Handler) Assess(req *restful.Request, resp *restful.Response) {
	var assessRequest AssessRequest
	if err := req.ReadEntity(&assessRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if assessRequest.Text == "" || assessRequest.SubjectID == "" {
		middleware.HandleError(resp, errors.New("text and subject_id are required"), http.StatusBadRequest)
		return
	}

	stage := assessRequest.Stage
	if stage == "" {
		stage = models.StagePostGeneration
	}

	h.logger.Info().
		Str("subject_id", assessRequest.SubjectID).
		Str("stage", string(stage)).
		Msg("Start assessment")

	ctx := req.Request.Context()
	outcome, err := h.pipeline.Assess(ctx, assessRequest.Text, assessRequest.context(), stage)
	if err != nil {
		h.logger.Error().Err(err).Msg("Assessment failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("subject_id", assessRequest.SubjectID).
		Str("decision", string(outcome.Decision)).
		Int("score", outcome.Assessment.Score).
		Msg("Assessment complete")

	resp.WriteHeaderAndEntity(http.StatusOK, outcome)
}

// POST /api/v1/reports/generate
// Body: models.GenerationRequest
// Returns: models.AssessOutcome
func (h *Handler) GenerateReport(req *restful.Request, resp *restful.Response) {
	var genRequest models.GenerationRequest
	if err := req.ReadEntity(&genRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if genRequest.SubjectID == "" || genRequest.PromptText == "" {
		middleware.HandleError(resp, errors.New("subject_id and prompt_text are required"), http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("subject_id", genRequest.SubjectID).
		Str("archetype", genRequest.Archetype).
		Str("tier", string(genRequest.Tier)).
		Msg("Start report generation")

	ctx := req.Request.Context()
	outcome, err := h.pipeline.Run(ctx, genRequest)
	if err != nil {
		h.logger.Error().Err(err).Msg("Report generation failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("subject_id", genRequest.SubjectID).
		Str("decision", string(outcome.Decision)).
		Msg("Report generation complete")

	resp.WriteHeaderAndEntity(http.StatusOK, outcome)
}

// GET /api/v1/moderation/queue?status=pending
func (h *Handler) ListQueue(req *restful.Request, resp *restful.Response) {
	status := models.QueueStatus(req.QueryParameter("status"))

	items, err := h.queue.List(req.Request.Context(), status)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list queue")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, QueueListResponse{Items: items, Total: len(items)})
}

// GET /api/v1/moderation/queue/{item_id}
func (h *Handler) GetQueueItem(req *restful.Request, resp *restful.Response) {
	itemID := req.PathParameter("item_id")

	item, err := h.queue.Get(req.Request.Context(), itemID)
	if err != nil {
		h.writeQueueError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, item)
}

// POST /api/v1/moderation/queue/{item_id}/claim
func (h *Handler) ClaimQueueItem(req *restful.Request, resp *restful.Response) {
	itemID := req.PathParameter("item_id")

	var claimRequest ClaimRequest
	if err := req.ReadEntity(&claimRequest); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if claimRequest.ModeratorID == "" {
		middleware.HandleError(resp, errors.New("moderator_id is required"), http.StatusBadRequest)
		return
	}

	item, err := h.queue.Claim(req.Request.Context(), itemID, claimRequest.ModeratorID)
	if err != nil {
		h.writeQueueError(resp, err)
		return
	}

	h.logger.Info().
		Str("item_id", itemID).
		Str("moderator_id", claimRequest.ModeratorID).
		Msg("Queue item claimed")

	resp.WriteHeaderAndEntity(http.StatusOK, item)
}

// POST /api/v1/moderation/queue/{item_id}/decision
func (h *Handler) DecideQueueItem(req *restful.Request, resp *restful.Response) {
	itemID := req.PathParameter("item_id")

	var decisionRequest DecisionRequest
	if err := req.ReadEntity(&decisionRequest); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if decisionRequest.ModeratorID == "" {
		middleware.HandleError(resp, errors.New("moderator_id is required"), http.StatusBadRequest)
		return
	}

	result, err := h.queue.Decide(
		req.Request.Context(),
		itemID,
		decisionRequest.ModeratorID,
		decisionRequest.Action,
		decisionRequest.EditedText,
		decisionRequest.Notes,
	)
	if err != nil {
		h.writeQueueError(resp, err)
		return
	}

	h.logger.Info().
		Str("item_id", itemID).
		Str("moderator_id", decisionRequest.ModeratorID).
		Str("action", string(decisionRequest.Action)).
		Str("status", string(result.Item.Status)).
		Msg("Queue item decided")

	resp.WriteHeaderAndEntity(http.StatusOK, DecisionResponse{
		Item:         result.Item,
		ReleasedText: result.ReleasedText,
	})
}

// POST /api/v1/moderation/queue/{item_id}/reopen
func (h *Handler) ReopenQueueItem(req *restful.Request, resp *restful.Response) {
	itemID := req.PathParameter("item_id")

	var reopenRequest ReopenRequest
	if err := req.ReadEntity(&reopenRequest); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if reopenRequest.Actor == "" {
		middleware.HandleError(resp, errors.New("actor is required"), http.StatusBadRequest)
		return
	}

	item, err := h.queue.Reopen(req.Request.Context(), itemID, reopenRequest.Actor)
	if err != nil {
		h.writeQueueError(resp, err)
		return
	}

	h.logger.Info().
		Str("original_id", itemID).
		Str("item_id", item.ID).
		Msg("Escalated item reopened")

	resp.WriteHeaderAndEntity(http.StatusCreated, item)
}

// GET /api/v1/moderation/queue/{item_id}/audit
func (h *Handler) QueueItemAudit(req *restful.Request, resp *restful.Response) {
	itemID := req.PathParameter("item_id")

	entries, err := h.queue.AuditTrail(req.Request.Context(), itemID)
	if err != nil {
		h.writeQueueError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, AuditTrailResponse{QueueItemID: itemID, Entries: entries})
}

// GET /api/v1/keywords
func (h *Handler) GetKeywords(req *restful.Request, resp *restful.Response) {
	set := h.registry.Current()
	if set == nil {
		middleware.HandleError(resp, errors.New("no keyword set loaded"), http.StatusNotFound)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, set)
}

// PUT /api/v1/keywords
// Publishes a new immutable keyword snapshot.
func (h *Handler) UpdateKeywords(req *restful.Request, resp *restful.Response) {
	var updateRequest KeywordsUpdateRequest
	if err := req.ReadEntity(&updateRequest); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if len(updateRequest.Keywords) == 0 {
		middleware.HandleError(resp, errors.New("keywords must not be empty"), http.StatusBadRequest)
		return
	}

	set, err := h.registry.Publish(req.Request.Context(), updateRequest.Keywords)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to publish keyword set")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("version", set.Version).
		Int("keywords", len(set.Keywords)).
		Msg("Keyword set published")

	resp.WriteHeaderAndEntity(http.StatusOK, set)
}

// GET /api/v1/analytics/hitl/overview?days=30
func (h *Handler) HITLOverview(req *restful.Request, resp *restful.Response) {
	overview, err := h.analytics.Overview(req.Request.Context(), daysParam(req))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build overview")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, overview)
}

// GET /api/v1/analytics/hitl/timeline?days=30
func (h *Handler) HITLTimeline(req *restful.Request, resp *restful.Response) {
	timeline, err := h.analytics.Timeline(req.Request.Context(), daysParam(req))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build timeline")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, timeline)
}

// GET /api/v1/analytics/hitl/moderator-performance?days=30
func (h *Handler) HITLModeratorPerformance(req *restful.Request, resp *restful.Response) {
	stats, err := h.analytics.ModeratorPerformance(req.Request.Context(), daysParam(req))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build moderator performance")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, stats)
}

// GET /api/v1/analytics/hitl/export?days=30&format=json|csv
func (h *Handler) HITLExport(req *restful.Request, resp *restful.Response) {
	export, err := h.analytics.Export(req.Request.Context(), daysParam(req))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build export")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	if req.QueryParameter("format") == "csv" {
		resp.AddHeader("Content-Type", "text/csv")
		resp.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(resp); err != nil {
			h.logger.Error().Err(err).Msg("Failed to write CSV export")
		}
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, export)
}

func (h *Handler) writeQueueError(resp *restful.Response, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.HandleError(resp, err, http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		middleware.HandleError(resp, err, http.StatusConflict)
	case errors.Is(err, queue.ErrInvalidDecision):
		middleware.HandleError(resp, err, http.StatusBadRequest)
	default:
		h.logger.Error().Err(err).Msg("Queue operation failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
	}
}

func daysParam(req *restful.Request) int {
	days := 30
	if raw := req.QueryParameter("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	return days
}
