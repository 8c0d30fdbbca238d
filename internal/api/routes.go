package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/bimsrama/relasi4warna/internal/analytics"
	"github.com/bimsrama/relasi4warna/internal/api/middleware"
	"github.com/bimsrama/relasi4warna/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/assess").
			To(handler.Assess).
			Doc("Assess a report text and route it through the safety gate").
			Metadata(restfulspec.KeyOpenAPITags, []string{"assess"}).
			Reads(AssessRequest{}).
			Writes(models.AssessOutcome{}).
			Returns(200, "OK", models.AssessOutcome{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/reports/generate").
			To(handler.GenerateReport).
			Doc("Run the full report pipeline: pre-check, generate, post-check, gate").
			Metadata(restfulspec.KeyOpenAPITags, []string{"reports"}).
			Reads(models.GenerationRequest{}).
			Writes(models.AssessOutcome{}).
			Returns(200, "OK", models.AssessOutcome{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/moderation/queue").
			To(handler.ListQueue).
			Doc("List moderation queue items").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Param(ws.QueryParameter("status", "Filter by status (pending, approved, buffered, edited, safe_response_only, escalated)").DataType("string").Required(false)).
			Writes(QueueListResponse{}).
			Returns(200, "OK", QueueListResponse{}))

	ws.
		Route(ws.GET("/moderation/queue/{item_id}").
			To(handler.GetQueueItem).
			Doc("Get a moderation queue item").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Param(ws.PathParameter("item_id", "Queue item id").DataType("string")).
			Writes(models.ModerationQueueItem{}).
			Returns(200, "OK", models.ModerationQueueItem{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/moderation/queue/{item_id}/claim").
			To(handler.ClaimQueueItem).
			Doc("Claim a pending queue item for review").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Param(ws.PathParameter("item_id", "Queue item id").DataType("string")).
			Reads(ClaimRequest{}).
			Writes(models.ModerationQueueItem{}).
			Returns(200, "OK", models.ModerationQueueItem{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(409, "Conflict", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/moderation/queue/{item_id}/decision").
			To(handler.DecideQueueItem).
			Doc("Record a moderation decision on a claimed item").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Param(ws.PathParameter("item_id", "Queue item id").DataType("string")).
			Reads(DecisionRequest{}).
			Writes(DecisionResponse{}).
			Returns(200, "OK", DecisionResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(409, "Conflict", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/moderation/queue/{item_id}/reopen").
			To(handler.ReopenQueueItem).
			Doc("Reopen an escalated item as a new pending review").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Param(ws.PathParameter("item_id", "Escalated queue item id").DataType("string")).
			Reads(ReopenRequest{}).
			Writes(models.ModerationQueueItem{}).
			Returns(201, "Created", models.ModerationQueueItem{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(409, "Conflict", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/moderation/queue/{item_id}/audit").
			To(handler.QueueItemAudit).
			Doc("Audit trail for a queue item").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Param(ws.PathParameter("item_id", "Queue item id").DataType("string")).
			Writes(AuditTrailResponse{}).
			Returns(200, "OK", AuditTrailResponse{}))

	ws.
		Route(ws.GET("/keywords").
			To(handler.GetKeywords).
			Doc("Current keyword set snapshot").
			Metadata(restfulspec.KeyOpenAPITags, []string{"keywords"}).
			Writes(models.KeywordSet{}).
			Returns(200, "OK", models.KeywordSet{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.PUT("/keywords").
			To(handler.UpdateKeywords).
			Doc("Publish a new keyword set snapshot").
			Metadata(restfulspec.KeyOpenAPITags, []string{"keywords"}).
			Reads(KeywordsUpdateRequest{}).
			Writes(models.KeywordSet{}).
			Returns(200, "OK", models.KeywordSet{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/analytics/hitl/overview").
			To(handler.HITLOverview).
			Doc("Risk distribution, queue stats and keyword trends").
			Metadata(restfulspec.KeyOpenAPITags, []string{"analytics"}).
			Param(ws.QueryParameter("days", "Window in days (default: 30)").DataType("integer").Required(false)).
			Writes(analytics.Overview{}).
			Returns(200, "OK", analytics.Overview{}))

	ws.
		Route(ws.GET("/analytics/hitl/timeline").
			To(handler.HITLTimeline).
			Doc("Daily assessment and queue volumes").
			Metadata(restfulspec.KeyOpenAPITags, []string{"analytics"}).
			Param(ws.QueryParameter("days", "Window in days (default: 30)").DataType("integer").Required(false)).
			Writes([]analytics.TimelinePoint{}).
			Returns(200, "OK", []analytics.TimelinePoint{}))

	ws.
		Route(ws.GET("/analytics/hitl/moderator-performance").
			To(handler.HITLModeratorPerformance).
			Doc("Per-moderator decision counts and timings").
			Metadata(restfulspec.KeyOpenAPITags, []string{"analytics"}).
			Param(ws.QueryParameter("days", "Window in days (default: 30)").DataType("integer").Required(false)).
			Writes([]analytics.ModeratorStats{}).
			Returns(200, "OK", []analytics.ModeratorStats{}))

	ws.
		Route(ws.GET("/analytics/hitl/export").
			To(handler.HITLExport).
			Doc("Export assessments, queue items and audit log").
			Metadata(restfulspec.KeyOpenAPITags, []string{"analytics"}).
			Param(ws.QueryParameter("days", "Window in days (default: 30)").DataType("integer").Required(false)).
			Param(ws.QueryParameter("format", "json or csv (default: json)").DataType("string").Required(false)).
			Writes(analytics.Export{}).
			Returns(200, "OK", analytics.Export{}))

	container.Add(ws)
}
