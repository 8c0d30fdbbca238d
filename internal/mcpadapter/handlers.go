package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bimsrama/relasi4warna/internal/analytics"
	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/pipeline"
)

// AssessInput is the MCP tool input schema (matches HTTP API field names).
type AssessInput struct {
	Text                string `json:"text" jsonschema:"report text to assess"`
	SubjectID           string `json:"subject_id" jsonschema:"assessment subject identifier"`
	Language            string `json:"language,omitempty" jsonschema:"text language: id or en (default: id)"`
	Tier                string `json:"tier,omitempty" jsonschema:"report tier: standard or elite"`
	Stage               string `json:"stage,omitempty" jsonschema:"pre_generation or post_generation (default: post_generation)"`
	MultiDomainConflict bool   `json:"multi_domain_conflict,omitempty" jsonschema:"subject shows conflicting signals across life domains"`
	PowerAsymmetry      bool   `json:"power_asymmetry,omitempty" jsonschema:"relationship context has a power imbalance"`
	CoercionLanguage    bool   `json:"coercion_language,omitempty" jsonschema:"input contains coercive phrasing"`
}

// OverviewInput is the MCP tool input schema for the HITL overview tool.
type OverviewInput struct {
	Days int `json:"days,omitempty" jsonschema:"window in days (default: 30)"`
}

// NewAssessHandler returns a tool handler that runs one gate stage over a
// text. Pass the returned function to mcp.AddTool.
func NewAssessHandler(p *pipeline.Pipeline) func(context.Context, *mcp.CallToolRequest, AssessInput) (*mcp.CallToolResult, *models.AssessOutcome, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AssessInput) (*mcp.CallToolResult, *models.AssessOutcome, error) {
		return AssessText(ctx, p, req, input)
	}
}

// AssessText scores and routes a text through the safety gate.
func AssessText(
	ctx context.Context,
	p *pipeline.Pipeline,
	req *mcp.CallToolRequest,
	input AssessInput,
) (*mcp.CallToolResult, *models.AssessOutcome, error) {
	lang := models.Language(input.Language)
	if lang == "" {
		lang = models.LanguageIndonesian
	}
	stage := models.Stage(input.Stage)
	if stage == "" {
		stage = models.StagePostGeneration
	}

	actx := models.AssessmentContext{
		SubjectID: input.SubjectID,
		Language:  lang,
		Tier:      models.ReportTier(input.Tier),
		Flags: models.ContextFlags{
			MultiDomainConflict: input.MultiDomainConflict,
			PowerAsymmetry:      input.PowerAsymmetry,
			CoercionLanguage:    input.CoercionLanguage,
		},
	}

	outcome, err := p.Assess(ctx, input.Text, actx, stage)
	return nil, outcome, err
}

// NewOverviewHandler returns a tool handler for the HITL analytics overview.
// Pass the returned function to mcp.AddTool.
func NewOverviewHandler(svc *analytics.Service) func(context.Context, *mcp.CallToolRequest, OverviewInput) (*mcp.CallToolResult, *analytics.Overview, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input OverviewInput) (*mcp.CallToolResult, *analytics.Overview, error) {
		overview, err := svc.Overview(ctx, input.Days)
		return nil, overview, err
	}
}
