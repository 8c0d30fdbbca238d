package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/store"
)

// Service computes the HITL analytics surface for admin tooling: risk
// distribution, queue stats, keyword trends, decision timings and the
// per-moderator breakdown. It is a read-only facade over the store and
// carries no pipeline logic.
type Service struct {
	store  store.Store
	logger *zerolog.Logger
}

func NewService(st store.Store, logger *zerolog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger,
	}
}

type KeywordTrend struct {
	Term     string              `json:"term"`
	Category models.RiskCategory `json:"category"`
	Count    int                 `json:"count"`
}

type Overview struct {
	Days                  int                        `json:"days"`
	RiskDistribution      map[models.RiskLevel]int   `json:"risk_distribution"`
	QueueStats            map[models.QueueStatus]int `json:"queue_stats"`
	KeywordTrends         []KeywordTrend             `json:"keyword_trends"`
	BlockedPatternCount   int                        `json:"blocked_pattern_count"`
	AvgTimeToDecisionSecs float64                    `json:"avg_time_to_decision_seconds"`
}

type TimelinePoint struct {
	Date        string `json:"date"`
	Assessments int    `json:"assessments"`
	Critical    int    `json:"critical"`
	QueueItems  int    `json:"queue_items"`
}

type ModeratorStats struct {
	ModeratorID           string                     `json:"moderator_id"`
	Decided               int                        `json:"decided"`
	ByStatus              map[models.QueueStatus]int `json:"by_status"`
	AvgTimeToDecisionSecs float64                    `json:"avg_time_to_decision_seconds"`
}

type Export struct {
	Assessments []models.RiskAssessment      `json:"risk_assessments"`
	QueueItems  []models.ModerationQueueItem `json:"moderation_queue"`
	AuditLogs   []models.AuditLogEntry       `json:"audit_logs"`
}

func (s *Service) Overview(ctx context.Context, days int) (*Overview, error) {
	since := sinceDays(days)

	assessments, err := s.store.ListAssessmentsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	items, err := s.store.ListQueueItems(ctx, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	overview := &Overview{
		Days:             days,
		RiskDistribution: make(map[models.RiskLevel]int),
		QueueStats:       make(map[models.QueueStatus]int),
	}

	termCounts := make(map[string]KeywordTrend)
	for _, a := range assessments {
		overview.RiskDistribution[a.Level]++
		if a.BlockedPattern {
			overview.BlockedPatternCount++
		}
		for cat, terms := range a.Matches {
			for _, term := range terms {
				key := string(cat) + "/" + term
				trend := termCounts[key]
				trend.Term = term
				trend.Category = cat
				trend.Count++
				termCounts[key] = trend
			}
		}
	}

	for _, trend := range termCounts {
		overview.KeywordTrends = append(overview.KeywordTrends, trend)
	}
	sort.Slice(overview.KeywordTrends, func(i, j int) bool {
		if overview.KeywordTrends[i].Count != overview.KeywordTrends[j].Count {
			return overview.KeywordTrends[i].Count > overview.KeywordTrends[j].Count
		}
		return overview.KeywordTrends[i].Term < overview.KeywordTrends[j].Term
	})
	if len(overview.KeywordTrends) > 10 {
		overview.KeywordTrends = overview.KeywordTrends[:10]
	}

	var decided int
	var totalSecs float64
	for _, item := range items {
		overview.QueueStats[item.Status]++
		if item.Status != models.StatusPending {
			decided++
			totalSecs += item.UpdatedAt.Sub(item.CreatedAt).Seconds()
		}
	}
	if decided > 0 {
		overview.AvgTimeToDecisionSecs = totalSecs / float64(decided)
	}

	return overview, nil
}

func (s *Service) Timeline(ctx context.Context, days int) ([]TimelinePoint, error) {
	since := sinceDays(days)

	assessments, err := s.store.ListAssessmentsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	items, err := s.store.ListQueueItems(ctx, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	byDate := make(map[string]*TimelinePoint)
	point := func(t time.Time) *TimelinePoint {
		date := t.UTC().Format("2006-01-02")
		p, ok := byDate[date]
		if !ok {
			p = &TimelinePoint{Date: date}
			byDate[date] = p
		}
		return p
	}

	for _, a := range assessments {
		p := point(a.CreatedAt)
		p.Assessments++
		if a.Level == models.LevelCritical {
			p.Critical++
		}
	}
	for _, item := range items {
		point(item.CreatedAt).QueueItems++
	}

	var timeline []TimelinePoint
	for _, p := range byDate {
		timeline = append(timeline, *p)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Date < timeline[j].Date })
	return timeline, nil
}

func (s *Service) ModeratorPerformance(ctx context.Context, days int) ([]ModeratorStats, error) {
	items, err := s.store.ListQueueItems(ctx, "", sinceDays(days))
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	byModerator := make(map[string]*ModeratorStats)
	totals := make(map[string]float64)
	for _, item := range items {
		if item.ModeratorID == nil || item.Status == models.StatusPending {
			continue
		}
		stats, ok := byModerator[*item.ModeratorID]
		if !ok {
			stats = &ModeratorStats{
				ModeratorID: *item.ModeratorID,
				ByStatus:    make(map[models.QueueStatus]int),
			}
			byModerator[*item.ModeratorID] = stats
		}
		stats.Decided++
		stats.ByStatus[item.Status]++
		totals[*item.ModeratorID] += item.UpdatedAt.Sub(item.CreatedAt).Seconds()
	}

	var out []ModeratorStats
	for id, stats := range byModerator {
		stats.AvgTimeToDecisionSecs = totals[id] / float64(stats.Decided)
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModeratorID < out[j].ModeratorID })
	return out, nil
}

func (s *Service) Export(ctx context.Context, days int) (*Export, error) {
	since := sinceDays(days)

	assessments, err := s.store.ListAssessmentsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	items, err := s.store.ListQueueItems(ctx, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	audit, err := s.store.ListAuditSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}

	return &Export{
		Assessments: assessments,
		QueueItems:  items,
		AuditLogs:   audit,
	}, nil
}

// WriteCSV writes the assessment rows of an export as CSV.
func (e *Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "subject_id", "stage", "score", "level", "blocked_pattern", "keyword_set_version", "created_at"}); err != nil {
		return err
	}
	for _, a := range e.Assessments {
		record := []string{
			a.ID,
			a.SubjectID,
			string(a.Stage),
			strconv.Itoa(a.Score),
			strconv.Itoa(int(a.Level)),
			strconv.FormatBool(a.BlockedPattern),
			a.KeywordSetVersion,
			a.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sinceDays(days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}
