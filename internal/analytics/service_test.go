package analytics

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/store"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	addAssessment := func(level models.RiskLevel, blocked bool, matches map[models.RiskCategory][]string, age time.Duration) {
		a := &models.RiskAssessment{
			ID:                uuid.NewString(),
			SubjectID:         "subject-1",
			Stage:             models.StagePostGeneration,
			Score:             int(level) * 25,
			Level:             level,
			Matches:           matches,
			BlockedPattern:    blocked,
			KeywordSetVersion: "v1",
			CreatedAt:         now.Add(-age),
		}
		entry := &models.AuditLogEntry{ID: uuid.NewString(), Actor: models.ActorSystem, Action: models.AuditAssessmentCreated, CreatedAt: a.CreatedAt}
		if err := st.CreateAssessment(ctx, a, entry); err != nil {
			t.Fatalf("seed assessment failed: %v", err)
		}
	}

	addAssessment(models.LevelNormal, false, nil, time.Hour)
	addAssessment(models.LevelNormal, false, nil, 2*time.Hour)
	addAssessment(models.LevelSensitive, false, map[models.RiskCategory][]string{
		models.CategoryYellow: {"toxic"},
	}, 3*time.Hour)
	addAssessment(models.LevelCritical, true, map[models.RiskCategory][]string{
		models.CategoryLabeling: {"manipulative"},
		models.CategoryYellow:   {"toxic"},
	}, 25*time.Hour)
	// Outside a 1-day window, inside 30 days.
	addAssessment(models.LevelNormal, false, nil, 40*24*time.Hour)

	addItem := func(status models.QueueStatus, moderator string, decidedAfter time.Duration) {
		item := &models.ModerationQueueItem{
			ID:           uuid.NewString(),
			AssessmentID: uuid.NewString(),
			Status:       status,
			Language:     models.LanguageEnglish,
			OriginalText: "text",
			CreatedAt:    now.Add(-time.Hour),
			UpdatedAt:    now.Add(-time.Hour + decidedAfter),
		}
		if moderator != "" {
			item.ModeratorID = &moderator
		}
		entry := &models.AuditLogEntry{ID: uuid.NewString(), QueueItemID: item.ID, Actor: models.ActorSystem, Action: models.AuditItemCreated, CreatedAt: item.CreatedAt}
		if err := st.CreateQueueItem(ctx, item, entry); err != nil {
			t.Fatalf("seed queue item failed: %v", err)
		}
	}

	addItem(models.StatusPending, "", 0)
	addItem(models.StatusApproved, "mod-a", 10*time.Minute)
	addItem(models.StatusEdited, "mod-a", 20*time.Minute)
	addItem(models.StatusEscalated, "mod-b", 30*time.Minute)

	return st
}

func TestOverview(t *testing.T) {
	svc := NewService(seedStore(t), newTestLogger())

	overview, err := svc.Overview(context.Background(), 30)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	if got := overview.RiskDistribution[models.LevelNormal]; got != 2 {
		t.Errorf("want 2 normal in window, got %d", got)
	}
	if got := overview.RiskDistribution[models.LevelSensitive]; got != 1 {
		t.Errorf("want 1 sensitive, got %d", got)
	}
	if got := overview.RiskDistribution[models.LevelCritical]; got != 1 {
		t.Errorf("want 1 critical, got %d", got)
	}
	if overview.BlockedPatternCount != 1 {
		t.Errorf("want 1 blocked pattern, got %d", overview.BlockedPatternCount)
	}

	if got := overview.QueueStats[models.StatusPending]; got != 1 {
		t.Errorf("want 1 pending, got %d", got)
	}
	if got := overview.QueueStats[models.StatusApproved]; got != 1 {
		t.Errorf("want 1 approved, got %d", got)
	}

	// "toxic" appears twice, "manipulative" once; trends are sorted by count.
	if len(overview.KeywordTrends) != 2 {
		t.Fatalf("want 2 keyword trends, got %d", len(overview.KeywordTrends))
	}
	if overview.KeywordTrends[0].Term != "toxic" || overview.KeywordTrends[0].Count != 2 {
		t.Errorf("top trend must be toxic x2, got %+v", overview.KeywordTrends[0])
	}

	// Decided items: 10, 20 and 30 minutes -> average 20 minutes.
	wantAvg := (20 * time.Minute).Seconds()
	if overview.AvgTimeToDecisionSecs != wantAvg {
		t.Errorf("want avg %.0fs, got %.0fs", wantAvg, overview.AvgTimeToDecisionSecs)
	}
}

func TestOverview_WindowFilters(t *testing.T) {
	svc := NewService(seedStore(t), newTestLogger())

	overview, err := svc.Overview(context.Background(), 1)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	total := 0
	for _, n := range overview.RiskDistribution {
		total += n
	}
	if total != 3 {
		t.Errorf("1-day window must hold 3 assessments, got %d", total)
	}
}

func TestTimeline(t *testing.T) {
	svc := NewService(seedStore(t), newTestLogger())

	timeline, err := svc.Timeline(context.Background(), 30)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if len(timeline) == 0 {
		t.Fatalf("expected timeline points")
	}

	for i := 1; i < len(timeline); i++ {
		if timeline[i-1].Date > timeline[i].Date {
			t.Errorf("timeline must be date-sorted: %s before %s", timeline[i-1].Date, timeline[i].Date)
		}
	}

	totalAssessments := 0
	totalCritical := 0
	for _, p := range timeline {
		totalAssessments += p.Assessments
		totalCritical += p.Critical
	}
	if totalAssessments != 4 {
		t.Errorf("want 4 assessments across the timeline, got %d", totalAssessments)
	}
	if totalCritical != 1 {
		t.Errorf("want 1 critical across the timeline, got %d", totalCritical)
	}
}

func TestModeratorPerformance(t *testing.T) {
	svc := NewService(seedStore(t), newTestLogger())

	stats, err := svc.ModeratorPerformance(context.Background(), 30)
	if err != nil {
		t.Fatalf("moderator performance failed: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("want 2 moderators, got %d", len(stats))
	}
	// Sorted by moderator id.
	if stats[0].ModeratorID != "mod-a" || stats[1].ModeratorID != "mod-b" {
		t.Errorf("unexpected moderator order: %+v", stats)
	}
	if stats[0].Decided != 2 {
		t.Errorf("mod-a decided 2, got %d", stats[0].Decided)
	}
	// mod-a: 10 and 20 minutes -> 15 minutes average.
	if want := (15 * time.Minute).Seconds(); stats[0].AvgTimeToDecisionSecs != want {
		t.Errorf("mod-a avg: want %.0fs, got %.0fs", want, stats[0].AvgTimeToDecisionSecs)
	}
}

func TestExport_CSV(t *testing.T) {
	svc := NewService(seedStore(t), newTestLogger())

	export, err := svc.Export(context.Background(), 30)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(export.Assessments) != 4 {
		t.Errorf("want 4 assessments in export, got %d", len(export.Assessments))
	}
	if len(export.QueueItems) != 4 {
		t.Errorf("want 4 queue items in export, got %d", len(export.QueueItems))
	}
	if len(export.AuditLogs) == 0 {
		t.Errorf("export must include audit entries")
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf); err != nil {
		t.Fatalf("csv write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 { // header + 4 rows
		t.Errorf("want 5 csv lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,subject_id,stage,score") {
		t.Errorf("unexpected csv header: %s", lines[0])
	}
}
