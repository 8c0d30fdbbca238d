package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bimsrama/relasi4warna/migrations"
	"github.com/bimsrama/relasi4warna/internal/models"
)

// Postgres implements Store on a pgx connection pool. Each state transition
// and its audit entry are written in one transaction, so an audit failure
// rolls the transition back. Compare-and-swap transitions are conditional
// updates checked by affected row count, not a global lock.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// RunMigrations applies all embedded SQL migrations.
func (p *Postgres) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) SaveKeywordSet(ctx context.Context, set *models.KeywordSet) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO risk_keywords (version, id, category, language, term, weight, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, kw := range set.Keywords {
		if _, err := tx.Exec(ctx, query,
			set.Version, kw.ID, kw.Category, kw.Language, kw.Term, kw.Weight, set.PublishedAt); err != nil {
			return fmt.Errorf("failed to insert keyword %q: %w", kw.Term, err)
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) LatestKeywordSet(ctx context.Context) (*models.KeywordSet, error) {
	var version string
	err := p.pool.QueryRow(ctx,
		`SELECT version FROM risk_keywords ORDER BY published_at DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest keyword set: %w", err)
	}

	return p.GetKeywordSet(ctx, version)
}

func (p *Postgres) GetKeywordSet(ctx context.Context, version string) (*models.KeywordSet, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, category, language, term, weight, published_at
		FROM risk_keywords
		WHERE version = $1`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword set %s: %w", version, err)
	}
	defer rows.Close()

	set := models.KeywordSet{Version: version}
	for rows.Next() {
		var kw models.RiskKeyword
		if err := rows.Scan(&kw.ID, &kw.Category, &kw.Language, &kw.Term, &kw.Weight, &set.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		set.Keywords = append(set.Keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(set.Keywords) == 0 {
		return nil, ErrNotFound
	}
	return &set, nil
}

func (p *Postgres) CreateAssessment(ctx context.Context, a *models.RiskAssessment, entry *models.AuditLogEntry) error {
	matches, err := json.Marshal(a.Matches)
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	flags, err := json.Marshal(a.Flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO risk_assessments
			(id, subject_id, stage, score, level, matches, flags, blocked_pattern, keyword_set_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.SubjectID, a.Stage, a.Score, a.Level, matches, flags, a.BlockedPattern, a.KeywordSetVersion, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) GetAssessment(ctx context.Context, id string) (*models.RiskAssessment, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, subject_id, stage, score, level, matches, flags, blocked_pattern, keyword_set_version, created_at
		FROM risk_assessments WHERE id = $1`, id)

	a, err := scanAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (p *Postgres) ListAssessmentsSince(ctx context.Context, since time.Time) ([]models.RiskAssessment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, subject_id, stage, score, level, matches, flags, blocked_pattern, keyword_set_version, created_at
		FROM risk_assessments WHERE created_at >= $1 ORDER BY created_at`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var out []models.RiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (p *Postgres) CreateQueueItem(ctx context.Context, item *models.ModerationQueueItem, entry *models.AuditLogEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO moderation_queue
			(id, assessment_id, status, language, original_text, edited_text, moderator_id,
			 notes, sampled, reopened_from, escalated_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		item.ID, item.AssessmentID, item.Status, item.Language, item.OriginalText, item.EditedText,
		item.ModeratorID, item.Notes, item.Sampled, item.ReopenedFrom, item.EscalatedTo,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert queue item: %w", err)
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) GetQueueItem(ctx context.Context, id string) (*models.ModerationQueueItem, error) {
	row := p.pool.QueryRow(ctx, queueItemSelect+` WHERE id = $1`, id)
	item, err := scanQueueItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (p *Postgres) ListQueueItems(ctx context.Context, status models.QueueStatus, since time.Time) ([]models.ModerationQueueItem, error) {
	query := queueItemSelect + ` WHERE created_at >= $1`
	args := []any{since}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue items: %w", err)
	}
	defer rows.Close()

	var out []models.ModerationQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (p *Postgres) ClaimQueueItem(ctx context.Context, id, moderatorID string, entry *models.AuditLogEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE moderation_queue
		SET moderator_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending' AND moderator_id IS NULL`,
		id, moderatorID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to claim queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := p.GetQueueItem(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) DecideQueueItem(ctx context.Context, item *models.ModerationQueueItem, entry *models.AuditLogEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE moderation_queue
		SET status = $2, edited_text = $3, notes = $4, updated_at = $5
		WHERE id = $1 AND status = 'pending' AND moderator_id = $6`,
		item.ID, item.Status, item.EditedText, item.Notes, item.UpdatedAt, item.ModeratorID)
	if err != nil {
		return fmt.Errorf("failed to decide queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := p.GetQueueItem(ctx, item.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) ReopenQueueItem(ctx context.Context, originalID string, replacement *models.ModerationQueueItem, reopened, created *models.AuditLogEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE moderation_queue
		SET escalated_to = $2, updated_at = $3
		WHERE id = $1 AND status = 'escalated' AND escalated_to = ''`,
		originalID, replacement.ID, reopened.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to mark escalated item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := p.GetQueueItem(ctx, originalID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO moderation_queue
			(id, assessment_id, status, language, original_text, edited_text, moderator_id,
			 notes, sampled, reopened_from, escalated_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		replacement.ID, replacement.AssessmentID, replacement.Status, replacement.Language,
		replacement.OriginalText, replacement.EditedText, replacement.ModeratorID,
		replacement.Notes, replacement.Sampled, replacement.ReopenedFrom, replacement.EscalatedTo,
		replacement.CreatedAt, replacement.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert replacement item: %w", err)
	}

	if err := insertAudit(ctx, tx, reopened); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, created); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, queue_item_id, actor, action, before_state, after_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.QueueItemID, entry.Actor, entry.Action, entry.Before, entry.After, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (p *Postgres) ListAuditSince(ctx context.Context, since time.Time) ([]models.AuditLogEntry, error) {
	return p.listAudit(ctx, `
		SELECT id, queue_item_id, actor, action, before_state, after_state, created_at
		FROM audit_logs WHERE created_at >= $1 ORDER BY created_at`, since)
}

func (p *Postgres) ListAuditForItem(ctx context.Context, itemID string) ([]models.AuditLogEntry, error) {
	return p.listAudit(ctx, `
		SELECT id, queue_item_id, actor, action, before_state, after_state, created_at
		FROM audit_logs WHERE queue_item_id = $1 ORDER BY created_at`, itemID)
}

func (p *Postgres) listAudit(ctx context.Context, query string, arg any) ([]models.AuditLogEntry, error) {
	rows, err := p.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.QueueItemID, &e.Actor, &e.Action, &e.Before, &e.After, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

const queueItemSelect = `
	SELECT id, assessment_id, status, language, original_text, edited_text, moderator_id,
	       notes, sampled, reopened_from, escalated_to, created_at, updated_at
	FROM moderation_queue`

func insertAudit(ctx context.Context, tx pgx.Tx, entry *models.AuditLogEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_logs (id, queue_item_id, actor, action, before_state, after_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.QueueItemID, entry.Actor, entry.Action, entry.Before, entry.After, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func scanAssessment(row pgx.Row) (*models.RiskAssessment, error) {
	var a models.RiskAssessment
	var matches, flags []byte
	if err := row.Scan(&a.ID, &a.SubjectID, &a.Stage, &a.Score, &a.Level, &matches, &flags,
		&a.BlockedPattern, &a.KeywordSetVersion, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(matches, &a.Matches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
	}
	if err := json.Unmarshal(flags, &a.Flags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flags: %w", err)
	}
	return &a, nil
}

func scanQueueItem(row pgx.Row) (*models.ModerationQueueItem, error) {
	var item models.ModerationQueueItem
	if err := row.Scan(&item.ID, &item.AssessmentID, &item.Status, &item.Language,
		&item.OriginalText, &item.EditedText, &item.ModeratorID, &item.Notes, &item.Sampled,
		&item.ReopenedFrom, &item.EscalatedTo, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
