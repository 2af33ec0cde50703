package database

import (
	"context"
	"database/sql"
	"errors"

	"foodmap-video-importer/internal/models"
	errs "foodmap-video-importer/pkg/errors"
)

// CreateSuggestion inserts a new pending suggestion.
func (db *DB) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO suggestions (id, source_url, submitter_name, status, logs, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', NOW(), NOW())`,
		s.ID, s.SourceURL, s.SubmitterName, string(s.Status))
	if err != nil {
		return errs.NewDB("database.CreateSuggestion", "insert failed", err)
	}
	return nil
}

// GetSuggestion returns nil when the id is unknown.
func (db *DB) GetSuggestion(ctx context.Context, id string) (*models.Suggestion, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	s := &models.Suggestion{}
	var resultID sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, source_url, submitter_name, status, result_collection_id, logs, created_at, updated_at
		FROM suggestions WHERE id = ?`, id).
		Scan(&s.ID, &s.SourceURL, &s.SubmitterName, (*string)(&s.Status), &resultID, &s.Logs, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.NewDB("database.GetSuggestion", "select failed", err)
	}
	if resultID.Valid {
		s.ResultCollectionID = &resultID.Int64
	}
	return s, nil
}

// ListSuggestions returns the most recent suggestions, newest first.
func (db *DB) ListSuggestions(ctx context.Context, limit int) ([]models.Suggestion, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source_url, submitter_name, status, result_collection_id, logs, created_at, updated_at
		FROM suggestions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errs.NewDB("database.ListSuggestions", "select failed", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var s models.Suggestion
		var resultID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.SourceURL, &s.SubmitterName, (*string)(&s.Status),
			&resultID, &s.Logs, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errs.NewDB("database.ListSuggestions", "scan failed", err)
		}
		if resultID.Valid {
			s.ResultCollectionID = &resultID.Int64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSuggestionStatus moves a suggestion to a new status, optionally
// clearing prior logs (reprocess path).
func (db *DB) UpdateSuggestionStatus(ctx context.Context, id string, status models.SuggestionStatus, clearLogs bool) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	query := `UPDATE suggestions SET status = ?, updated_at = NOW() WHERE id = ?`
	if clearLogs {
		query = `UPDATE suggestions SET status = ?, logs = '', result_collection_id = NULL, updated_at = NOW() WHERE id = ?`
	}
	res, err := db.conn.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return errs.NewDB("database.UpdateSuggestionStatus", "update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NewDB("database.UpdateSuggestionStatus", "suggestion not found", nil)
	}
	return nil
}

// FinishSuggestion lands a run on completed/failed, overwriting prior
// result and logs.
func (db *DB) FinishSuggestion(ctx context.Context, id string, status models.SuggestionStatus, resultCollectionID *int64, logs string) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	var result sql.NullInt64
	if resultCollectionID != nil {
		result = sql.NullInt64{Int64: *resultCollectionID, Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `
		UPDATE suggestions SET status = ?, result_collection_id = ?, logs = ?, updated_at = NOW()
		WHERE id = ?`, string(status), result, logs, id)
	if err != nil {
		return errs.NewDB("database.FinishSuggestion", "update failed", err)
	}
	return nil
}
