package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, logline, description, format, budget, contact_name, contact_email, status,
       overall_score, breakdown, recommendations, reviewer_note, reviewed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreatePending inserts a record with status pending and no result.
func (r *PGRepo) CreatePending(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO analyses (id, logline, description, format, budget, contact_name, contact_email, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $8)`

	var contactName, contactEmail sql.NullString
	if rec.Contact != nil {
		contactName = sql.NullString{String: rec.Contact.Name, Valid: true}
		contactEmail = sql.NullString{String: rec.Contact.Email, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.Logline,
		rec.Description,
		rec.Format,
		rec.Budget,
		contactName,
		contactEmail,
		rec.CreatedAt,
	)
	return err
}

// AttachBasicResult stores the score and moves a pending record to scored.
func (r *PGRepo) AttachBasicResult(ctx context.Context, analysisID string, result BasicResult) error {
	if !validID(analysisID) {
		return ErrNotFound
	}
	const query = `
UPDATE analyses
SET overall_score = $1,
    breakdown = $2::jsonb,
    recommendations = $3::jsonb,
    status = CASE WHEN status = 'pending' THEN 'scored' ELSE status END,
    updated_at = now()
WHERE id = $4::uuid`

	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return err
	}
	recs := result.Recommendations
	if recs == nil {
		recs = []string{}
	}
	recommendations, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, result.OverallScore, string(breakdown), string(recommendations), analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a record by ID. Malformed IDs are reported as not found.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Record, error) {
	if !validID(analysisID) {
		return Record{}, ErrNotFound
	}
	query := `SELECT ` + recordColumns + ` FROM analyses WHERE id = $1::uuid LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, analysisID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByStatus lists records newest first. An empty status matches every record.
func (r *PGRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Record, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + recordColumns + `
FROM analyses
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkReviewed sets the reviewer note on a scored record.
func (r *PGRepo) MarkReviewed(ctx context.Context, analysisID, note string) (Record, error) {
	if !validID(analysisID) {
		return Record{}, ErrNotFound
	}
	query := `
UPDATE analyses
SET status = 'reviewed',
    reviewer_note = $1,
    reviewed_at = now(),
    updated_at = now()
WHERE id = $2::uuid AND overall_score IS NOT NULL
RETURNING ` + recordColumns

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, note, analysisID))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, err
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM analyses WHERE id = $1::uuid)`, analysisID).Scan(&exists); err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, ErrNotScored
	}
	return Record{}, ErrNotFound
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var contactName, contactEmail sql.NullString
	var overall sql.NullInt64
	var breakdown, recommendations []byte
	var reviewedAt sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.Logline,
		&rec.Description,
		&rec.Format,
		&rec.Budget,
		&contactName,
		&contactEmail,
		&rec.Status,
		&overall,
		&breakdown,
		&recommendations,
		&rec.ReviewerNote,
		&reviewedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if contactName.Valid || contactEmail.Valid {
		rec.Contact = &ContactInfo{Name: contactName.String, Email: contactEmail.String}
	}
	if overall.Valid {
		res := &BasicResult{OverallScore: int(overall.Int64)}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &res.Breakdown); err != nil {
				return Record{}, err
			}
		}
		if len(recommendations) > 0 {
			if err := json.Unmarshal(recommendations, &res.Recommendations); err != nil {
				return Record{}, err
			}
		}
		rec.BasicResult = res
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		rec.ReviewedAt = &t
	}
	return rec, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
