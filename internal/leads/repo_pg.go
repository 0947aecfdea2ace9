package leads

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

const leadColumns = `id, name, email, phone, timeline, personal_meaning, project_for, format, materials, excited_parts,
       involvement, start_timing, budget, budget_category, logline, description, want_consult, analysis_id,
       overall_score, originality_score, emotional_score, commercial_score, format_score, clarity_score,
       lead_score, status, utm_source, utm_medium, utm_campaign, referrer, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a lead.
func (r *PGRepo) Create(ctx context.Context, lead Lead) error {
	const query = `
INSERT INTO leads (
	id, name, email, phone, timeline, personal_meaning, project_for, format, materials, excited_parts,
	involvement, start_timing, budget, budget_category, logline, description, want_consult,
	lead_score, status, utm_source, utm_medium, utm_campaign, referrer, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15, $16, $17,
        $18, $19, $20, $21, $22, $23, $24, $24)`

	personalMeaning, err := marshalList(lead.PersonalMeaning)
	if err != nil {
		return err
	}
	materials, err := marshalList(lead.Materials)
	if err != nil {
		return err
	}
	excited, err := marshalList(lead.ExcitedParts)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Timeline,
		personalMeaning,
		lead.ProjectFor,
		lead.Format,
		materials,
		excited,
		lead.Involvement,
		lead.StartTiming,
		lead.Budget,
		lead.BudgetCategory,
		lead.Logline,
		lead.Description,
		lead.WantConsult,
		lead.LeadScore,
		lead.Status,
		lead.UTMSource,
		lead.UTMMedium,
		lead.UTMCampaign,
		lead.Referrer,
		lead.CreatedAt,
	)
	return err
}

// GetByID returns a lead by ID.
func (r *PGRepo) GetByID(ctx context.Context, leadID string) (Lead, error) {
	if !validID(leadID) {
		return Lead{}, ErrNotFound
	}
	lead, err := scanLead(r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1::uuid`, leadID))
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateStatus sets the pipeline status and returns the updated lead.
func (r *PGRepo) UpdateStatus(ctx context.Context, leadID, status string) (Lead, error) {
	if !validID(leadID) {
		return Lead{}, ErrNotFound
	}
	query := `
UPDATE leads
SET status = $1,
    updated_at = now()
WHERE id = $2::uuid
RETURNING ` + leadColumns

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, status, leadID))
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// AttachAnalysis links the analysis and copies its scores when present.
func (r *PGRepo) AttachAnalysis(ctx context.Context, leadID, analysisID string, scores *StoryScores) error {
	if !validID(leadID) {
		return ErrNotFound
	}
	const query = `
UPDATE leads
SET analysis_id = $1::uuid,
    overall_score = COALESCE($2, overall_score),
    originality_score = COALESCE($3, originality_score),
    emotional_score = COALESCE($4, emotional_score),
    commercial_score = COALESCE($5, commercial_score),
    format_score = COALESCE($6, format_score),
    clarity_score = COALESCE($7, clarity_score),
    updated_at = now()
WHERE id = $8::uuid`

	var overall, originality, emotional, commercial, format, clarity sql.NullInt64
	if scores != nil {
		overall = sql.NullInt64{Int64: int64(scores.Overall), Valid: true}
		originality = sql.NullInt64{Int64: int64(scores.Originality), Valid: true}
		emotional = sql.NullInt64{Int64: int64(scores.Emotional), Valid: true}
		commercial = sql.NullInt64{Int64: int64(scores.Commercial), Valid: true}
		format = sql.NullInt64{Int64: int64(scores.Format), Valid: true}
		clarity = sql.NullInt64{Int64: int64(scores.Clarity), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query, analysisID, overall, originality, emotional, commercial, format, clarity, leadID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachScoresByAnalysis copies scores onto every lead linked to analysisID.
func (r *PGRepo) AttachScoresByAnalysis(ctx context.Context, analysisID string, scores StoryScores) (int, error) {
	if !validID(analysisID) {
		return 0, nil
	}
	const query = `
UPDATE leads
SET overall_score = $1,
    originality_score = $2,
    emotional_score = $3,
    commercial_score = $4,
    format_score = $5,
    clarity_score = $6,
    updated_at = now()
WHERE analysis_id = $7::uuid`

	res, err := r.DB.ExecContext(ctx, query,
		scores.Overall, scores.Originality, scores.Emotional, scores.Commercial, scores.Format, scores.Clarity,
		analysisID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// List returns leads newest first. An empty status matches every lead.
func (r *PGRepo) List(ctx context.Context, status string, limit, offset int) ([]Lead, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + leadColumns + `
FROM leads
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	var personalMeaning, materials, excited []byte
	var analysisID sql.NullString
	var overall, originality, emotional, commercial, format, clarity sql.NullInt64
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Timeline,
		&personalMeaning,
		&l.ProjectFor,
		&l.Format,
		&materials,
		&excited,
		&l.Involvement,
		&l.StartTiming,
		&l.Budget,
		&l.BudgetCategory,
		&l.Logline,
		&l.Description,
		&l.WantConsult,
		&analysisID,
		&overall,
		&originality,
		&emotional,
		&commercial,
		&format,
		&clarity,
		&l.LeadScore,
		&l.Status,
		&l.UTMSource,
		&l.UTMMedium,
		&l.UTMCampaign,
		&l.Referrer,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{
		{personalMeaning, &l.PersonalMeaning},
		{materials, &l.Materials},
		{excited, &l.ExcitedParts},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return Lead{}, err
		}
	}
	if analysisID.Valid {
		l.AnalysisID = analysisID.String
	}
	if overall.Valid {
		l.Scores = &StoryScores{
			Overall:     int(overall.Int64),
			Originality: int(originality.Int64),
			Emotional:   int(emotional.Int64),
			Commercial:  int(commercial.Int64),
			Format:      int(format.Int64),
			Clarity:     int(clarity.Int64),
		}
	}
	return l, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
