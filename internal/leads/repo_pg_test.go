package leads

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const testID = "0b7c9a4e-2f13-4d6a-8e5b-7c1d2e3f4a5b"

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "timeline", "personal_meaning", "project_for", "format", "materials", "excited_parts",
		"involvement", "start_timing", "budget", "budget_category", "logline", "description", "want_consult", "analysis_id",
		"overall_score", "originality_score", "emotional_score", "commercial_score", "format_score", "clarity_score",
		"lead_score", "status", "utm_source", "utm_medium", "utm_campaign", "referrer", "created_at", "updated_at",
	})
}

func TestPGRepoCreateEncodesLists(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	lead := Lead{
		ID:              testID,
		Name:            "Jo",
		Email:           "jo@example.com",
		PersonalMeaning: []string{"Family"},
		Materials:       nil,
		ExcitedParts:    []string{"Cast", "Score"},
		LeadScore:       65,
		Status:          StatusContacted,
		CreatedAt:       created,
	}

	mock.ExpectExec("INSERT INTO leads").
		WithArgs(testID, "Jo", "jo@example.com", "", "", `["Family"]`, "", "", `[]`, `["Cast","Score"]`,
			"", "", "", "", "", "", false, 65, StatusContacted, "", "", "", "", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), lead); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesScores(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM leads WHERE id").
		WithArgs(testID).
		WillReturnRows(leadRows().AddRow(
			testID, "Jo", "jo@example.com", "", "Years", []byte(`["Family"]`), "Investors", "Feature Film",
			[]byte(`["Script"]`), []byte(`["Cast"]`), "Hands-on", "ASAP", "$50K+", "full", "A logline", "",
			true, "a1b2c3d4-0000-4000-8000-000000000001",
			int64(77), int64(8), int64(7), int64(6), int64(5), int64(9),
			int64(100), StatusQualified, "", "", "", "", now, now,
		))

	lead, err := repo.GetByID(context.Background(), testID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lead.Scores == nil || lead.Scores.Overall != 77 || lead.Scores.Clarity != 9 {
		t.Fatalf("unexpected scores %+v", lead.Scores)
	}
	if len(lead.Materials) != 1 || lead.Materials[0] != "Script" || !lead.WantConsult {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMalformedIDSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE leads").
		WithArgs(StatusLost, testID).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.UpdateStatus(context.Background(), testID, StatusLost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAttachAnalysisWithoutScores(t *testing.T) {
	repo, mock := newMockRepo(t)
	analysisID := "a1b2c3d4-0000-4000-8000-000000000001"
	null := sql.NullInt64{}
	mock.ExpectExec("UPDATE leads").
		WithArgs(analysisID, null, null, null, null, null, null, testID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AttachAnalysis(context.Background(), testID, analysisID, nil); err != nil {
		t.Fatalf("AttachAnalysis: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAttachScoresByAnalysis(t *testing.T) {
	repo, mock := newMockRepo(t)
	analysisID := "a1b2c3d4-0000-4000-8000-000000000001"
	mock.ExpectExec("UPDATE leads SET overall_score").
		WithArgs(88, 9, 8, 7, 6, 5, analysisID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.AttachScoresByAnalysis(context.Background(), analysisID, StoryScores{
		Overall: 88, Originality: 9, Emotional: 8, Commercial: 7, Format: 6, Clarity: 5,
	})
	if err != nil {
		t.Fatalf("AttachScoresByAnalysis: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 leads updated, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAttachScoresByAnalysisSkipsMalformedID(t *testing.T) {
	repo, mock := newMockRepo(t)
	n, err := repo.AttachScoresByAnalysis(context.Background(), "not-a-uuid", StoryScores{Overall: 50})
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListFiltersByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs(StatusNew, 200, 0).
		WillReturnRows(leadRows())

	out, err := repo.List(context.Background(), StatusNew, 1000, -5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no leads, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
