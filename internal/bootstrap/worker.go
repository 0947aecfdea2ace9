package bootstrap

import (
	"context"
	"database/sql"

	"filmdecks-backend/internal/analyses"
	"filmdecks-backend/internal/leads"
	"filmdecks-backend/internal/shared/config"
	"filmdecks-backend/internal/shared/storage/db"
)

// Enricher is what the queue worker needs: the analyses service and its database.
type Enricher struct {
	Service *analyses.Service
	DB      *sql.DB
}

// BuildEnricher wires the analyses service for the worker. It never enqueues;
// a failed enrichment is retried through queue redelivery instead.
func BuildEnricher(ctx context.Context, cfg config.Config) (*Enricher, error) {
	sqlDB, err := buildDB(ctx, cfg, db.DefaultWorkerOptions())
	if err != nil {
		return nil, err
	}
	provider, err := BuildProvider(cfg)
	if err != nil {
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, err
	}

	var repo analyses.Repo = analyses.NewMemoryRepo()
	var leadsRepo leads.Repo = leads.NewMemoryRepo()
	if sqlDB != nil {
		repo = &analyses.PGRepo{DB: sqlDB}
		leadsRepo = &leads.PGRepo{DB: sqlDB}
	}
	svc := analyses.NewService(repo, provider, nil)
	// scores found by the worker also land on the leads linked to the record
	svc.Listener = leads.NewService(leadsRepo, nil)
	return &Enricher{
		Service: svc,
		DB:      sqlDB,
	}, nil
}

// Close releases the database handle, if any.
func (e *Enricher) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}
