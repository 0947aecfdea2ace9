package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/analyses"
	googleauth "filmdecks-backend/internal/auth"
	"filmdecks-backend/internal/leads"
	"filmdecks-backend/internal/llm"
	"filmdecks-backend/internal/llm/openai"
	"filmdecks-backend/internal/queue"
	"filmdecks-backend/internal/services/health"
	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/config"
	"filmdecks-backend/internal/shared/server"
	"filmdecks-backend/internal/shared/server/middleware"
	"filmdecks-backend/internal/shared/storage/db"
	"filmdecks-backend/internal/shared/storage/object"
	localstore "filmdecks-backend/internal/shared/storage/object/local"
	s3store "filmdecks-backend/internal/shared/storage/object/s3"
	"filmdecks-backend/internal/shared/telemetry"
	"filmdecks-backend/internal/uploads"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	Store       object.ObjectStore
	Queue       *queue.SQSClient
	Provider    llm.Provider
	Signer      *auth.Signer
	RateLimiter *middleware.RateLimiter

	AnalysesRepo    analyses.Repo
	LeadsRepo       leads.Repo
	AnalysesService *analyses.Service
	LeadsService    *leads.Service
	UploadsService  *uploads.Service
}

// Options lets callers swap pieces that would otherwise come from the environment.
type Options struct {
	// Provider replaces the configured provider chain.
	Provider llm.Provider
	// Queue replaces the SQS client built from ANALYSIS_QUEUE_URL.
	Queue queue.Client
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(cfg, Options{})
}

// BuildWith is Build with overrides.
func BuildWith(cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, db.DefaultServerOptions())
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:      cfg,
		DB:          sqlDB,
		Store:       store,
		RateLimiter: middleware.NewRateLimiter(nil),
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = BuildProvider(cfg)
		if err != nil {
			return nil, err
		}
	}
	app.Provider = provider

	var q queue.Client
	if opts.Queue != nil {
		q = opts.Queue
	} else if strings.TrimSpace(cfg.AnalysisQueueURL) != "" {
		sqsClient, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.AnalysisQueueURL)
		if err != nil {
			return nil, err
		}
		app.Queue = sqsClient
		q = sqsClient
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}
	app.Signer = signer

	app.buildServices(q)

	creds := auth.NewPasswordChecker(cfg.AdminPasswordHash)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Tokens:      signer,
		Credentials: creds,
		RateLimiter: app.RateLimiter,
		Health:      health.NewService(sqlDB),
		Login:       googleauth.NewLoginHandler(creds, signer),
		Google: googleauth.NewGoogleService(googleauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			UIRedirect:   cfg.UIRedirectURL,
			AdminEmails:  cfg.AdminEmails,
		}, signer),
		Analyses: analyses.NewHandler(app.AnalysesService),
		Leads:    leads.NewHandler(app.LeadsService),
		Uploads:  uploads.NewHandler(app.UploadsService),
	})

	return app, nil
}

func (app *App) buildServices(q queue.Client) {
	if app.DB != nil {
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
		app.LeadsRepo = &leads.PGRepo{DB: app.DB}
	} else {
		app.AnalysesRepo = analyses.NewMemoryRepo()
		app.LeadsRepo = leads.NewMemoryRepo()
	}
	app.AnalysesService = analyses.NewService(app.AnalysesRepo, app.Provider, q)
	app.LeadsService = leads.NewService(app.LeadsRepo, app.AnalysesService)
	app.AnalysesService.Listener = app.LeadsService
	app.UploadsService = uploads.NewService(app.Store)
}

// BuildProvider assembles the ranked provider chain from AI_PROVIDERS_FILE or the defaults.
func BuildProvider(cfg config.Config) (*llm.Chain, error) {
	specs, err := llm.LoadProviderSpecs(cfg.AIProvidersFile)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.AIProviderTimeout) * time.Second
	providers := openai.FromSpecs(specs, os.Getenv, timeout)
	if len(providers) == 0 {
		telemetry.Warn("ai.no_providers", map[string]any{"file": cfg.AIProvidersFile})
	}
	chain := llm.NewChain(timeout, providers...)
	telemetry.Info("ai.providers", map[string]any{"ranked": chain.Names()})
	return chain, nil
}

// BuildDB connects to Postgres with opts. Dev-like environments fall back to
// in-memory repositories by returning a nil handle.
func BuildDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, error) {
	return buildDB(ctx, cfg, opts)
}

func buildDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts))
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// Close releases the database handle, if any.
func (app *App) Close() error {
	if app.DB == nil {
		return nil
	}
	return app.DB.Close()
}
