package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/server/respond"
	"filmdecks-backend/internal/shared/storage/db"
	"filmdecks-backend/internal/shared/telemetry"
)

const (
	DatabaseConnected     = "connected"
	DatabaseUnreachable   = "unreachable"
	DatabaseNotConfigured = "memory"
)

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB
	PingTimeout time.Duration
}

// NewService constructs a new health service. database may be nil when the
// process runs on in-memory repositories.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database, PingTimeout: 2 * time.Second}
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
}

// Check pings the database when one is configured.
func (s *Service) Check(ctx context.Context) Status {
	if s.DB == nil {
		return Status{OK: true, Database: DatabaseNotConfigured}
	}
	if err := db.Ping(ctx, s.DB, s.PingTimeout); err != nil {
		telemetry.Warn("health.db_ping_failed", map[string]any{"error": err})
		return Status{OK: false, Database: DatabaseUnreachable}
	}
	return Status{OK: true, Database: DatabaseConnected}
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		st := s.Check(c.Request.Context())
		code := http.StatusOK
		if !st.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, st)
	})
}
