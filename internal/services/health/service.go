package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB             Pinger
	CatalogVersion string
	Timeout        time.Duration
}

// NewService constructs a new health service. db may be nil when the process
// runs on in-memory storage.
func NewService(db Pinger, catalogVersion string) *Service {
	return &Service{DB: db, CatalogVersion: catalogVersion, Timeout: 2 * time.Second}
}

// Status reports liveness plus the state of the backing store.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true, "storage": "memory"}
	if s == nil {
		return out, true
	}
	if s.CatalogVersion != "" {
		out["catalogVersion"] = s.CatalogVersion
	}
	if s.DB == nil {
		return out, true
	}
	out["storage"] = "sql"
	pingCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		out["ok"] = false
		out["error"] = "database unreachable"
		return out, false
	}
	return out, true
}
