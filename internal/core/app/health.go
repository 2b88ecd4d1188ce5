package app

import (
	"context"

	"radar/internal/shared/observability"
)

// Health reports whether a usable analysis is loaded.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := observability.HealthStatus{Status: "up"}
	if a.current == nil {
		status.Status = "degraded"
	} else {
		status.Metafile = a.current.Source
		status.Entry = a.current.Entry
		status.LastAnalysis = a.lastLoadedAt
	}
	if a.lastErr != nil {
		status.Status = "degraded"
		status.Error = a.lastErr.Error()
	}
	return status
}
