//go:build !protogen

package policy

import (
	"log/slog"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/schedule"
)

func NewSitePolicyProvider(_ *slog.Logger, fallback schedule.WorkingWindow, _ string) (Provider, error) {
	return NewStaticProvider(fallback), nil
}
