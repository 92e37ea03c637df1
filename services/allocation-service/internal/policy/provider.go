package policy

import (
	"context"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/schedule"
)

// Provider resolves the working window used to bound slot suggestions. The
// window can differ per site (night shifts, weekend crews), so it is looked up
// per request rather than fixed at startup.
type Provider interface {
	WorkingWindow(ctx context.Context, siteID string) (schedule.WorkingWindow, error)
}

type staticProvider struct {
	window schedule.WorkingWindow
}

func NewStaticProvider(window schedule.WorkingWindow) Provider {
	return &staticProvider{window: window}
}

func (p *staticProvider) WorkingWindow(_ context.Context, _ string) (schedule.WorkingWindow, error) {
	return p.window, nil
}
