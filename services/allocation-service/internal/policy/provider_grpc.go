//go:build protogen

package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/jhofmeer/crewtrack/libs/grpcx"
	masterdatav1 "github.com/jhofmeer/crewtrack/protos/gen/masterdata/v1"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/schedule"
)

type grpcProvider struct {
	client   masterdatav1.MasterdataServiceClient
	fallback schedule.WorkingWindow
}

func NewSitePolicyProvider(logger *slog.Logger, fallback schedule.WorkingWindow, addr string) (Provider, error) {
	if addr == "" {
		return NewStaticProvider(fallback), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("grpc policy provider unavailable, using fallback", "err", err)
		return NewStaticProvider(fallback), nil
	}

	logger.Info("grpc policy provider enabled", "addr", addr)
	return &grpcProvider{client: masterdatav1.NewMasterdataServiceClient(conn), fallback: fallback}, nil
}

func (p *grpcProvider) WorkingWindow(ctx context.Context, siteID string) (schedule.WorkingWindow, error) {
	resp, err := p.client.GetSiteSchedule(ctx, &masterdatav1.SiteScheduleRequest{SiteId: siteID})
	if err != nil {
		return schedule.WorkingWindow{}, err
	}
	start := int(resp.GetWorkdayStartMinute())
	end := int(resp.GetWorkdayEndMinute())
	if start <= 0 && end <= 0 {
		return p.fallback, nil
	}
	return schedule.WorkingWindow{StartMinute: start, EndMinute: end}, nil
}
