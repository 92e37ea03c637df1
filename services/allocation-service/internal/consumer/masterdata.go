package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

// Topics published by the master-data system that this service mirrors.
const (
	TopicResourceUpserted = "masterdata.resource.upserted.v1"
	TopicResourceRetired  = "masterdata.resource.retired.v1"
)

type resourceUpsertedEvent struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Active     bool   `json:"active"`
}

type resourceRetiredEvent struct {
	ResourceID string `json:"resource_id"`
}

// ResourceUpsertedHandler applies masterdata.resource.upserted.v1 to the local
// resources mirror.
func ResourceUpsertedHandler(repo *storage.ResourceRepository, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt resourceUpsertedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			return fmt.Errorf("decode resource upserted event: %w", err)
		}
		if evt.ResourceID == "" {
			logger.Warn("resource upserted event without resource_id, skipping")
			return nil
		}
		if err := repo.Upsert(ctx, model.Resource{
			ID:     evt.ResourceID,
			Name:   evt.Name,
			Kind:   evt.Kind,
			Active: evt.Active,
		}); err != nil {
			return fmt.Errorf("upsert resource %s: %w", evt.ResourceID, err)
		}
		logger.Info("resource mirrored", "resource_id", evt.ResourceID, "active", evt.Active)
		return nil
	}
}

// ResourceRetiredHandler applies masterdata.resource.retired.v1. Existing
// allocations are kept; only new allocations against the resource are blocked.
func ResourceRetiredHandler(repo *storage.ResourceRepository, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt resourceRetiredEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			return fmt.Errorf("decode resource retired event: %w", err)
		}
		if evt.ResourceID == "" {
			logger.Warn("resource retired event without resource_id, skipping")
			return nil
		}
		if err := repo.Retire(ctx, evt.ResourceID); err != nil {
			return fmt.Errorf("retire resource %s: %w", evt.ResourceID, err)
		}
		logger.Info("resource retired", "resource_id", evt.ResourceID)
		return nil
	}
}
