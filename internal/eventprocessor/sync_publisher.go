// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/metrics"
	"github.com/tomtom215/eventsync/internal/models"
)

// SyncEventPublisher implements sync.EventPublisher on top of a Publisher.
type SyncEventPublisher struct {
	publisher *Publisher
	topic     string
}

// NewSyncEventPublisher creates a publisher for sync manager integration.
func NewSyncEventPublisher(pub *Publisher, topic string) (*SyncEventPublisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic required", ErrInvalidConfig)
	}
	return &SyncEventPublisher{publisher: pub, topic: topic}, nil
}

// PublishEventSynced publishes the EventSynced notification for e.
func (p *SyncEventPublisher) PublishEventSynced(ctx context.Context, e *models.Event, outcome models.Outcome) error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}

	data, err := SerializeEvent(NewEventSynced(e, outcome))
	if err != nil {
		metrics.RecordPublish(err)
		return err
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("source", e.Source)
	msg.Metadata.Set("outcome", string(outcome))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	err = p.publisher.Publish(ctx, p.topic, msg)
	metrics.RecordPublish(err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Slug, err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *SyncEventPublisher) Close() error {
	return p.publisher.Close()
}
