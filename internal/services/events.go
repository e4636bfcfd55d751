package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Product change event types.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent announces a committed product change to other instances.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  int64     `json:"productId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher delivers serialised events. The routing key is the event type.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

func decodeProductEvent(body []byte) (ProductEvent, error) {
	var evt ProductEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return evt, fmt.Errorf("failed to decode product event: %w", err)
	}
	switch evt.Type {
	case EventProductCreated, EventProductUpdated, EventProductDeleted:
	default:
		return evt, fmt.Errorf("unknown product event type %q", evt.Type)
	}
	if evt.ProductID <= 0 {
		return evt, fmt.Errorf("product event %s carries invalid id %d", evt.Type, evt.ProductID)
	}
	return evt, nil
}
