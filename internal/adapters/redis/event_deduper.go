package redis

// Package redis provides Redis-based adapters for the yoohoo service.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultEventPrefix namespaces webhook event keys.
const DefaultEventPrefix = "webhook:event:"

// EventDeduper records delivered webhook event ids with SETNX so redeliveries
// are detected across instances. Keys expire after the supplied TTL.
type EventDeduper struct {
	client redis.UniversalClient
	prefix string
}

// NewEventDeduper creates a deduper with the default key prefix.
func NewEventDeduper(client redis.UniversalClient) *EventDeduper {
	return NewEventDeduperWithPrefix(client, DefaultEventPrefix)
}

// NewEventDeduperWithPrefix creates a deduper with a custom key prefix.
func NewEventDeduperWithPrefix(client redis.UniversalClient, prefix string) *EventDeduper {
	return &EventDeduper{client: client, prefix: prefix}
}

// FirstSeen reports whether id has not been recorded within ttl, recording it.
func (d *EventDeduper) FirstSeen(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if id == "" {
		return false, errors.New("event id cannot be empty")
	}
	if ttl <= 0 {
		return false, errors.New("ttl must be positive")
	}
	ok, err := d.client.SetNX(ctx, d.prefix+id, time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", id, err)
	}
	return ok, nil
}

// Forget removes a recorded id so the event can be processed again.
func (d *EventDeduper) Forget(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return d.client.Del(ctx, d.prefix+id).Err()
}
