// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"context"
	"time"
	"umkm-portal/models"
)

// Event describes a committed workflow transition.
type Event struct {
	ID         string             `json:"id"`
	Type       models.ResetAction `json:"type"`
	RequestID  uint               `json:"request_id"`
	UserID     uint               `json:"user_id"`
	ActorID    *uint              `json:"actor_id,omitempty"`
	Status     models.ResetStatus `json:"status,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type Publisher interface {
	PublishResetEvent(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) PublishResetEvent(context.Context, Event) error { return nil }
