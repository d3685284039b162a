package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tranvk/fanarena/internal/domain"
)

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	PointsAwarded struct {
		UserID      string `json:"user_id"`
		Source      string `json:"source"`
		Points      int64  `json:"points"`
		TotalPoints int64  `json:"total_points"`
	}

	BadgeGranted struct {
		UserID string `json:"user_id"`
		Badge  string `json:"badge"`
	}
)

// PublishPointsAwarded notifies the affected user that their balance
// changed. Delivery is best effort; a missed notification never blocks or
// reverts the award itself.
func (a *API) PublishPointsAwarded(ctx context.Context, e domain.EventPointsAwarded) error {
	data := PointsAwarded{
		UserID:      e.Award.UserID,
		Source:      string(e.Award.Source),
		Points:      e.Award.Points,
		TotalPoints: e.TotalPoints,
	}

	return a.publishNotification(ctx, data.UserID, e.Name(), data)
}

func (a *API) PublishBadgeGranted(ctx context.Context, e domain.EventBadgeGranted) error {
	data := BadgeGranted{
		UserID: e.UserID,
		Badge:  e.Badge,
	}

	return a.publishNotification(ctx, data.UserID, e.Name(), data)
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:user:%s", a.prefix, user), b).Err()
}
