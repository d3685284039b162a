package domain

const (
	EventNamePointsAwarded = "points.awarded"
	EventNameBadgeGranted  = "badge.granted"
)

type EventPointsAwarded struct {
	Award       PointAward
	TotalPoints int64
}

func (EventPointsAwarded) Name() string { return EventNamePointsAwarded }

type EventBadgeGranted struct {
	UserID string
	Badge  string
}

func (EventBadgeGranted) Name() string { return EventNameBadgeGranted }
