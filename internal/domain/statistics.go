package domain

import (
	"context"
	"time"
)

// ActivityKind names an externally observed operation counted by statistics.
type ActivityKind string

const (
	ActivityEventCreated ActivityKind = "event_created"
	ActivityVoteCast     ActivityKind = "vote_cast"
)

// Statistics counts activity inside the window [From, To].
// swagger:model Statistics
type Statistics struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	EventsCreated int       `json:"events_created"`
	VotesCast     int       `json:"votes_cast"`
}

// ActivityRepository stores activity timestamps for the rolling statistics window.
type ActivityRepository interface {
	Record(ctx context.Context, kind ActivityKind, at time.Time) error
	CountSince(ctx context.Context, kind ActivityKind, since time.Time) (int, error)
}

// StatisticsService records activity and reports counts over the configured window.
type StatisticsService interface {
	Record(ctx context.Context, kind ActivityKind) error
	GetStatistics(ctx context.Context) (*Statistics, error)
}

// RequestCounter counts requests per key in fixed windows (rate limiting).
type RequestCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
