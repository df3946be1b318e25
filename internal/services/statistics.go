package services

import (
	"context"
	"fmt"
	"time"

	"meetingscheduler/internal/clock"
	"meetingscheduler/internal/domain"
)

type statisticsService struct {
	activityRepo domain.ActivityRepository
	clock        clock.Clock
	window       time.Duration
}

// NewStatisticsService counts activity over a rolling window ending now.
func NewStatisticsService(activityRepo domain.ActivityRepository, clk clock.Clock, window time.Duration) domain.StatisticsService {
	return &statisticsService{
		activityRepo: activityRepo,
		clock:        clk,
		window:       window,
	}
}

func (s *statisticsService) Record(ctx context.Context, kind domain.ActivityKind) error {
	if err := s.activityRepo.Record(ctx, kind, s.clock.Now()); err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

func (s *statisticsService) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	to := s.clock.Now()
	from := to.Add(-s.window)

	events, err := s.activityRepo.CountSince(ctx, domain.ActivityEventCreated, from)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	votes, err := s.activityRepo.CountSince(ctx, domain.ActivityVoteCast, from)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	return &domain.Statistics{
		From:          from,
		To:            to,
		EventsCreated: events,
		VotesCast:     votes,
	}, nil
}
