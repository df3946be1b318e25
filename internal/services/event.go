package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetingscheduler/internal/clock"
	"meetingscheduler/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	stats          domain.StatisticsService
	emailService   domain.EmailService
	clock          clock.Clock
	logger         *slog.Logger
	locks          *keyedLocker
	contextTimeout time.Duration
}

// NewEventService returns the EventService. Mutations on one event are serialized in
// process; stats and emailService may be nil.
func NewEventService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	stats domain.StatisticsService,
	emailService domain.EmailService,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		stats:          stats,
		emailService:   emailService,
		clock:          clk,
		logger:         logger,
		locks:          newKeyedLocker(),
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, administratorID, title, description, location string, keys []domain.OptionKey) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title = strings.TrimSpace(title)
	if administratorID == "" {
		return nil, fmt.Errorf("%w: event administrator is required", domain.ErrInvalidInput)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: at least one option is required", domain.ErrInvalidInput)
	}

	event := domain.NewEvent(title, strings.TrimSpace(description), strings.TrimSpace(location), administratorID, keys)
	now := s.clock.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.record(ctx, domain.ActivityEventCreated)
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.load(ctx, eventID)
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListByGuest(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events by guest: %w", err)
	}
	return events, total, nil
}

func (s *eventService) AddOption(ctx context.Context, eventID, userID string, key domain.OptionKey) (*domain.Event, error) {
	return s.mutate(ctx, eventID, func(event *domain.Event) error {
		if event.IsClosed() {
			return domain.ErrEventClosed
		}
		if !event.IsAdministrator(userID) {
			return domain.ErrNotAdministrator
		}
		if event.HasOption(key) {
			return domain.ErrOptionAlreadyExists
		}
		return event.AddOption(domain.NewOption(key))
	})
}

func (s *eventService) RemoveOption(ctx context.Context, eventID, userID string, key domain.OptionKey) (*domain.Event, error) {
	return s.mutate(ctx, eventID, func(event *domain.Event) error {
		return event.RemoveOption(key, userID)
	})
}

// AddGuest enrolls guestID, or the caller when guestID is empty. Only the administrator
// may enroll somebody else.
func (s *eventService) AddGuest(ctx context.Context, eventID, callerID, guestID string) (*domain.Event, error) {
	if guestID == "" {
		guestID = callerID
	}
	return s.mutate(ctx, eventID, func(event *domain.Event) error {
		if event.IsClosed() {
			return domain.ErrEventClosed
		}
		if guestID != callerID && !event.IsAdministrator(callerID) {
			return domain.ErrNotAdministrator
		}
		if guestID != callerID {
			if _, err := s.userRepo.GetByID(ctx, guestID); err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrUserNotFound
				}
				return fmt.Errorf("get user: %w", err)
			}
		}
		return event.AddUserToGuestList(guestID)
	})
}

func (s *eventService) Vote(ctx context.Context, eventID, userID string, key domain.OptionKey) (*domain.Event, error) {
	voted := false
	event, err := s.mutate(ctx, eventID, func(event *domain.Event) error {
		option, ok := event.Option(key)
		if !ok {
			if event.IsClosed() {
				return domain.ErrEventClosed
			}
			return domain.ErrOptionNotFound
		}
		if err := event.Vote(option, userID); err != nil {
			return err
		}
		voted = option.HasVote(userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if voted {
		s.record(ctx, domain.ActivityVoteCast)
	}
	return event, nil
}

func (s *eventService) CloseEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	event, err := s.mutate(ctx, eventID, func(event *domain.Event) error {
		return event.CloseEvent(userID)
	})
	if err != nil {
		return nil, err
	}
	s.notifyGuests(ctx, event)
	return event, nil
}

func (s *eventService) OpenEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	return s.mutate(ctx, eventID, func(event *domain.Event) error {
		return event.OpenEvent(userID)
	})
}

// mutate loads the event under its lock, applies fn and saves the result. Nothing is
// saved when fn fails.
func (s *eventService) mutate(ctx context.Context, eventID string, fn func(event *domain.Event) error) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock := s.locks.Lock(eventID)
	defer unlock()

	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := fn(event); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.clock.Now()
	if err := s.eventRepo.Save(ctx, event); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *eventService) load(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) record(ctx context.Context, kind domain.ActivityKind) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Record(ctx, kind); err != nil {
		s.logger.WarnContext(ctx, "record activity failed", "kind", kind, "err", err)
	}
}

// notifyGuests emails every guest the selected slot. Failures are logged and skipped.
func (s *eventService) notifyGuests(ctx context.Context, event *domain.Event) {
	if s.emailService == nil || event.VotedOption() == nil {
		return
	}
	winner := event.VotedOption()
	for _, guestID := range event.Guests() {
		user, err := s.userRepo.GetByID(ctx, guestID)
		if err != nil {
			s.logger.WarnContext(ctx, "notify guest: lookup failed", "event_id", event.ID, "user_id", guestID, "err", err)
			continue
		}
		data := &domain.MeetingScheduledEmailData{
			Email:      user.Email,
			Name:       user.Name,
			EventTitle: event.Title,
			Location:   event.Location,
			Date:       winner.Key().Date,
			Time:       winner.Key().Time,
			VoteCount:  winner.VoteCount(),
		}
		if err := s.emailService.SendMeetingScheduled(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "notify guest: send failed", "event_id", event.ID, "user_id", guestID, "err", err)
		}
	}
}
