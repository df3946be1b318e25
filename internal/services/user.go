package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetingscheduler/internal/clock"
	"meetingscheduler/internal/domain"
)

type userService struct {
	userRepo domain.UserRepository
	clock    clock.Clock
}

// NewUserService creates the user directory service.
func NewUserService(userRepo domain.UserRepository, clk clock.Clock) domain.UserService {
	return &userService{
		userRepo: userRepo,
		clock:    clk,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) Update(ctx context.Context, id string, changes domain.UserUpdate) (*domain.User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user := *current
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		user.Name = name
	}
	if changes.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*changes.Email))
		if !emailRegexp.MatchString(email) {
			return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
		}
		user.Email = email
	}
	user.UpdatedAt = s.clock.Now()
	if err := s.userRepo.Update(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}
