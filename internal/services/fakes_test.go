package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"meetingscheduler/internal/domain"
)

// testLogger discards output so tests don't assert on logs.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// cloneEvent copies an aggregate so the fake store never shares state with callers.
func cloneEvent(e *domain.Event) *domain.Event {
	opts := make([]*domain.Option, 0, len(e.Options()))
	for _, o := range e.Options() {
		opts = append(opts, domain.RestoreOption(o.Key(), o.Voters()))
	}
	var voted *domain.OptionKey
	if v := e.VotedOption(); v != nil {
		k := v.Key()
		voted = &k
	}
	return domain.RestoreEvent(e.ID, e.Title, e.Description, e.Location, e.Administrator, e.Guests(), opts, voted, e.IsClosed(), e.Version, e.CreatedAt, e.UpdatedAt)
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	saveErr   error
	saves     int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	e.Version = 1
	f.nextID++
	f.byID[e.ID] = cloneEvent(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		return cloneEvent(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) list(match func(*domain.Event) bool, params domain.PaginationParams) ([]*domain.Event, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.Event
	for _, e := range f.byID {
		if match(e) {
			all = append(all, cloneEvent(e))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if params.PageSize == 0 || end > total {
		end = total
	}
	return all[start:end], total
}

func (f *fakeEventRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	events, total := f.list(func(*domain.Event) bool { return true }, params)
	return events, total, nil
}

func (f *fakeEventRepo) ListByGuest(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	events, total := f.list(func(e *domain.Event) bool { return e.IsGuest(userID) }, params)
	return events, total, nil
}

func (f *fakeEventRepo) Save(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	stored, ok := f.byID[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != e.Version {
		return domain.ErrConflict
	}
	e.Version++
	f.byID[e.ID] = cloneEvent(e)
	f.saves++
	return nil
}

func (f *fakeEventRepo) stored(id string) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneEvent(f.byID[id])
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextID  int
	err     error
	getErrs map[string]error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1, getErrs: make(map[string]error)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.getErrs[id]; ok {
		return nil, err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, existing := range f.byID {
		if id != u.ID && existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	all := make([]*domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	start := min(params.Offset(), len(all))
	end := min(start+params.PageSize, len(all))
	return all[start:end], len(all), nil
}

// fakeStats records activity kinds in call order.
type fakeStats struct {
	mu    sync.Mutex
	kinds []domain.ActivityKind
	err   error
}

func (f *fakeStats) Record(ctx context.Context, kind domain.ActivityKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.kinds = append(f.kinds, kind)
	return nil
}

func (f *fakeStats) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	return &domain.Statistics{}, nil
}

func (f *fakeStats) count(kind domain.ActivityKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

// fakeEmailService captures sent meeting emails.
type fakeEmailService struct {
	mu      sync.Mutex
	sent    []*domain.MeetingScheduledEmailData
	failFor string
}

func (f *fakeEmailService) SendMeetingScheduled(ctx context.Context, data *domain.MeetingScheduledEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data.Email == f.failFor {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, data)
	return nil
}

// fakeActivityRepo keeps activity timestamps in memory.
type fakeActivityRepo struct {
	at  map[domain.ActivityKind][]time.Time
	err error
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{at: make(map[domain.ActivityKind][]time.Time)}
}

func (f *fakeActivityRepo) Record(ctx context.Context, kind domain.ActivityKind, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.at[kind] = append(f.at[kind], at)
	return nil
}

func (f *fakeActivityRepo) CountSince(ctx context.Context, kind domain.ActivityKind, since time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, t := range f.at[kind] {
		if !t.Before(since) {
			n++
		}
	}
	return n, nil
}
