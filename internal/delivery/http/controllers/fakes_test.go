package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"meetingscheduler/internal/delivery/http/helpers"
	"meetingscheduler/internal/delivery/http/middleware"
	"meetingscheduler/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID = "6f1c2a57-3d9e-4b8a-9a41-2f0d5c7e8b10"
	adminID     = "0b6f3c1e-8d52-4e7a-b1c9-5a2d7e4f6a01"
	guestID     = "9c4e1b7a-2f63-4d85-a0b2-7e3c5d1f9b02"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err    error
	event  *domain.Event
	events []*domain.Event
	total  int

	lastMethod   string
	lastEventID  string
	lastUserID   string
	lastGuestID  string
	lastKey      domain.OptionKey
	lastKeys     []domain.OptionKey
	lastTitle    string
	lastLocation string
	lastParams   domain.PaginationParams
}

func (f *fakeEventService) result(method, eventID, userID string) (*domain.Event, error) {
	f.lastMethod = method
	f.lastEventID = eventID
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) CreateEvent(_ context.Context, administratorID, title, _, location string, keys []domain.OptionKey) (*domain.Event, error) {
	f.lastTitle = title
	f.lastLocation = location
	f.lastKeys = keys
	return f.result("CreateEvent", "", administratorID)
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID string) (*domain.Event, error) {
	return f.result("GetEvent", eventID, "")
}

func (f *fakeEventService) ListEvents(_ context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastMethod = "ListEvents"
	f.lastParams = params
	return f.events, f.total, f.err
}

func (f *fakeEventService) ListMyEvents(_ context.Context, userID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastMethod = "ListMyEvents"
	f.lastUserID = userID
	f.lastParams = params
	return f.events, f.total, f.err
}

func (f *fakeEventService) AddOption(_ context.Context, eventID, userID string, key domain.OptionKey) (*domain.Event, error) {
	f.lastKey = key
	return f.result("AddOption", eventID, userID)
}

func (f *fakeEventService) RemoveOption(_ context.Context, eventID, userID string, key domain.OptionKey) (*domain.Event, error) {
	f.lastKey = key
	return f.result("RemoveOption", eventID, userID)
}

func (f *fakeEventService) AddGuest(_ context.Context, eventID, callerID, guestID string) (*domain.Event, error) {
	f.lastGuestID = guestID
	return f.result("AddGuest", eventID, callerID)
}

func (f *fakeEventService) Vote(_ context.Context, eventID, userID string, key domain.OptionKey) (*domain.Event, error) {
	f.lastKey = key
	return f.result("Vote", eventID, userID)
}

func (f *fakeEventService) CloseEvent(_ context.Context, eventID, userID string) (*domain.Event, error) {
	return f.result("CloseEvent", eventID, userID)
}

func (f *fakeEventService) OpenEvent(_ context.Context, eventID, userID string) (*domain.Event, error) {
	return f.result("OpenEvent", eventID, userID)
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	user  *domain.User
	token string
	err   error

	lastEmail    string
	lastPassword string
	lastName     string
	lastID       string
}

func (f *fakeAuthService) SignUp(_ context.Context, email, password, name string) (*domain.User, error) {
	f.lastEmail, f.lastPassword, f.lastName = email, password, name
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.user, nil
}

func (f *fakeAuthService) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	user  *domain.User
	users []*domain.User
	total int
	err   error

	lastMethod  string
	lastID      string
	lastParams  domain.PaginationParams
	lastChanges domain.UserUpdate
}

func (f *fakeUserService) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.lastMethod, f.lastID = "GetByID", id
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserService) List(_ context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	f.lastMethod, f.lastParams = "List", params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.users, f.total, nil
}

func (f *fakeUserService) Update(_ context.Context, id string, changes domain.UserUpdate) (*domain.User, error) {
	f.lastMethod, f.lastID, f.lastChanges = "Update", id, changes
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

// fakeStatisticsService implements domain.StatisticsService for handler tests.
type fakeStatisticsService struct {
	stats *domain.Statistics
	err   error
}

func (f *fakeStatisticsService) Record(context.Context, domain.ActivityKind) error { return nil }

func (f *fakeStatisticsService) GetStatistics(context.Context) (*domain.Statistics, error) {
	return f.stats, f.err
}

func mustKey(t *testing.T, date, clock string) domain.OptionKey {
	t.Helper()
	key, err := domain.NewOptionKey(date, clock)
	require.NoError(t, err)
	return key
}

func sampleEvent(t *testing.T) *domain.Event {
	t.Helper()
	event := domain.NewEvent("Team sync", "", "Room 1", adminID, []domain.OptionKey{
		mustKey(t, "2023-04-05", "10:00"),
		mustKey(t, "2023-04-05", "11:00"),
	})
	event.ID = testEventID
	return event
}

// request builds a request with path values and, when userID is set, an authenticated context.
func request(method, target, body, userID string, pathValues map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

// envelope decodes the response into an APIResponse whose data is left raw.
type envelope struct {
	Data  json.RawMessage   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}
