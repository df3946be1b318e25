package domain

import (
	"context"
	"encoding/json"
	"sort"
	"time"
)

// Event is the meeting-scheduling aggregate. It owns its options and guest list and
// enforces the open/closed state machine; mutate it only through its methods.
type Event struct {
	ID            string
	Title         string
	Description   string
	Location      string
	Administrator string
	// Version is bumped by the repository on every successful save.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	guests      map[string]struct{}
	options     map[OptionKey]*Option
	order       []OptionKey
	votedOption *Option
	closed      bool
}

// NewEvent builds an open event with the given candidate slots. Duplicate keys collapse
// into one option. The administrator is enrolled as the first guest. ID is typically
// set by the repository on create.
func NewEvent(title, description, location, administratorID string, keys []OptionKey) *Event {
	e := &Event{
		Title:         title,
		Description:   description,
		Location:      location,
		Administrator: administratorID,
		guests:        make(map[string]struct{}),
		options:       make(map[OptionKey]*Option, len(keys)),
	}
	for _, k := range keys {
		e.insertOption(NewOption(k))
	}
	// Cannot fail: a new event is open.
	_ = e.AddUserToGuestList(administratorID)
	return e
}

// RestoreEvent rebuilds a persisted event without running any guard. A votedKey that no
// longer matches any option (removed after a reopen) restores as a detached option
// without voters.
func RestoreEvent(id, title, description, location, administratorID string, guestIDs []string, options []*Option, votedKey *OptionKey, closed bool, version int, createdAt, updatedAt time.Time) *Event {
	e := &Event{
		ID:            id,
		Title:         title,
		Description:   description,
		Location:      location,
		Administrator: administratorID,
		Version:       version,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		guests:        make(map[string]struct{}, len(guestIDs)+1),
		options:       make(map[OptionKey]*Option, len(options)),
		closed:        closed,
	}
	for _, g := range guestIDs {
		e.guests[g] = struct{}{}
	}
	e.guests[administratorID] = struct{}{}
	for _, o := range options {
		e.insertOption(o)
	}
	if votedKey != nil {
		if o, ok := e.options[*votedKey]; ok {
			e.votedOption = o
		} else {
			e.votedOption = NewOption(*votedKey)
		}
	}
	return e
}

func (e *Event) insertOption(o *Option) bool {
	if _, ok := e.options[o.key]; ok {
		return false
	}
	e.options[o.key] = o
	e.order = append(e.order, o.key)
	return true
}

func (e *Event) requireOpen() error {
	if e.closed {
		return ErrEventClosed
	}
	return nil
}

func (e *Event) requireAdministrator(userID string) error {
	if userID != e.Administrator {
		return ErrNotAdministrator
	}
	return nil
}

// AddOption inserts the option. When an option with the same date and time already
// exists, the existing one is kept and the call is a no-op.
func (e *Event) AddOption(o *Option) error {
	if err := e.requireOpen(); err != nil {
		return err
	}
	e.insertOption(o)
	return nil
}

// RemoveOption deletes the option with the given key. Administrator only.
func (e *Event) RemoveOption(key OptionKey, requestingUserID string) error {
	if err := e.requireOpen(); err != nil {
		return err
	}
	if err := e.requireAdministrator(requestingUserID); err != nil {
		return err
	}
	if _, ok := e.options[key]; !ok {
		return ErrOptionNotFound
	}
	delete(e.options, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddUserToGuestList enrolls the user. Re-adding a guest is a no-op.
func (e *Event) AddUserToGuestList(userID string) error {
	if err := e.requireOpen(); err != nil {
		return err
	}
	e.guests[userID] = struct{}{}
	return nil
}

// Vote toggles userID's vote on o. The caller resolves o through Option so that it is
// the instance held by this event.
func (e *Event) Vote(o *Option, userID string) error {
	if err := e.requireOpen(); err != nil {
		return err
	}
	if !e.IsGuest(userID) {
		return ErrUserNotInGuestList
	}
	o.ToggleVote(userID)
	return nil
}

// CloseEvent freezes voting and selects the option with the most votes. On ties the
// option added first wins.
func (e *Event) CloseEvent(requestingUserID string) error {
	if err := e.requireOpen(); err != nil {
		return err
	}
	if err := e.requireAdministrator(requestingUserID); err != nil {
		return err
	}
	var best *Option
	for _, k := range e.order {
		o := e.options[k]
		if best == nil || o.VoteCount() > best.VoteCount() {
			best = o
		}
	}
	if best == nil || best.VoteCount() == 0 {
		return ErrNoOptionVoted
	}
	e.votedOption = best
	e.closed = true
	return nil
}

// OpenEvent reopens voting. It keeps the voted option and every vote; calling it on an
// open event is a no-op.
func (e *Event) OpenEvent(requestingUserID string) error {
	if err := e.requireAdministrator(requestingUserID); err != nil {
		return err
	}
	e.closed = false
	return nil
}

func (e *Event) IsClosed() bool { return e.closed }

// VotedOption is the winner of the last successful close, or nil if never closed.
func (e *Event) VotedOption() *Option { return e.votedOption }

// Options returns the options in insertion order.
func (e *Event) Options() []*Option {
	out := make([]*Option, 0, len(e.order))
	for _, k := range e.order {
		out = append(out, e.options[k])
	}
	return out
}

// Option resolves an option by date and time.
func (e *Event) Option(key OptionKey) (*Option, bool) {
	o, ok := e.options[key]
	return o, ok
}

func (e *Event) HasOption(key OptionKey) bool {
	_, ok := e.options[key]
	return ok
}

// Guests returns the guest IDs in ascending order.
func (e *Event) Guests() []string {
	out := make([]string, 0, len(e.guests))
	for id := range e.guests {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (e *Event) IsGuest(userID string) bool {
	_, ok := e.guests[userID]
	return ok
}

func (e *Event) IsAdministrator(userID string) bool {
	return e.requireAdministrator(userID) == nil
}

// eventJSON is the wire shape of an event.
// swagger:model Event
type eventJSON struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Administrator string    `json:"administrator"`
	Guests        []string  `json:"guests"`
	Options       []*Option `json:"options"`
	VotedOption   *Option   `json:"voted_option"`
	IsClosed      bool      `json:"is_closed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Location:      e.Location,
		Administrator: e.Administrator,
		Guests:        e.Guests(),
		Options:       e.Options(),
		VotedOption:   e.votedOption,
		IsClosed:      e.closed,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	})
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	ListByGuest(ctx context.Context, userID string, params PaginationParams) ([]*Event, int, error)
	// Save persists the full aggregate state. It fails with ErrConflict when event.Version
	// no longer matches the stored row, and increments Version on success.
	Save(ctx context.Context, event *Event) error
}

// EventService defines the business logic around the Event aggregate.
type EventService interface {
	CreateEvent(ctx context.Context, administratorID, title, description, location string, keys []OptionKey) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	ListMyEvents(ctx context.Context, userID string, params PaginationParams) ([]*Event, int, error)
	AddOption(ctx context.Context, eventID, userID string, key OptionKey) (*Event, error)
	RemoveOption(ctx context.Context, eventID, userID string, key OptionKey) (*Event, error)
	AddGuest(ctx context.Context, eventID, callerID, guestID string) (*Event, error)
	Vote(ctx context.Context, eventID, userID string, key OptionKey) (*Event, error)
	CloseEvent(ctx context.Context, eventID, userID string) (*Event, error)
	OpenEvent(ctx context.Context, eventID, userID string) (*Event, error)
}
