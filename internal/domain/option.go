package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	optionDateLayout = "2006-01-02"
	optionTimeLayout = "15:04"
)

// OptionKey is the identity of a candidate slot: a calendar date and a time of day.
// Two options with the same key are the same option regardless of their votes.
type OptionKey struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// NewOptionKey parses and normalizes a date (YYYY-MM-DD) and a time of day (HH:MM or HH:MM:SS).
// Seconds, when present, must be zero.
func NewOptionKey(date, clock string) (OptionKey, error) {
	d, err := time.Parse(optionDateLayout, strings.TrimSpace(date))
	if err != nil {
		return OptionKey{}, fmt.Errorf("%w: date %q", ErrInvalidOptionKey, date)
	}
	clock = strings.TrimSpace(clock)
	layout := optionTimeLayout
	if strings.Count(clock, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, clock)
	if err != nil || t.Second() != 0 {
		return OptionKey{}, fmt.Errorf("%w: time %q", ErrInvalidOptionKey, clock)
	}
	return OptionKey{Date: d.Format(optionDateLayout), Time: t.Format(optionTimeLayout)}, nil
}

// OptionKeyFromTime truncates t to the minute and returns its key.
func OptionKeyFromTime(t time.Time) OptionKey {
	return OptionKey{Date: t.Format(optionDateLayout), Time: t.Format(optionTimeLayout)}
}

// DateTime returns the key as a UTC instant.
func (k OptionKey) DateTime() time.Time {
	t, err := time.Parse(optionDateLayout+" "+optionTimeLayout, k.Date+" "+k.Time)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (k OptionKey) String() string {
	return k.Date + "T" + k.Time
}

// Option is a candidate date/time slot and the set of users voting for it.
type Option struct {
	key   OptionKey
	votes map[string]struct{}
}

// NewOption returns an option with an empty vote set.
func NewOption(key OptionKey) *Option {
	return &Option{key: key, votes: make(map[string]struct{})}
}

// RestoreOption rebuilds a persisted option with its voters.
func RestoreOption(key OptionKey, voterIDs []string) *Option {
	o := NewOption(key)
	for _, id := range voterIDs {
		o.votes[id] = struct{}{}
	}
	return o
}

func (o *Option) Key() OptionKey { return o.key }

// VoteCount is the number of users currently voting for the option.
func (o *Option) VoteCount() int {
	return len(o.votes)
}

// ToggleVote removes the user's vote if present and adds it otherwise.
// It reports whether the user votes for the option afterwards.
func (o *Option) ToggleVote(userID string) bool {
	if _, ok := o.votes[userID]; ok {
		delete(o.votes, userID)
		return false
	}
	o.votes[userID] = struct{}{}
	return true
}

func (o *Option) HasVote(userID string) bool {
	_, ok := o.votes[userID]
	return ok
}

// Voters returns the voter IDs in ascending order.
func (o *Option) Voters() []string {
	out := make([]string, 0, len(o.votes))
	for id := range o.votes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Equal compares date and time only.
func (o *Option) Equal(other *Option) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.key == other.key
}

// optionJSON is the wire shape of an option.
type optionJSON struct {
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	VoteCount int      `json:"vote_count"`
	Voters    []string `json:"voters"`
}

func (o *Option) MarshalJSON() ([]byte, error) {
	return json.Marshal(optionJSON{
		Date:      o.key.Date,
		Time:      o.key.Time,
		VoteCount: o.VoteCount(),
		Voters:    o.Voters(),
	})
}
