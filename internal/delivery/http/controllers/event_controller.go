package controllers

import (
	"log/slog"
	"net/http"

	"meetingscheduler/internal/delivery/http/helpers"
	"meetingscheduler/internal/delivery/http/middleware"
	"meetingscheduler/internal/domain"
)

// OptionRequest identifies a candidate slot by date (YYYY-MM-DD) and time of day (HH:MM).
type OptionRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02" example:"2023-04-05"`
	Time string `json:"time" validate:"required" example:"10:00"`
}

func (o OptionRequest) key() (domain.OptionKey, error) {
	return domain.NewOptionKey(o.Date, o.Time)
}

// Validate implements Validator. Used as the whole body by AddOption and Vote.
func (o OptionRequest) Validate() []string {
	if o.Date == "" || o.Time == "" {
		return nil
	}
	if _, err := o.key(); err != nil {
		return []string{err.Error()}
	}
	return nil
}

// CreateEventRequest is the request body for POST /events. The caller becomes the administrator.
type CreateEventRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Location    string          `json:"location" validate:"max=200"`
	Options     []OptionRequest `json:"options" validate:"required,min=1,dive"`
}

// Validate implements Validator. Checks option times, which tags cannot express.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	for _, o := range c.Options {
		if o.Date == "" || o.Time == "" {
			continue
		}
		if _, err := o.key(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// AddGuestRequest is the optional body for POST /events/{eventID}/guests. Without a
// guest_id the caller joins the guest list.
type AddGuestRequest struct {
	GuestID string `json:"guest_id" validate:"omitempty,uuid"`
}

// EventSuccessResponse is the success response envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is a page of events.
type ListEventsResponse struct {
	Items      []*domain.Event        `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for event listings.
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// caller returns the authenticated user ID, writing 401 when there is none.
func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return userID, ok
}

// CreateEvent godoc
// @Summary Create a meeting event
// @Description Create an event with a title and at least one candidate option. The caller becomes the administrator and first guest. Duplicate options are merged.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	keys := make([]domain.OptionKey, 0, len(req.Options))
	for _, o := range req.Options {
		key, err := o.key()
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		keys = append(keys, key)
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, req.Title, req.Description, req.Location, keys)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Description Lists all events, newest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeEventPage(w, events, params, total)
}

// ListMyEvents godoc
// @Summary List events I am invited to
// @Description Lists the events whose guest list contains the caller, newest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/me [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListMyEvents(r.Context(), userID, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	writeEventPage(w, events, params, total)
}

func writeEventPage(w http.ResponseWriter, events []*domain.Event, params domain.PaginationParams, total int) {
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Items:      events,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// AddOption godoc
// @Summary Add a candidate option
// @Description Adds a date/time option to an open event. Administrator only.
// @Tags options
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param option body OptionRequest true "Option"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_administrator"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_closed, option_exists or conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/options [post]
func (c *EventController) AddOption(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req OptionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	key, err := req.key()
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.respond(w, r)(c.Service.AddOption(r.Context(), eventID, userID, key))
}

// RemoveOption godoc
// @Summary Remove a candidate option
// @Description Removes an option from an open event. Administrator only.
// @Tags options
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param date path string true "Option date (YYYY-MM-DD)"
// @Param time path string true "Option time (HH:MM)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_administrator"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found or option_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_closed or conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/options/{date}/{time} [delete]
func (c *EventController) RemoveOption(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	key, err := domain.NewOptionKey(r.PathValue("date"), r.PathValue("time"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.respond(w, r)(c.Service.RemoveOption(r.Context(), eventID, userID, key))
}

// AddGuest godoc
// @Summary Join or extend the guest list
// @Description Without a body the caller joins the guest list. With guest_id the administrator enrolls another user. Adding an existing guest is a no-op.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param guest body AddGuestRequest false "Guest to enroll"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_administrator"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found or user_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_closed or conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests [post]
func (c *EventController) AddGuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req AddGuestRequest
	if !helpers.DecodeOptionalAndValidate(w, r, &req) {
		return
	}
	c.respond(w, r)(c.Service.AddGuest(r.Context(), eventID, userID, req.GuestID))
}

// Vote godoc
// @Summary Toggle a vote
// @Description Toggles the caller's vote on an option: voting twice removes the vote. Guests only.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param option body OptionRequest true "Option to vote for"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: user_not_in_guest_list"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found or option_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_closed or conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/votes [post]
func (c *EventController) Vote(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req OptionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	key, err := req.key()
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.respond(w, r)(c.Service.Vote(r.Context(), eventID, userID, key))
}

// CloseEvent godoc
// @Summary Close voting
// @Description Closes the event and picks the option with the most votes; ties go to the option added first. Guests are emailed the result. Administrator only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the closed event with voted_option"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_administrator"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_closed or conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: no_option_voted"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/close [post]
func (c *EventController) CloseEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	c.respond(w, r)(c.Service.CloseEvent(r.Context(), eventID, userID))
}

// OpenEvent godoc
// @Summary Reopen voting
// @Description Reopens the event. Reopening an open event is a no-op. Administrator only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the reopened event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_administrator"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/open [post]
func (c *EventController) OpenEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathUUID(w, r, "eventID")
	if !ok {
		return
	}
	c.respond(w, r)(c.Service.OpenEvent(r.Context(), eventID, userID))
}

// respond writes the event returned by a mutation, or maps its error.
func (c *EventController) respond(w http.ResponseWriter, r *http.Request) func(*domain.Event, error) {
	return func(event *domain.Event, err error) {
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, event)
	}
}
