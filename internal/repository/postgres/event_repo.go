package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meetingscheduler/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `id, title, description, location, administrator_id, guest_ids, is_closed,
		to_char(voted_date, 'YYYY-MM-DD'), to_char(voted_time, 'HH24:MI'), version, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// eventRow is one events row before its options are attached.
type eventRow struct {
	id, title, description, location, administrator string
	guests                                           []string
	closed                                           bool
	votedDate, votedTime                             sql.NullString
	version                                          int
	createdAt, updatedAt                             time.Time
}

func scanEventRow(s rowScanner) (*eventRow, error) {
	row := &eventRow{}
	err := s.Scan(&row.id, &row.title, &row.description, &row.location, &row.administrator,
		pq.Array(&row.guests), &row.closed, &row.votedDate, &row.votedTime, &row.version,
		&row.createdAt, &row.updatedAt)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (row *eventRow) toDomain(options []*domain.Option) *domain.Event {
	var voted *domain.OptionKey
	if row.votedDate.Valid && row.votedTime.Valid {
		voted = &domain.OptionKey{Date: row.votedDate.String, Time: row.votedTime.String}
	}
	return domain.RestoreEvent(row.id, row.title, row.description, row.location, row.administrator,
		row.guests, options, voted, row.closed, row.version, row.createdAt, row.updatedAt)
}

func votedColumns(e *domain.Event) (sql.NullString, sql.NullString) {
	if o := e.VotedOption(); o != nil {
		k := o.Key()
		return sql.NullString{String: k.Date, Valid: true}, sql.NullString{String: k.Time, Valid: true}
	}
	return sql.NullString{}, sql.NullString{}
}

// Create inserts the event and its options in one transaction and sets ID and Version.
func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	votedDate, votedTime := votedColumns(e)
	query := `
		INSERT INTO events (title, description, location, administrator_id, guest_ids, is_closed, voted_date, voted_time, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10)
		RETURNING id
	`
	var id string
	err = tx.QueryRowContext(ctx, query, e.Title, e.Description, e.Location, e.Administrator,
		pq.Array(e.Guests()), e.IsClosed(), votedDate, votedTime, e.CreatedAt, e.UpdatedAt).Scan(&id)
	if err != nil {
		return err
	}
	if err := insertOptions(ctx, tx, id, e.Options()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.ID = id
	e.Version = 1
	return nil
}

func insertOptions(ctx context.Context, tx *sql.Tx, eventID string, options []*domain.Option) error {
	query := `
		INSERT INTO event_options (event_id, position, option_date, option_time, voter_ids)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, o := range options {
		k := o.Key()
		if _, err := tx.ExecContext(ctx, query, eventID, i, k.Date, k.Time, pq.Array(o.Voters())); err != nil {
			return fmt.Errorf("insert option %s: %w", k, err)
		}
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	row, err := scanEventRow(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	options, err := r.loadOptions(ctx, []string{row.id})
	if err != nil {
		return nil, err
	}
	return row.toDomain(options[row.id]), nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + eventColumns + `
		FROM events
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	events, err := r.queryEvents(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListByGuest(ctx context.Context, userID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE $1 = ANY(guest_ids)`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE $1 = ANY(guest_ids)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	events, err := r.queryEvents(ctx, query, userID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var eventRows []*eventRow
	var ids []string
	for rows.Next() {
		row, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		eventRows = append(eventRows, row)
		ids = append(ids, row.id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	events := make([]*domain.Event, 0, len(eventRows))
	if len(ids) == 0 {
		return events, nil
	}
	options, err := r.loadOptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range eventRows {
		events = append(events, row.toDomain(options[row.id]))
	}
	return events, nil
}

// loadOptions fetches the options of every given event, keyed by event ID and kept in
// insertion order.
func (r *eventRepository) loadOptions(ctx context.Context, eventIDs []string) (map[string][]*domain.Option, error) {
	query := `
		SELECT event_id, to_char(option_date, 'YYYY-MM-DD'), to_char(option_time, 'HH24:MI'), voter_ids
		FROM event_options
		WHERE event_id = ANY($1::uuid[])
		ORDER BY event_id, position
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byEvent := make(map[string][]*domain.Option)
	for rows.Next() {
		var eventID string
		var key domain.OptionKey
		var voters []string
		if err := rows.Scan(&eventID, &key.Date, &key.Time, pq.Array(&voters)); err != nil {
			return nil, err
		}
		byEvent[eventID] = append(byEvent[eventID], domain.RestoreOption(key, voters))
	}
	return byEvent, rows.Err()
}

// Save writes the whole aggregate if the stored version still matches e.Version, then
// bumps e.Version. Options are rewritten from scratch.
func (r *eventRepository) Save(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	votedDate, votedTime := votedColumns(e)
	query := `
		UPDATE events
		SET title = $1, description = $2, location = $3, guest_ids = $4, is_closed = $5,
			voted_date = $6, voted_time = $7, version = version + 1, updated_at = $8
		WHERE id = $9 AND version = $10
	`
	result, err := tx.ExecContext(ctx, query, e.Title, e.Description, e.Location, pq.Array(e.Guests()),
		e.IsClosed(), votedDate, votedTime, e.UpdatedAt, e.ID, e.Version)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_options WHERE event_id = $1`, e.ID); err != nil {
		return err
	}
	if err := insertOptions(ctx, tx, e.ID, e.Options()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.Version++
	return nil
}
