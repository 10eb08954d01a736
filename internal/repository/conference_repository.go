package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/conference-portal/internal/model"
)

// ConferenceRepo manages persistence for conferences.
type ConferenceRepo struct {
	db *sql.DB
}

// NewConferenceRepo constructs a ConferenceRepo with the given DB handle.
func NewConferenceRepo(db *sql.DB) *ConferenceRepo {
	return &ConferenceRepo{db: db}
}

const conferenceColumns = `id, name, start_date, end_date, total_days`

func scanConference(row interface{ Scan(...any) error }) (*model.Conference, error) {
	var (
		c          model.Conference
		start, end sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &start, &end, &c.TotalDays); err != nil {
		return nil, err
	}
	c.StartDate = stringPtr(start)
	c.EndDate = stringPtr(end)
	return &c, nil
}

// Create inserts a conference and assigns the generated ID.
func (r *ConferenceRepo) Create(ctx context.Context, c *model.Conference) error {
	const q = `INSERT INTO conferences (name, start_date, end_date, total_days) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Name, nullableString(c.StartDate), nullableString(c.EndDate), c.TotalDays)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound when the conference does not exist.
func (r *ConferenceRepo) GetByID(ctx context.Context, id uint64) (*model.Conference, error) {
	c, err := scanConference(r.db.QueryRowContext(ctx, `SELECT `+conferenceColumns+` FROM conferences WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// List returns all conferences, most recent start date first.
func (r *ConferenceRepo) List(ctx context.Context) ([]model.Conference, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+conferenceColumns+` FROM conferences ORDER BY start_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Conference{}
	for rows.Next() {
		c, err := scanConference(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
