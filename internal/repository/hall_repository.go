package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/conference-portal/internal/model"
)

// HallRepo provides methods to create, retrieve and edit halls.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = `id, conference_id, name, capacity, location`

func scanHall(row interface{ Scan(...any) error }) (*model.Hall, error) {
	var h model.Hall
	if err := row.Scan(&h.ID, &h.ConferenceID, &h.Name, &h.Capacity, &h.Location); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a hall.  A second hall with the same name in the same
// conference yields ErrDuplicate.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const q = `INSERT INTO halls (conference_id, name, capacity, location) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.ConferenceID, h.Name, h.Capacity, h.Location)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID retrieves a hall; ErrNotFound when absent.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	h, err := scanHall(r.db.QueryRowContext(ctx, `SELECT `+hallColumns+` FROM halls WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

// ListByConference returns the halls of a conference ordered by name.
// conferenceID 0 lists every hall.
func (r *HallRepo) ListByConference(ctx context.Context, conferenceID uint64) ([]model.Hall, error) {
	q := `SELECT ` + hallColumns + ` FROM halls`
	var args []any
	if conferenceID != 0 {
		q += ` WHERE conference_id = ?`
		args = append(args, conferenceID)
	}
	q += ` ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Hall{}
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// Update rewrites name, capacity and location.
func (r *HallRepo) Update(ctx context.Context, h *model.Hall) error {
	const q = `UPDATE halls SET name = ?, capacity = ?, location = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Capacity, h.Location, h.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a hall.  ErrConflict when schedule entries still use it.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE hall_id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM halls WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
