package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/conference-portal/internal/model"
)

// TimeSlotRepo manages time slots.  slot_order is owned by the repository:
// it is renumbered 1..n by (day_number, start_time, id) after every insert
// and delete, so callers never set it.
type TimeSlotRepo struct {
	db *sql.DB
}

// NewTimeSlotRepo constructs a TimeSlotRepo with the given DB handle.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo {
	return &TimeSlotRepo{db: db}
}

const slotColumns = `id, conference_id, day_number, start_time, end_time, slot_name, slot_order`

func scanSlot(row interface{ Scan(...any) error }) (*model.TimeSlot, error) {
	var s model.TimeSlot
	if err := row.Scan(&s.ID, &s.ConferenceID, &s.DayNumber, &s.StartTime, &s.EndTime, &s.SlotName, &s.SlotOrder); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a slot, renumbers the conference's slots and reloads the
// new slot so SlotOrder reflects its final position.
func (r *TimeSlotRepo) Create(ctx context.Context, s *model.TimeSlot) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `INSERT INTO time_slots (conference_id, day_number, start_time, end_time, slot_name, slot_order) VALUES (?, ?, ?, ?, ?, 0)`
		res, err := tx.ExecContext(ctx, q, s.ConferenceID, s.DayNumber, s.StartTime, s.EndTime, s.SlotName)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := renumberSlots(ctx, tx, s.ConferenceID); err != nil {
			return err
		}
		fresh, err := scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id))
		if err != nil {
			return err
		}
		*s = *fresh
		return nil
	})
}

// GetByID returns ErrNotFound when absent.
func (r *TimeSlotRepo) GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	s, err := scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListByConference returns slots ordered by day and slot order.
func (r *TimeSlotRepo) ListByConference(ctx context.Context, conferenceID uint64) ([]model.TimeSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM time_slots`
	var args []any
	if conferenceID != 0 {
		q += ` WHERE conference_id = ?`
		args = append(args, conferenceID)
	}
	q += ` ORDER BY conference_id, day_number, slot_order`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TimeSlot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Delete removes an unused slot.  ErrConflict when a schedule entry uses it.
func (r *TimeSlotRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE slot_id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, id); err != nil {
			return err
		}
		return renumberSlots(ctx, tx, s.ConferenceID)
	})
}

func renumberSlots(ctx context.Context, tx *sql.Tx, conferenceID uint64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM time_slots WHERE conference_id = ? ORDER BY day_number, start_time, id`, conferenceID)
	if err != nil {
		return err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE time_slots SET slot_order = ? WHERE id = ?`, i+1, id); err != nil {
			return err
		}
	}
	return nil
}
