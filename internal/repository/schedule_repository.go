package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/conference-portal/internal/model"
)

// ScheduleRepo manages schedule entries.  The (conference_id, hall_id,
// slot_id) UNIQUE key is the only guard against double booking; Create and
// Update surface its violations as ErrDuplicate.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

const scheduleColumns = `id, conference_id, speaker_id, hall_id, slot_id, session_title, session_description, status`

func scanSchedule(row interface{ Scan(...any) error }) (*model.ScheduleEntry, error) {
	var (
		e    model.ScheduleEntry
		desc sql.NullString
	)
	if err := row.Scan(&e.ID, &e.ConferenceID, &e.SpeakerID, &e.HallID, &e.SlotID, &e.SessionTitle, &desc, &e.Status); err != nil {
		return nil, err
	}
	e.SessionDescription = desc.String
	return &e, nil
}

// Create inserts an entry.  ErrDuplicate when the hall/slot is taken.
func (r *ScheduleRepo) Create(ctx context.Context, e *model.ScheduleEntry) error {
	if e.Status == "" {
		e.Status = model.ScheduleStatusScheduled
	}
	const q = `INSERT INTO schedules (conference_id, speaker_id, hall_id, slot_id, session_title, session_description, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.ConferenceID, e.SpeakerID, e.HallID, e.SlotID, e.SessionTitle, nullString(e.SessionDescription), e.Status)
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
	e.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound when absent.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.ScheduleEntry, error) {
	e, err := scanSchedule(r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Update writes every mutable column of e.  The statement only touches
// row e.ID, so an entry never conflicts with itself.
func (r *ScheduleRepo) Update(ctx context.Context, e *model.ScheduleEntry) error {
	const q = `UPDATE schedules
	           SET speaker_id = ?, hall_id = ?, slot_id = ?, session_title = ?, session_description = ?, status = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, e.SpeakerID, e.HallID, e.SlotID, e.SessionTitle, nullString(e.SessionDescription), e.Status, e.ID)
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

// Delete removes an entry and orphans its uploaded files in the same
// transaction.
func (r *ScheduleRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE uploaded_files SET schedule_id = NULL WHERE schedule_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteByConference removes every entry of a conference, orphaning their
// files, and returns how many entries were deleted.
func (r *ScheduleRepo) DeleteByConference(ctx context.Context, conferenceID uint64) (int64, error) {
	var n int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE uploaded_files SET schedule_id = NULL WHERE schedule_id IN (SELECT id FROM schedules WHERE conference_id = ?)`, conferenceID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE conference_id = ?`, conferenceID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

const scheduleViewSelect = `SELECT s.id, s.conference_id, s.speaker_id, s.hall_id, s.slot_id, s.session_title, s.session_description, s.status,
       h.name, h.capacity, h.location,
       ts.day_number, ts.start_time, ts.end_time, ts.slot_name, ts.slot_order,
       sp.speaker_code, sp.full_name, sp.title, sp.bio, sp.email, sp.phone
FROM schedules s
JOIN halls h ON h.id = s.hall_id
JOIN time_slots ts ON ts.id = s.slot_id
JOIN speakers sp ON sp.id = s.speaker_id`

func scanScheduleView(row interface{ Scan(...any) error }) (*model.ScheduleView, error) {
	var (
		v         model.ScheduleView
		desc, bio sql.NullString
	)
	err := row.Scan(
		&v.ID, &v.ConferenceID, &v.SpeakerID, &v.HallID, &v.SlotID, &v.SessionTitle, &desc, &v.Status,
		&v.HallName, &v.HallCapacity, &v.HallLocation,
		&v.DayNumber, &v.StartTime, &v.EndTime, &v.SlotName, &v.SlotOrder,
		&v.SpeakerCode, &v.SpeakerName, &v.SpeakerTitle, &bio, &v.SpeakerEmail, &v.SpeakerPhone,
	)
	if err != nil {
		return nil, err
	}
	v.SessionDescription = desc.String
	v.SpeakerBio = bio.String
	return &v, nil
}

// List returns joined entries matching f, ordered by hall name, day and
// slot order.
func (r *ScheduleRepo) List(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleView, error) {
	var (
		where []string
		args  []any
	)
	if f.ConferenceID != 0 {
		where = append(where, "s.conference_id = ?")
		args = append(args, f.ConferenceID)
	}
	if f.HallID != 0 {
		where = append(where, "s.hall_id = ?")
		args = append(args, f.HallID)
	}
	if f.DayNumber != 0 {
		where = append(where, "ts.day_number = ?")
		args = append(args, f.DayNumber)
	}
	if f.SpeakerID != 0 {
		where = append(where, "s.speaker_id = ?")
		args = append(args, f.SpeakerID)
	}
	q := scheduleViewSelect
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY h.name, ts.day_number, ts.slot_order, s.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ScheduleView{}
	for rows.Next() {
		v, err := scanScheduleView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// GetView returns one joined entry; ErrNotFound when absent.
func (r *ScheduleRepo) GetView(ctx context.Context, id uint64) (*model.ScheduleView, error) {
	v, err := scanScheduleView(r.db.QueryRowContext(ctx, scheduleViewSelect+"\nWHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

const uploadTargetSelect = `SELECT s.id, s.conference_id, s.speaker_id, s.hall_id, h.name, ts.day_number, ts.slot_order, c.total_days, s.session_title
FROM schedules s
JOIN halls h ON h.id = s.hall_id
JOIN time_slots ts ON ts.id = s.slot_id
JOIN conferences c ON c.id = s.conference_id`

func scanUploadTarget(row interface{ Scan(...any) error }) (*model.UploadTarget, error) {
	var t model.UploadTarget
	if err := row.Scan(&t.ScheduleID, &t.ConferenceID, &t.SpeakerID, &t.HallID, &t.HallName, &t.DayNumber, &t.SlotOrder, &t.TotalDays, &t.SessionTitle); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindUploadTargets returns the speaker's entries matching hall name, day
// and exact session title.  More than one match means the description is
// ambiguous.
func (r *ScheduleRepo) FindUploadTargets(ctx context.Context, speakerID uint64, hallName string, dayNumber int, sessionTitle string) ([]model.UploadTarget, error) {
	q := uploadTargetSelect + `
WHERE s.speaker_id = ? AND h.name = ? AND ts.day_number = ? AND s.session_title = ?
ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q, speakerID, hallName, dayNumber, sessionTitle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UploadTarget
	for rows.Next() {
		t, err := scanUploadTarget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetUploadTarget resolves an entry by id; ErrNotFound when absent.
func (r *ScheduleRepo) GetUploadTarget(ctx context.Context, scheduleID uint64) (*model.UploadTarget, error) {
	t, err := scanUploadTarget(r.db.QueryRowContext(ctx, uploadTargetSelect+"\nWHERE s.id = ?", scheduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}
