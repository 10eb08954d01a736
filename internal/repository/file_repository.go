package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/conference-portal/internal/model"
)

// FileRepo manages uploaded_files rows and their status transitions.
type FileRepo struct {
	db *sql.DB
}

// NewFileRepo constructs a FileRepo with the given DB handle.
func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

const fileColumns = `id, schedule_id, hall_id, day_number, speaker_code, slot_order_in_day, original_name, original_path,
       stored_filename, stored_path, file_size, file_type, upload_status, upload_date`

func scanFile(row interface{ Scan(...any) error }) (*model.UploadedFile, error) {
	var (
		f          model.UploadedFile
		scheduleID sql.NullInt64
	)
	err := row.Scan(&f.ID, &scheduleID, &f.HallID, &f.DayNumber, &f.SpeakerCode, &f.SlotOrderInDay, &f.OriginalName, &f.OriginalPath,
		&f.StoredFilename, &f.StoredPath, &f.FileSize, &f.FileType, &f.Status, &f.UploadDate)
	if err != nil {
		return nil, err
	}
	if scheduleID.Valid {
		id := uint64(scheduleID.Int64)
		f.ScheduleID = &id
	}
	return &f, nil
}

// Create inserts a row.  Status defaults to pending.
func (r *FileRepo) Create(ctx context.Context, f *model.UploadedFile) error {
	if f.Status == "" {
		f.Status = model.UploadStatusPending
	}
	var scheduleID any
	if f.ScheduleID != nil {
		scheduleID = *f.ScheduleID
	}
	const q = `INSERT INTO uploaded_files (schedule_id, hall_id, day_number, speaker_code, slot_order_in_day, original_name, original_path,
	           stored_filename, stored_path, file_size, file_type, upload_status, upload_date)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, scheduleID, f.HallID, f.DayNumber, f.SpeakerCode, f.SlotOrderInDay, f.OriginalName, f.OriginalPath,
		f.StoredFilename, f.StoredPath, f.FileSize, f.FileType, f.Status, f.UploadDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetByID returns ErrNotFound when absent.
func (r *FileRepo) GetByID(ctx context.Context, id uint64) (*model.UploadedFile, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM uploaded_files WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// ListByStatus returns every row in the given status, oldest first.  The
// rows are fully read before returning so callers may write while
// iterating the result.
func (r *FileRepo) ListByStatus(ctx context.Context, status string) ([]model.UploadedFile, error) {
	return r.List(ctx, model.FileFilter{Status: status})
}

// List returns rows matching f, oldest first.
func (r *FileRepo) List(ctx context.Context, f model.FileFilter) ([]model.UploadedFile, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "upload_status = ?")
		args = append(args, f.Status)
	}
	if f.SpeakerCode != "" {
		where = append(where, "speaker_code = ?")
		args = append(args, f.SpeakerCode)
	}
	if f.Orphaned {
		where = append(where, "schedule_id IS NULL")
	}
	q := `SELECT ` + fileColumns + ` FROM uploaded_files`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.UploadedFile{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *file)
	}
	return out, rows.Err()
}

// ListBySpeaker returns a speaker's files, newest first.
func (r *FileRepo) ListBySpeaker(ctx context.Context, speakerCode string) ([]model.UploadedFile, error) {
	files, err := r.List(ctx, model.FileFilter{SpeakerCode: speakerCode})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}
	return files, nil
}

// Transition moves a row from one status to another.  It reports false
// when the row was not in the expected status (or does not exist), which
// keeps two processors from both finishing the same file.
func (r *FileRepo) Transition(ctx context.Context, id uint64, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE uploaded_files SET upload_status = ? WHERE id = ? AND upload_status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CountByLocation counts rows other than excludeID that point at the same
// canonical file.  Repeated uploads for one session share a location.
func (r *FileRepo) CountByLocation(ctx context.Context, storedPath, storedFilename string, excludeID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploaded_files WHERE stored_path = ? AND stored_filename = ? AND id <> ?`,
		storedPath, storedFilename, excludeID).Scan(&n)
	return n, err
}

// Delete removes a row; ErrNotFound when absent.
func (r *FileRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM uploaded_files WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
