package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/conference-portal/internal/model"
)

// SpeakerRepo manages persistence for speakers and their public codes.
type SpeakerRepo struct {
	db *sql.DB
}

// NewSpeakerRepo constructs a SpeakerRepo with the given DB handle.
func NewSpeakerRepo(db *sql.DB) *SpeakerRepo {
	return &SpeakerRepo{db: db}
}

const speakerColumns = `id, speaker_code, full_name, email, phone, title, bio`

func scanSpeaker(row interface{ Scan(...any) error }) (*model.Speaker, error) {
	var (
		s   model.Speaker
		bio sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Code, &s.FullName, &s.Email, &s.Phone, &s.Title, &bio); err != nil {
		return nil, err
	}
	s.Bio = bio.String
	return &s, nil
}

// SpeakerCode formats the public code for the n-th speaker.
func SpeakerCode(n uint64) string {
	return fmt.Sprintf("SP%03d", n)
}

// Create inserts a speaker and assigns its code from the new row id.  Ids
// are never reused, so a deleted speaker's code is never handed out again.
func (r *SpeakerRepo) Create(ctx context.Context, s *model.Speaker) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// placeholder until the id is known; fits speaker_code and is unique
		placeholder := "tmp-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		const q = `INSERT INTO speakers (speaker_code, full_name, email, phone, title, bio) VALUES (?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, placeholder, s.FullName, s.Email, s.Phone, s.Title, nullString(s.Bio))
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
		code := SpeakerCode(uint64(id))
		if _, err := tx.ExecContext(ctx, `UPDATE speakers SET speaker_code = ? WHERE id = ?`, code, id); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		s.ID = uint64(id)
		s.Code = code
		return nil
	})
}

// GetByID returns ErrNotFound when absent.
func (r *SpeakerRepo) GetByID(ctx context.Context, id uint64) (*model.Speaker, error) {
	return r.getOne(ctx, r.db, `SELECT `+speakerColumns+` FROM speakers WHERE id = ?`, id)
}

// GetByCode returns ErrNotFound when no speaker carries the code.
func (r *SpeakerRepo) GetByCode(ctx context.Context, code string) (*model.Speaker, error) {
	return r.getOne(ctx, r.db, `SELECT `+speakerColumns+` FROM speakers WHERE speaker_code = ?`, code)
}

func (r *SpeakerRepo) getOne(ctx context.Context, q querier, query string, arg any) (*model.Speaker, error) {
	s, err := scanSpeaker(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// List returns every speaker ordered by code.
func (r *SpeakerRepo) List(ctx context.Context) ([]model.Speaker, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+speakerColumns+` FROM speakers ORDER BY speaker_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Speaker{}
	for rows.Next() {
		s, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Delete removes a speaker together with their schedule entries.  Files
// uploaded for those entries are kept and orphaned.
func (r *SpeakerRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.getOne(ctx, tx, `SELECT `+speakerColumns+` FROM speakers WHERE id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE uploaded_files SET schedule_id = NULL WHERE schedule_id IN (SELECT id FROM schedules WHERE speaker_id = ?)`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE speaker_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM speakers WHERE id = ?`, id)
		return err
	})
}

// DeleteAll removes every speaker and schedule entry and returns the
// number of speakers deleted.  Uploaded files are orphaned.
func (r *SpeakerRepo) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE uploaded_files SET schedule_id = NULL WHERE schedule_id IS NOT NULL`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedules`); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM speakers`)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
