package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/conference-portal/internal/model"
	"github.com/iliyamo/conference-portal/internal/repository"
)

// Catalog manages the reference data schedule entries point at:
// conferences, halls, speakers and time slots.
type Catalog struct {
	store    *repository.Store
	speakers *SpeakerDirectory
	notifier
}

// NewCatalog wires a Catalog.  cache may be nil.
func NewCatalog(store *repository.Store, speakers *SpeakerDirectory, cache CacheInvalidator, log *logrus.Logger) *Catalog {
	return &Catalog{store: store, speakers: speakers, notifier: newNotifier(nil, cache, log)}
}

// ConferenceInput is the payload of CreateConference.  TotalDays may be
// left zero when both dates are given.
type ConferenceInput struct {
	Name      string
	StartDate string
	EndDate   string
	TotalDays int
}

const dateLayout = "2006-01-02"

// CreateConference validates and stores a conference.
func (c *Catalog) CreateConference(ctx context.Context, in ConferenceInput) (*model.Conference, error) {
	conf := model.Conference{Name: strings.TrimSpace(in.Name), TotalDays: in.TotalDays}
	if conf.Name == "" {
		return nil, invalid("name", "is required")
	}
	var start, end time.Time
	if in.StartDate != "" {
		t, err := time.Parse(dateLayout, in.StartDate)
		if err != nil {
			return nil, invalid("start_date", "must be YYYY-MM-DD")
		}
		start, conf.StartDate = t, &in.StartDate
	}
	if in.EndDate != "" {
		t, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return nil, invalid("end_date", "must be YYYY-MM-DD")
		}
		end, conf.EndDate = t, &in.EndDate
	}
	if !start.IsZero() && !end.IsZero() {
		if end.Before(start) {
			return nil, invalid("end_date", "must not be before start_date")
		}
		if conf.TotalDays == 0 {
			conf.TotalDays = int(end.Sub(start).Hours()/24) + 1
		}
	}
	if conf.TotalDays < 1 {
		return nil, invalid("total_days", "must be at least 1")
	}
	if err := c.store.Conferences.Create(ctx, &conf); err != nil {
		return nil, fmt.Errorf("create conference: %w", err)
	}
	c.log.WithField("conference_id", conf.ID).Info("conference created")
	return &conf, nil
}

// GetConference returns one conference.
func (c *Catalog) GetConference(ctx context.Context, id uint64) (*model.Conference, error) {
	conf, err := c.store.Conferences.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "conference", id)
	}
	return conf, nil
}

// ListConferences returns all conferences.
func (c *Catalog) ListConferences(ctx context.Context) ([]model.Conference, error) {
	return c.store.Conferences.List(ctx)
}

// HallInput is the payload of CreateHall.
type HallInput struct {
	ConferenceID uint64
	Name         string
	Capacity     int
	Location     string
}

// CreateHall stores a hall; names are unique per conference.
func (c *Catalog) CreateHall(ctx context.Context, in HallInput) (*model.Hall, error) {
	h := model.Hall{ConferenceID: in.ConferenceID, Name: strings.TrimSpace(in.Name), Capacity: in.Capacity, Location: strings.TrimSpace(in.Location)}
	if h.Name == "" {
		return nil, invalid("hall_name", "is required")
	}
	if h.Capacity < 0 {
		return nil, invalid("capacity", "must not be negative")
	}
	if _, err := c.store.Conferences.GetByID(ctx, in.ConferenceID); err != nil {
		return nil, lookupErr(err, "conference", in.ConferenceID)
	}
	if err := c.store.Halls.Create(ctx, &h); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Msg: fmt.Sprintf("hall %q already exists in this conference", h.Name)}
		}
		return nil, fmt.Errorf("create hall: %w", err)
	}
	c.invalidate(ctx)
	return &h, nil
}

// HallPatch holds the editable hall fields; nil leaves a field untouched.
type HallPatch struct {
	Name     *string
	Capacity *int
	Location *string
}

// UpdateHall edits a hall in place.
func (c *Catalog) UpdateHall(ctx context.Context, id uint64, p HallPatch) (*model.Hall, error) {
	h, err := c.store.Halls.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "hall", id)
	}
	if p.Name != nil {
		if h.Name = strings.TrimSpace(*p.Name); h.Name == "" {
			return nil, invalid("hall_name", "must not be empty")
		}
	}
	if p.Capacity != nil {
		if *p.Capacity < 0 {
			return nil, invalid("capacity", "must not be negative")
		}
		h.Capacity = *p.Capacity
	}
	if p.Location != nil {
		h.Location = strings.TrimSpace(*p.Location)
	}
	if err := c.store.Halls.Update(ctx, h); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, &ConflictError{Msg: fmt.Sprintf("hall %q already exists in this conference", h.Name)}
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("hall", id)
		}
		return nil, fmt.Errorf("update hall %d: %w", id, err)
	}
	c.invalidate(ctx)
	return h, nil
}

// DeleteHall removes a hall without scheduled sessions.
func (c *Catalog) DeleteHall(ctx context.Context, id uint64) error {
	if err := c.store.Halls.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound("hall", id)
		case errors.Is(err, repository.ErrConflict):
			return &ConflictError{Msg: fmt.Sprintf("hall %d still has scheduled sessions", id)}
		}
		return fmt.Errorf("delete hall %d: %w", id, err)
	}
	c.invalidate(ctx)
	return nil
}

// ListHalls returns a conference's halls by name; 0 lists all.
func (c *Catalog) ListHalls(ctx context.Context, conferenceID uint64) ([]model.Hall, error) {
	return c.store.Halls.ListByConference(ctx, conferenceID)
}

// SpeakerInput is the payload of CreateSpeaker.
type SpeakerInput struct {
	FullName string
	Email    string
	Phone    string
	Title    string
	Bio      string
}

// CreateSpeaker stores a speaker and assigns its SPnnn code.
func (c *Catalog) CreateSpeaker(ctx context.Context, in SpeakerInput) (*model.Speaker, error) {
	sp := model.Speaker{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.TrimSpace(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		Title:    strings.TrimSpace(in.Title),
		Bio:      strings.TrimSpace(in.Bio),
	}
	if sp.FullName == "" {
		return nil, invalid("full_name", "is required")
	}
	if err := c.store.Speakers.Create(ctx, &sp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Msg: "speaker code already taken"}
		}
		return nil, fmt.Errorf("create speaker: %w", err)
	}
	c.log.WithFields(logrus.Fields{"speaker_id": sp.ID, "speaker_code": sp.Code}).Info("speaker created")
	return &sp, nil
}

// GetSpeakerByCode resolves a speaker code.
func (c *Catalog) GetSpeakerByCode(ctx context.Context, code string) (*model.Speaker, error) {
	return c.speakers.Lookup(ctx, code)
}

// ListSpeakers returns all speakers ordered by code.
func (c *Catalog) ListSpeakers(ctx context.Context) ([]model.Speaker, error) {
	return c.store.Speakers.List(ctx)
}

// DeleteSpeaker removes a speaker and their schedule entries.  Their
// uploaded files are orphaned, not deleted.
func (c *Catalog) DeleteSpeaker(ctx context.Context, id uint64) error {
	sp, err := c.store.Speakers.GetByID(ctx, id)
	if err != nil {
		return lookupErr(err, "speaker", id)
	}
	if err := c.store.Speakers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("speaker", id)
		}
		return fmt.Errorf("delete speaker %d: %w", id, err)
	}
	c.speakers.Evict(sp.Code)
	c.log.WithFields(logrus.Fields{"speaker_id": id, "speaker_code": sp.Code}).Info("speaker deleted")
	c.invalidate(ctx)
	return nil
}

// DeleteAllSpeakers removes every speaker and schedule entry.
func (c *Catalog) DeleteAllSpeakers(ctx context.Context) (int64, error) {
	n, err := c.store.Speakers.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all speakers: %w", err)
	}
	c.speakers.Purge()
	c.log.WithField("deleted", n).Warn("all speakers deleted")
	c.invalidate(ctx)
	return n, nil
}

// TimeSlotInput is the payload of CreateTimeSlot.  Times accept HH:MM or
// HH:MM:SS.
type TimeSlotInput struct {
	ConferenceID uint64
	DayNumber    int
	StartTime    string
	EndTime      string
	SlotName     string
}

// CreateTimeSlot validates a slot against its conference and stores it;
// slot orders of the whole conference are recomputed.
func (c *Catalog) CreateTimeSlot(ctx context.Context, in TimeSlotInput) (*model.TimeSlot, error) {
	conf, err := c.store.Conferences.GetByID(ctx, in.ConferenceID)
	if err != nil {
		return nil, lookupErr(err, "conference", in.ConferenceID)
	}
	if in.DayNumber < 1 || in.DayNumber > conf.TotalDays {
		return nil, invalid("day_number", fmt.Sprintf("must be between 1 and %d", conf.TotalDays))
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return nil, invalid("start_time", "must be HH:MM or HH:MM:SS")
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return nil, invalid("end_time", "must be HH:MM or HH:MM:SS")
	}
	if !end.After(start) {
		return nil, invalid("end_time", "must be after start_time")
	}
	slot := model.TimeSlot{
		ConferenceID: in.ConferenceID,
		DayNumber:    in.DayNumber,
		StartTime:    start.Format(clockLayout),
		EndTime:      end.Format(clockLayout),
		SlotName:     strings.TrimSpace(in.SlotName),
	}
	if err := c.store.Slots.Create(ctx, &slot); err != nil {
		return nil, fmt.Errorf("create time slot: %w", err)
	}
	c.invalidate(ctx)
	return &slot, nil
}

// DeleteTimeSlot removes an unused slot.
func (c *Catalog) DeleteTimeSlot(ctx context.Context, id uint64) error {
	if err := c.store.Slots.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound("time slot", id)
		case errors.Is(err, repository.ErrConflict):
			return &ConflictError{Msg: fmt.Sprintf("time slot %d still has scheduled sessions", id)}
		}
		return fmt.Errorf("delete time slot %d: %w", id, err)
	}
	c.invalidate(ctx)
	return nil
}

// ListTimeSlots returns a conference's slots by day and order.
func (c *Catalog) ListTimeSlots(ctx context.Context, conferenceID uint64) ([]model.TimeSlot, error) {
	return c.store.Slots.ListByConference(ctx, conferenceID)
}

// SpeakerSession is what a speaker sees after logging in with their code.
type SpeakerSession struct {
	Speaker       model.Speaker        `json:"speaker"`
	Schedule      []model.ScheduleView `json:"schedule"`
	TotalSessions int                  `json:"total_sessions"`
}

// SpeakerLogin resolves a code into the speaker's profile and sessions.
func (c *Catalog) SpeakerLogin(ctx context.Context, code string) (*SpeakerSession, error) {
	sp, err := c.speakers.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	sessions, err := c.store.Schedules.List(ctx, model.ScheduleFilter{SpeakerID: sp.ID})
	if err != nil {
		return nil, fmt.Errorf("list sessions of %s: %w", sp.Code, err)
	}
	sortByDayAndStart(sessions)
	return &SpeakerSession{Speaker: *sp, Schedule: sessions, TotalSessions: len(sessions)}, nil
}

// SpeakerFiles returns a speaker's uploads, newest first.
func (c *Catalog) SpeakerFiles(ctx context.Context, code string) ([]model.UploadedFile, error) {
	sp, err := c.speakers.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.store.Files.ListBySpeaker(ctx, sp.Code)
}

const clockLayout = "15:04:05"

func parseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(clockLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("15:04", s)
}

func sortByDayAndStart(views []model.ScheduleView) {
	slices.SortStableFunc(views, func(a, b model.ScheduleView) int {
		if a.DayNumber != b.DayNumber {
			return a.DayNumber - b.DayNumber
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
}
