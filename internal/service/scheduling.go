package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/conference-portal/internal/model"
	"github.com/iliyamo/conference-portal/internal/queue"
	"github.com/iliyamo/conference-portal/internal/repository"
)

// Scheduler assigns speakers to hall/slot pairs.  At most one entry may
// exist per (conference, hall, slot); the storage UNIQUE key decides races
// and its violation surfaces as ConflictError.
type Scheduler struct {
	store *repository.Store
	notifier
}

// NewScheduler wires a Scheduler.  events and cache may be nil.
func NewScheduler(store *repository.Store, events EventPublisher, cache CacheInvalidator, log *logrus.Logger) *Scheduler {
	return &Scheduler{store: store, notifier: newNotifier(events, cache, log)}
}

// CreateScheduleInput is the payload of CreateSchedule.
type CreateScheduleInput struct {
	ConferenceID       uint64
	SpeakerID          uint64
	HallID             uint64
	SlotID             uint64
	SessionTitle       string
	SessionDescription string
}

// SchedulePatch holds the fields UpdateSchedule may change; nil leaves a
// field untouched.
type SchedulePatch struct {
	SpeakerID          *uint64
	HallID             *uint64
	SlotID             *uint64
	SessionTitle       *string
	SessionDescription *string
	Status             *string
}

// CreateSchedule inserts a new entry and returns its id.
func (s *Scheduler) CreateSchedule(ctx context.Context, in CreateScheduleInput) (uint64, error) {
	title := strings.TrimSpace(in.SessionTitle)
	if title == "" {
		return 0, invalid("session_title", "is required")
	}
	if in.ConferenceID == 0 {
		return 0, invalid("conference_id", "is required")
	}
	if err := s.resolveRefs(ctx, in.ConferenceID, in.SpeakerID, in.HallID, in.SlotID); err != nil {
		return 0, err
	}

	e := &model.ScheduleEntry{
		ConferenceID:       in.ConferenceID,
		SpeakerID:          in.SpeakerID,
		HallID:             in.HallID,
		SlotID:             in.SlotID,
		SessionTitle:       title,
		SessionDescription: strings.TrimSpace(in.SessionDescription),
		Status:             model.ScheduleStatusScheduled,
	}
	if err := s.store.Schedules.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			scheduleConflictsTotal.Inc()
			return 0, slotTaken(in.HallID, in.SlotID)
		}
		return 0, fmt.Errorf("create schedule: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"schedule_id": e.ID,
		"hall_id":     e.HallID,
		"slot_id":     e.SlotID,
		"speaker_id":  e.SpeakerID,
	}).Info("schedule entry created")
	s.invalidate(ctx)
	s.publish(ctx, queue.NewScheduleEvent(queue.EventScheduleCreated, *e))
	return e.ID, nil
}

// UpdateSchedule applies patch to entry id and returns the joined result.
func (s *Scheduler) UpdateSchedule(ctx context.Context, id uint64, patch SchedulePatch) (*model.ScheduleView, error) {
	e, err := s.store.Schedules.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "schedule", id)
	}

	refsChanged := false
	if patch.SpeakerID != nil && *patch.SpeakerID != e.SpeakerID {
		e.SpeakerID, refsChanged = *patch.SpeakerID, true
	}
	if patch.HallID != nil && *patch.HallID != e.HallID {
		e.HallID, refsChanged = *patch.HallID, true
	}
	if patch.SlotID != nil && *patch.SlotID != e.SlotID {
		e.SlotID, refsChanged = *patch.SlotID, true
	}
	if patch.SessionTitle != nil {
		title := strings.TrimSpace(*patch.SessionTitle)
		if title == "" {
			return nil, invalid("session_title", "must not be empty")
		}
		e.SessionTitle = title
	}
	if patch.SessionDescription != nil {
		e.SessionDescription = strings.TrimSpace(*patch.SessionDescription)
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.ScheduleStatusScheduled, model.ScheduleStatusCancelled:
			e.Status = *patch.Status
		default:
			return nil, invalid("status", "must be scheduled or cancelled")
		}
	}
	if refsChanged {
		if err := s.resolveRefs(ctx, e.ConferenceID, e.SpeakerID, e.HallID, e.SlotID); err != nil {
			return nil, err
		}
	}

	if err := s.store.Schedules.Update(ctx, e); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			scheduleConflictsTotal.Inc()
			return nil, slotTaken(e.HallID, e.SlotID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("schedule", id)
		}
		return nil, fmt.Errorf("update schedule %d: %w", id, err)
	}

	s.log.WithField("schedule_id", id).Info("schedule entry updated")
	s.invalidate(ctx)
	s.publish(ctx, queue.NewScheduleEvent(queue.EventScheduleUpdated, *e))
	return s.GetSchedule(ctx, id)
}

// DeleteSchedule removes entry id.  Files uploaded for it stay on disk and
// in the store with a NULL schedule reference.
func (s *Scheduler) DeleteSchedule(ctx context.Context, id uint64) error {
	e, err := s.store.Schedules.GetByID(ctx, id)
	if err != nil {
		return lookupErr(err, "schedule", id)
	}
	if err := s.store.Schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("schedule", id)
		}
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	s.log.WithField("schedule_id", id).Info("schedule entry deleted")
	s.invalidate(ctx)
	s.publish(ctx, queue.NewScheduleEvent(queue.EventScheduleDeleted, *e))
	return nil
}

// DeleteAllSchedules clears a conference's schedule and returns how many
// entries were removed.
func (s *Scheduler) DeleteAllSchedules(ctx context.Context, conferenceID uint64) (int64, error) {
	if conferenceID == 0 {
		return 0, invalid("conference_id", "is required")
	}
	if _, err := s.store.Conferences.GetByID(ctx, conferenceID); err != nil {
		return 0, lookupErr(err, "conference", conferenceID)
	}
	n, err := s.store.Schedules.DeleteByConference(ctx, conferenceID)
	if err != nil {
		return 0, fmt.Errorf("clear schedule of conference %d: %w", conferenceID, err)
	}
	s.log.WithFields(logrus.Fields{"conference_id": conferenceID, "deleted": n}).Warn("conference schedule cleared")
	s.invalidate(ctx)
	return n, nil
}

// ListSchedule returns joined entries ordered by hall name, day, slot order.
func (s *Scheduler) ListSchedule(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleView, error) {
	if f.DayNumber < 0 {
		return nil, invalid("day_number", "must be positive")
	}
	out, err := s.store.Schedules.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return out, nil
}

// GetSchedule returns one joined entry.
func (s *Scheduler) GetSchedule(ctx context.Context, id uint64) (*model.ScheduleView, error) {
	v, err := s.store.Schedules.GetView(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "schedule", id)
	}
	return v, nil
}

// resolveRefs checks that speaker, hall and slot exist and that hall and
// slot belong to conferenceID.
func (s *Scheduler) resolveRefs(ctx context.Context, conferenceID, speakerID, hallID, slotID uint64) error {
	if _, err := s.store.Speakers.GetByID(ctx, speakerID); err != nil {
		return lookupErr(err, "speaker", speakerID)
	}
	hall, err := s.store.Halls.GetByID(ctx, hallID)
	if err != nil {
		return lookupErr(err, "hall", hallID)
	}
	if hall.ConferenceID != conferenceID {
		return &NotFoundError{Entity: "hall", Key: hallID, Msg: fmt.Sprintf("hall %d not found in conference %d", hallID, conferenceID)}
	}
	slot, err := s.store.Slots.GetByID(ctx, slotID)
	if err != nil {
		return lookupErr(err, "time slot", slotID)
	}
	if slot.ConferenceID != conferenceID {
		return &NotFoundError{Entity: "time slot", Key: slotID, Msg: fmt.Sprintf("time slot %d not found in conference %d", slotID, conferenceID)}
	}
	return nil
}

func slotTaken(hallID, slotID uint64) error {
	return &ConflictError{Msg: fmt.Sprintf("hall %d already has a session in time slot %d", hallID, slotID)}
}
