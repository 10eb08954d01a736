package repository

import "database/sql"

// Store bundles every repository over one connection pool.
type Store struct {
	DB          *sql.DB
	Conferences *ConferenceRepo
	Halls       *HallRepo
	Speakers    *SpeakerRepo
	Slots       *TimeSlotRepo
	Schedules   *ScheduleRepo
	Files       *FileRepo
}

// NewStore constructs all repositories for db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:          db,
		Conferences: NewConferenceRepo(db),
		Halls:       NewHallRepo(db),
		Speakers:    NewSpeakerRepo(db),
		Slots:       NewTimeSlotRepo(db),
		Schedules:   NewScheduleRepo(db),
		Files:       NewFileRepo(db),
	}
}
