// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them in the activity log.
package queue

import (
    "time"

    "github.com/iliyamo/conference-portal/internal/model"
)

// ActivityQueue is the durable queue every portal event is routed to.
const ActivityQueue = "portal.activity"

// Event types.
const (
    EventScheduleCreated      = "schedule.created"
    EventScheduleUpdated      = "schedule.updated"
    EventScheduleDeleted      = "schedule.deleted"
    EventPresentationUploaded = "presentation.uploaded"
    EventFileProcessed        = "file.processed"
    EventFileFailed           = "file.failed"
    EventFileDeleted          = "file.deleted"
)

// Event is the envelope published for every domain change.  Exactly one of
// Schedule or File is set, depending on Type.
type Event struct {
    Type       string         `json:"type"`
    OccurredAt string         `json:"occurred_at"`
    Schedule   *ScheduleEvent `json:"schedule,omitempty"`
    File       *FileEvent     `json:"file,omitempty"`
}

// ScheduleEvent carries the identifiers of a schedule entry.
type ScheduleEvent struct {
    ScheduleID   uint64 `json:"schedule_id"`
    ConferenceID uint64 `json:"conference_id"`
    SpeakerID    uint64 `json:"speaker_id"`
    HallID       uint64 `json:"hall_id"`
    SlotID       uint64 `json:"slot_id"`
    SessionTitle string `json:"session_title"`
}

// FileEvent carries enough about an uploaded file to log or notify without
// querying the primary database.
type FileEvent struct {
    FileID         uint64  `json:"file_id"`
    ScheduleID     *uint64 `json:"schedule_id"`
    SpeakerCode    string  `json:"speaker_code"`
    OriginalName   string  `json:"original_name"`
    StoredPath     string  `json:"stored_path"`
    StoredFilename string  `json:"stored_filename"`
    FileSize       int64   `json:"file_size"`
    Status         string  `json:"upload_status"`
}

// NewScheduleEvent builds an event for a schedule entry.
func NewScheduleEvent(typ string, e model.ScheduleEntry) Event {
    return Event{
        Type:       typ,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
        Schedule: &ScheduleEvent{
            ScheduleID:   e.ID,
            ConferenceID: e.ConferenceID,
            SpeakerID:    e.SpeakerID,
            HallID:       e.HallID,
            SlotID:       e.SlotID,
            SessionTitle: e.SessionTitle,
        },
    }
}

// NewFileEvent builds an event for an uploaded file.
func NewFileEvent(typ string, f model.UploadedFile) Event {
    return Event{
        Type:       typ,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
        File: &FileEvent{
            FileID:         f.ID,
            ScheduleID:     f.ScheduleID,
            SpeakerCode:    f.SpeakerCode,
            OriginalName:   f.OriginalName,
            StoredPath:     f.StoredPath,
            StoredFilename: f.StoredFilename,
            FileSize:       f.FileSize,
            Status:         f.Status,
        },
    }
}
