package model

import "time"

// Upload lifecycle states.  pending -> processed | failed; failed rows
// return to pending only through an explicit retry.
const (
    UploadStatusPending   = "pending"
    UploadStatusProcessed = "processed"
    UploadStatusFailed    = "failed"
)

// UploadedFile records a presentation accepted for a schedule entry.
// OriginalPath points at the staged copy; StoredPath/StoredFilename name the
// canonical location under the uploads root.
type UploadedFile struct {
    ID             uint64    `json:"file_id"`           // uploaded_files.id
    ScheduleID     *uint64   `json:"schedule_id"`       // uploaded_files.schedule_id, nil once the entry is deleted
    HallID         uint64    `json:"hall_id"`           // uploaded_files.hall_id
    DayNumber      int       `json:"day_number"`        // uploaded_files.day_number
    SpeakerCode    string    `json:"speaker_code"`      // uploaded_files.speaker_code
    SlotOrderInDay int       `json:"slot_order_in_day"` // uploaded_files.slot_order_in_day
    OriginalName   string    `json:"original_name"`     // uploaded_files.original_name
    OriginalPath   string    `json:"-"`                 // uploaded_files.original_path (staging, internal)
    StoredFilename string    `json:"stored_filename"`   // uploaded_files.stored_filename
    StoredPath     string    `json:"stored_path"`       // uploaded_files.stored_path
    FileSize       int64     `json:"file_size"`         // uploaded_files.file_size
    FileType       string    `json:"file_type"`         // uploaded_files.file_type
    Status         string    `json:"upload_status"`     // uploaded_files.upload_status
    UploadDate     time.Time `json:"upload_date"`       // uploaded_files.upload_date
}

// FileFilter narrows file listings.  Orphaned selects rows whose schedule
// entry was deleted.
type FileFilter struct {
    Status      string
    SpeakerCode string
    Orphaned    bool
}
