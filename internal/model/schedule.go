package model

// Schedule entry statuses.
const (
    ScheduleStatusScheduled = "scheduled"
    ScheduleStatusCancelled = "cancelled"
)

// ScheduleEntry assigns a speaker to a hall during a time slot.  At most
// one entry exists per (ConferenceID, HallID, SlotID).
type ScheduleEntry struct {
    ID                 uint64 `json:"schedule_id"`         // schedules.id
    ConferenceID       uint64 `json:"conference_id"`       // schedules.conference_id
    SpeakerID          uint64 `json:"speaker_id"`          // schedules.speaker_id
    HallID             uint64 `json:"hall_id"`             // schedules.hall_id
    SlotID             uint64 `json:"slot_id"`             // schedules.slot_id
    SessionTitle       string `json:"session_title"`       // schedules.session_title
    SessionDescription string `json:"session_description"` // schedules.session_description (NULL reads as "")
    Status             string `json:"status"`              // schedules.status
}

// ScheduleView is a schedule entry joined with its hall, slot and speaker,
// the shape returned by schedule listings.
type ScheduleView struct {
    ScheduleEntry

    HallName     string `json:"hall_name"`
    HallCapacity int    `json:"capacity"`
    HallLocation string `json:"location"`

    DayNumber int    `json:"day_number"`
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
    SlotName  string `json:"slot_name"`
    SlotOrder int    `json:"slot_order"`

    SpeakerCode  string `json:"speaker_code"`
    SpeakerName  string `json:"full_name"`
    SpeakerTitle string `json:"title"`
    SpeakerBio   string `json:"bio"`
    SpeakerEmail string `json:"email"`
    SpeakerPhone string `json:"phone"`
}

// ScheduleFilter narrows a schedule listing.  Zero values mean "any".
type ScheduleFilter struct {
    ConferenceID uint64
    HallID       uint64
    DayNumber    int
    SpeakerID    uint64
}

// UploadTarget is everything the upload resolver needs about one schedule
// entry: where it runs and the numbers the stored filename derives from.
type UploadTarget struct {
    ScheduleID   uint64
    ConferenceID uint64
    SpeakerID    uint64
    HallID       uint64
    HallName     string
    DayNumber    int
    SlotOrder    int
    TotalDays    int
    SessionTitle string
}
