package model

// TimeSlot is a period on a given conference day.  SlotOrder is the global
// ordering key across days and is renumbered whenever slots change.
type TimeSlot struct {
    ID           uint64 `json:"slot_id"`       // time_slots.id
    ConferenceID uint64 `json:"conference_id"` // time_slots.conference_id
    DayNumber    int    `json:"day_number"`    // time_slots.day_number, 1-based
    StartTime    string `json:"start_time"`    // time_slots.start_time, HH:MM:SS
    EndTime      string `json:"end_time"`      // time_slots.end_time, HH:MM:SS
    SlotName     string `json:"slot_name"`     // time_slots.slot_name
    SlotOrder    int    `json:"slot_order"`    // time_slots.slot_order
}
