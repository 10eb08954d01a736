package model

// Hall is a room of a conference where sessions run.  Names are unique
// within a conference; uploads locate halls by name.
type Hall struct {
    ID           uint64 `json:"hall_id"`       // halls.id
    ConferenceID uint64 `json:"conference_id"` // halls.conference_id
    Name         string `json:"hall_name"`     // halls.name
    Capacity     int    `json:"capacity"`      // halls.capacity
    Location     string `json:"location"`      // halls.location
}
