package model

// Conference groups halls, time slots and schedule entries.  TotalDays is
// the modulus used when deriving a slot's ordinal within its day.
type Conference struct {
    ID        uint64  `json:"conference_id"` // conferences.id
    Name      string  `json:"name"`          // conferences.name
    StartDate *string `json:"start_date"`    // conferences.start_date, YYYY-MM-DD (nullable)
    EndDate   *string `json:"end_date"`      // conferences.end_date, YYYY-MM-DD (nullable)
    TotalDays int     `json:"total_days"`    // conferences.total_days
}
