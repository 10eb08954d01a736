package model

// Speaker is a presenter identified publicly by Code (SP001, SP002, ...).
type Speaker struct {
    ID       uint64 `json:"speaker_id"`   // speakers.id
    Code     string `json:"speaker_code"` // speakers.speaker_code
    FullName string `json:"full_name"`    // speakers.full_name
    Email    string `json:"email"`        // speakers.email
    Phone    string `json:"phone"`        // speakers.phone
    Title    string `json:"title"`        // speakers.title
    Bio      string `json:"bio"`          // speakers.bio (NULL reads as "")
}
