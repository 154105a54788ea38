package domain

import "time"

// Company as returned by the remote API. ApplicationCount and
// Applications are computed server-side.
type Company struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Website      string           `json:"website,omitempty"`
	Size         string           `json:"size,omitempty"`          // startup | small | medium | large | enterprise
	FundingStage string           `json:"funding_stage,omitempty"` // seed | series_a | ... | public
	Industry     string           `json:"industry,omitempty"`
	CultureNotes string           `json:"culture_notes,omitempty"`
	Pros         []string         `json:"pros,omitempty"`
	Cons         []string         `json:"cons,omitempty"`
	Rating       *float64         `json:"rating,omitempty"`
	Applications []JobApplication `json:"applications,omitempty"`

	ApplicationCount int       `json:"application_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Contact is a person met through an application.
type Contact struct {
	ID              string        `json:"id"`
	ApplicationID   string        `json:"application_id"`
	Name            string        `json:"name"`
	Role            string        `json:"role,omitempty"`
	Email           string        `json:"email,omitempty"`
	Phone           string        `json:"phone,omitempty"`
	LinkedInURL     string        `json:"linkedin_url,omitempty"`
	LastContactedAt *time.Time    `json:"last_contacted_at,omitempty"`
	FollowUpAt      *time.Time    `json:"follow_up_at,omitempty"`
	Interactions    []Interaction `json:"interactions,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Interaction is an append-only entry of a contact's history.
type Interaction struct {
	Date  time.Time `json:"date"`
	Type  string    `json:"type"` // email | call | meeting | linkedin | other
	Notes string    `json:"notes,omitempty"`
}

// Resume is a versioned document. Version is assigned by the remote API.
type Resume struct {
	ID           string           `json:"id"`
	Version      int              `json:"version"`
	Description  string           `json:"description,omitempty"`
	FileName     string           `json:"file_name,omitempty"`
	FileSize     int64            `json:"file_size,omitempty"`
	MimeType     string           `json:"mime_type,omitempty"`
	FileURL      string           `json:"file_url,omitempty"`
	Applications []JobApplication `json:"applications,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Bookmark is a saved link, tags may come from an AI suggestion.
type Bookmark struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
