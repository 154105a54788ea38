package domain

import "time"

// JobApplication is the central record of the tracker.
// It is owned by the remote API; jobtrail only reads and forwards it.
type JobApplication struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	JobTitle    string `json:"job_title"`
	Status      Status `json:"status"`

	// ApplicationDate may be missing for Wishlist entries.
	ApplicationDate *time.Time `json:"application_date,omitempty"`

	// SalaryRange is free text as the user typed it ("$100k - $150k").
	SalaryRange string `json:"salary_range,omitempty"`

	LocationType      string `json:"location_type,omitempty"` // remote | hybrid | onsite
	LocationCity      string `json:"location_city,omitempty"`
	ApplicationMethod string `json:"application_method,omitempty"`
	Priority          string `json:"priority,omitempty"`
	JobURL            string `json:"job_url,omitempty"`
	Notes             string `json:"notes,omitempty"`
	ResumeID          string `json:"resume_id,omitempty"`
	CompanyID         string `json:"company_id,omitempty"`

	// StatusHistory is append-only. Order depends on the endpoint that
	// produced it, consumers must not assume one.
	StatusHistory []StatusChange `json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusChange is one entry of an application's status history.
type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

// ReachedInterview reports whether the application went through an
// interview stage, either now or at some point in its history.
func (a JobApplication) ReachedInterview() bool {
	if a.Status.IsInterviewStage() {
		return true
	}
	for _, h := range a.StatusHistory {
		if h.Status.IsInterviewStage() {
			return true
		}
	}
	return false
}

// Interview belongs to exactly one application.
type Interview struct {
	ID               string     `json:"id"`
	ApplicationID    string     `json:"application_id"`
	Type             string     `json:"type"`   // phone_screen | technical | behavioral | system_design | hr | final
	Format           string     `json:"format"` // phone | video | in_person
	ScheduledAt      time.Time  `json:"scheduled_at"`
	DurationMinutes  int        `json:"duration_minutes,omitempty"`
	InterviewerName  string     `json:"interviewer_name,omitempty"`
	InterviewerEmail string     `json:"interviewer_email,omitempty"`
	InterviewerRole  string     `json:"interviewer_role,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Feedback         string     `json:"feedback,omitempty"`
	Checklist        []string   `json:"preparation_checklist,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
