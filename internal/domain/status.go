package domain

import "strings"

// Status is a pipeline stage of a job application.
type Status string

const (
	StatusWishlist           Status = "Wishlist"
	StatusApplied            Status = "Applied"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusInterviewing       Status = "Interviewing"
	StatusOffer              Status = "Offer"
	StatusRejected           Status = "Rejected"
	StatusAccepted           Status = "Accepted"
	StatusWithdrawn          Status = "Withdrawn"
)

var pipeline = []Status{
	StatusWishlist,
	StatusApplied,
	StatusInterviewScheduled,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
	StatusAccepted,
	StatusWithdrawn,
}

// Statuses returns the pipeline stages in display order.
func Statuses() []Status {
	out := make([]Status, len(pipeline))
	copy(out, pipeline)
	return out
}

// ParseStatus matches s against the known stages, ignoring case and
// surrounding space. Underscores and dashes are accepted for spaces
// ("interview_scheduled").
func ParseStatus(s string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for _, st := range pipeline {
		if strings.ToLower(string(st)) == norm {
			return st, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the known stages.
func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Normalize returns the canonical spelling of s, or s unchanged when unknown.
func (s Status) Normalize() Status {
	if st, ok := ParseStatus(string(s)); ok {
		return st
	}
	return s
}

// IsInterviewStage reports whether s is one of the interview stages.
func (s Status) IsInterviewStage() bool {
	switch s.Normalize() {
	case StatusInterviewScheduled, StatusInterviewing:
		return true
	}
	return false
}
