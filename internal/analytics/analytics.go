// Package analytics derives dashboard statistics from job application
// records. Every function is pure: same input, same output, input never
// modified, no errors. Records missing the field a statistic needs are
// left out of that statistic only.
package analytics

import (
	"math"

	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

// FunnelCounts is how many applications reached each funnel stage.
type FunnelCounts struct {
	Applied   int `json:"applied"`
	Interview int `json:"interview"`
	Offer     int `json:"offer"`
}

// applied: everything past the wishlist, withdrawn included.
func applied(a domain.JobApplication) bool {
	return a.Status.Normalize() != domain.StatusWishlist
}

// responded: the employer acted on the application. Unknown statuses
// never count as a response.
func responded(a domain.JobApplication) bool {
	st := a.Status.Normalize()
	if !st.Valid() {
		return false
	}
	switch st {
	case domain.StatusWishlist, domain.StatusApplied, domain.StatusWithdrawn:
		return false
	}
	return true
}

func interviewed(a domain.JobApplication) bool {
	switch a.Status.Normalize() {
	case domain.StatusInterviewScheduled, domain.StatusInterviewing, domain.StatusOffer, domain.StatusAccepted:
		return true
	}
	return false
}

func offered(a domain.JobApplication) bool {
	switch a.Status.Normalize() {
	case domain.StatusOffer, domain.StatusAccepted:
		return true
	}
	return false
}

// Funnel counts applications at or beyond each stage. Wishlist and
// Withdrawn applications are left out entirely. A rejection counts at the
// interview stage when its history shows an interview.
func Funnel(apps []domain.JobApplication) FunnelCounts {
	var f FunnelCounts
	for _, a := range apps {
		switch a.Status.Normalize() {
		case domain.StatusWishlist, domain.StatusWithdrawn:
			continue
		case domain.StatusRejected:
			f.Applied++
			if a.ReachedInterview() {
				f.Interview++
			}
			continue
		}
		f.Applied++
		if interviewed(a) {
			f.Interview++
		}
		if offered(a) {
			f.Offer++
		}
	}
	return f
}

// ResponseRate is the share of applied applications the employer
// responded to, in percent.
func ResponseRate(apps []domain.JobApplication) float64 {
	var total, hits int
	for _, a := range apps {
		if !applied(a) {
			continue
		}
		total++
		if responded(a) {
			hits++
		}
	}
	return percent(hits, total)
}

// InterviewConversionRate is the share of applied applications currently
// at an interview stage or beyond, in percent.
func InterviewConversionRate(apps []domain.JobApplication) float64 {
	var total, hits int
	for _, a := range apps {
		if !applied(a) {
			continue
		}
		total++
		if interviewed(a) {
			hits++
		}
	}
	return percent(hits, total)
}

// percent returns part/whole*100 rounded to one decimal, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
