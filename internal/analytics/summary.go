package analytics

import (
	"sort"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

type StatusCount struct {
	Status domain.Status `json:"status"`
	Count  int           `json:"count"`
}

// Dashboard is everything the analytics page shows.
type Dashboard struct {
	Total                   int               `json:"total"`
	ByStatus                []StatusCount     `json:"by_status"`
	Funnel                  FunnelCounts      `json:"funnel"`
	ResponseRate            float64           `json:"response_rate"`
	InterviewConversionRate float64           `json:"interview_conversion_rate"`
	BestDays                []DayBucket       `json:"best_days"`
	BestHours               []HourBucket      `json:"best_hours"`
	Methods                 []MethodBucket    `json:"methods"`
	Salary                  SalaryStats       `json:"salary"`
	UpcomingInterviews      int               `json:"upcoming_interviews"`
	NextInterview           *domain.Interview `json:"next_interview,omitempty"`
}

// StatusBreakdown counts applications per known status in pipeline order,
// zero counts included. Unknown statuses are appended sorted by name.
func StatusBreakdown(apps []domain.JobApplication) []StatusCount {
	counts := map[domain.Status]int{}
	for _, a := range apps {
		counts[a.Status.Normalize()]++
	}

	out := make([]StatusCount, 0, len(counts))
	for _, st := range domain.Statuses() {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
		delete(counts, st)
	}
	extra := make([]StatusCount, 0, len(counts))
	for st, n := range counts {
		extra = append(extra, StatusCount{Status: st, Count: n})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Status < extra[j].Status })
	return append(out, extra...)
}

// Upcoming returns the interviews scheduled after now and not completed,
// earliest first.
func Upcoming(interviews []domain.Interview, now time.Time) []domain.Interview {
	out := []domain.Interview{}
	for _, iv := range interviews {
		if iv.CompletedAt == nil && iv.ScheduledAt.After(now) {
			out = append(out, iv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// Summarize computes the full dashboard.
func Summarize(apps []domain.JobApplication, interviews []domain.Interview, now time.Time) Dashboard {
	d := Dashboard{
		Total:                   len(apps),
		ByStatus:                StatusBreakdown(apps),
		Funnel:                  Funnel(apps),
		ResponseRate:            ResponseRate(apps),
		InterviewConversionRate: InterviewConversionRate(apps),
		BestDays:                BestDaysToApply(apps),
		BestHours:               BestHoursToApply(apps),
		Methods:                 SuccessByMethod(apps),
		Salary:                  SalaryAnalysis(apps),
	}
	upcoming := Upcoming(interviews, now)
	d.UpcomingInterviews = len(upcoming)
	if len(upcoming) > 0 {
		next := upcoming[0]
		d.NextInterview = &next
	}
	return d
}
