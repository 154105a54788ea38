package analytics

import (
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

type DayBucket struct {
	Day          string  `json:"day"`
	Weekday      int     `json:"weekday"`
	Applications int     `json:"applications"`
	Responses    int     `json:"responses"`
	ResponseRate float64 `json:"response_rate"`
}

type HourBucket struct {
	Hour         int     `json:"hour"`
	Label        string  `json:"label"`
	Applications int     `json:"applications"`
	Responses    int     `json:"responses"`
	ResponseRate float64 `json:"response_rate"`
}

// BestDaysToApply returns the response rate per weekday of the
// application date, always seven buckets from Sunday to Saturday.
// Dates are read in the location they carry.
func BestDaysToApply(apps []domain.JobApplication) []DayBucket {
	out := make([]DayBucket, 7)
	for d := range out {
		out[d] = DayBucket{Day: time.Weekday(d).String(), Weekday: d}
	}
	for _, a := range apps {
		if !applied(a) || a.ApplicationDate == nil {
			continue
		}
		b := &out[a.ApplicationDate.Weekday()]
		b.Applications++
		if responded(a) {
			b.Responses++
		}
	}
	for d := range out {
		out[d].ResponseRate = percent(out[d].Responses, out[d].Applications)
	}
	return out
}

// BestHoursToApply is BestDaysToApply by hour of day, always 24 buckets.
func BestHoursToApply(apps []domain.JobApplication) []HourBucket {
	out := make([]HourBucket, 24)
	for h := range out {
		out[h] = HourBucket{Hour: h, Label: fmt.Sprintf("%02d:00", h)}
	}
	for _, a := range apps {
		if !applied(a) || a.ApplicationDate == nil {
			continue
		}
		b := &out[a.ApplicationDate.Hour()]
		b.Applications++
		if responded(a) {
			b.Responses++
		}
	}
	for h := range out {
		out[h].ResponseRate = percent(out[h].Responses, out[h].Applications)
	}
	return out
}
