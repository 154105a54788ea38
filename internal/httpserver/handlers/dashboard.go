package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/analytics"
	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/cache"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
	"github.com/MrSnakeDoc/jobtrail/internal/httpserver/deps"
)

type timingResponse struct {
	Days    []analytics.DayBucket    `json:"days"`
	Hours   []analytics.HourBucket   `json:"hours"`
	Methods []analytics.MethodBucket `json:"methods"`
}

// DashboardAnalytics serves the analytics page data computed from the
// user's applications and interviews.
func DashboardAnalytics(d deps.Deps) http.HandlerFunc {
	return recordsHandler(d, true, func(apps []domain.JobApplication, interviews []domain.Interview) any {
		return analytics.Summarize(apps, interviews, d.Now())
	})
}

// SalaryInsights serves the salary statistics of the user's applications.
func SalaryInsights(d deps.Deps) http.HandlerFunc {
	return recordsHandler(d, false, func(apps []domain.JobApplication, _ []domain.Interview) any {
		return analytics.SalaryAnalysis(apps)
	})
}

// TimingInsights serves the best days, best hours and per-method success
// rates of the user's applications.
func TimingInsights(d deps.Deps) http.HandlerFunc {
	return recordsHandler(d, false, func(apps []domain.JobApplication, _ []domain.Interview) any {
		return timingResponse{
			Days:    analytics.BestDaysToApply(apps),
			Hours:   analytics.BestHoursToApply(apps),
			Methods: analytics.SuccessByMethod(apps),
		}
	})
}

func recordsHandler(d deps.Deps, withInterviews bool, compute func([]domain.JobApplication, []domain.Interview) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := newSession(d, w, r)
		ctx, cancel := withUpstreamTimeout(r.Context(), d)
		defer cancel()

		var (
			apps       []domain.JobApplication
			interviews []domain.Interview
		)
		err := s.authorized(ctx, func(ctx context.Context) error {
			var err error
			apps, err = cache.Fetch(ctx, d.Cache, s.accessToken(), "applications",
				func(ctx context.Context) ([]domain.JobApplication, error) {
					return d.Remote.Applications.List(ctx, s.store, nil)
				})
			if err != nil || !withInterviews {
				return err
			}
			interviews, err = cache.Fetch(ctx, d.Cache, s.accessToken(), "interviews",
				func(ctx context.Context) ([]domain.Interview, error) {
					return d.Remote.Interviews.List(ctx, s.store, nil)
				})
			return err
		})
		if err != nil {
			if apierr.IsUnauthorized(err) {
				s.signalUnauthenticated(w)
			}
			writeError(w, r, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, compute(apps, interviews))
	}
}

// Logs serves one page of the remote log service, filtered by the
// level, message, correlation_id, from, to, page and page_size query
// parameters. Dates are RFC3339.
func Logs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseLogQuery(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		s := newSession(d, w, r)
		ctx, cancel := withUpstreamTimeout(r.Context(), d)
		defer cancel()

		var page domain.Page[domain.LogEntry]
		err = s.authorized(ctx, func(ctx context.Context) error {
			var err error
			page, err = d.Remote.Logs.Query(ctx, s.store, q)
			return err
		})
		if err != nil {
			if apierr.IsUnauthorized(err) {
				s.signalUnauthenticated(w)
			}
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func parseLogQuery(r *http.Request) (domain.LogQuery, error) {
	v := r.URL.Query()
	q := domain.LogQuery{
		Level:         domain.LogLevel(v.Get("level")),
		Message:       v.Get("message"),
		CorrelationID: v.Get("correlation_id"),
	}
	switch q.Level {
	case "", domain.LogDebug, domain.LogInfo, domain.LogWarn, domain.LogError:
	default:
		return q, apierr.FromStatus("logs", http.StatusBadRequest, "invalid level: "+string(q.Level))
	}

	for name, dst := range map[string]*time.Time{"from": &q.From, "to": &q.To} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, apierr.FromStatus("logs", http.StatusBadRequest, "invalid "+name+" date: "+raw)
		}
		*dst = t
	}

	for name, dst := range map[string]*int{"page": &q.Page, "page_size": &q.PageSize} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, apierr.FromStatus("logs", http.StatusBadRequest, "invalid "+name+": "+raw)
		}
		*dst = n
	}
	return q, nil
}
