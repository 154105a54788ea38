package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

// Logs reads the remote log service. Entries are read-only.
type Logs struct {
	relay *cookierelay.Relay
	path  string
}

// Query returns one page of log entries matching q.
func (l Logs) Query(ctx context.Context, store cookierelay.CookieStore, q domain.LogQuery) (domain.Page[domain.LogEntry], error) {
	var out domain.Page[domain.LogEntry]
	endpoint := l.path
	if v := LogQueryValues(q); len(v) > 0 {
		endpoint += "?" + v.Encode()
	}
	err := l.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodGet, Endpoint: endpoint}, &out)
	if out.Items == nil {
		out.Items = []domain.LogEntry{}
	}
	return out, err
}

// LogQueryValues encodes the non-zero filters of q.
func LogQueryValues(q domain.LogQuery) url.Values {
	v := url.Values{}
	if q.Level != "" {
		v.Set("level", string(q.Level))
	}
	if q.Message != "" {
		v.Set("message", q.Message)
	}
	if q.CorrelationID != "" {
		v.Set("correlation_id", q.CorrelationID)
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}
