package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/apierr"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
	"github.com/MrSnakeDoc/jobtrail/internal/trace"
)

// writeJSON answers with v wrapped in a success envelope.
func writeJSON[T any](w http.ResponseWriter, status int, v T) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.Envelope[T]{Success: true, Data: v})
}

// writeError answers with the status and user-facing message of err,
// in the remote API's error envelope.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := apierr.StatusOf(err)
	if status >= 500 {
		log.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.String("correlation_id", trace.ID(r.Context())),
			logger.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.Envelope[struct{}]{Message: apierr.Message(err)})
}
