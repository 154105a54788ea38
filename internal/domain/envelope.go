package domain

import (
	"encoding/json"
	"time"
)

// Envelope is the shape of every remote API response body.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// RawEnvelope keeps Data undecoded so it can be forwarded as is.
type RawEnvelope = Envelope[json.RawMessage]

// Page is a paginated list, as returned by the logs endpoint.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// LogLevel of a log entry.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
	LogDebug LogLevel = "debug"
)

// LogEntry is read-only, produced by the remote log service.
type LogEntry struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Level         LogLevel        `json:"level"`
	CorrelationID string          `json:"correlation_id"`
	Message       string          `json:"message"`
	UserID        string          `json:"user_id,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// LogQuery filters the logs endpoint. Zero values are not sent.
type LogQuery struct {
	Level         LogLevel
	Message       string
	CorrelationID string
	From          time.Time
	To            time.Time
	Page          int
	PageSize      int
}

// User is what /api/auth/me returns.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Verified  bool   `json:"is_verified"`
}
