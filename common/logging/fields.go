package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging across services.
const (
	FieldService    = "service"
	FieldRequestID  = "request_id"
	FieldEventID    = "event_id"
	FieldDetailType = "detail_type"
	FieldSource     = "source"
	FieldUserID     = "user_id"
	FieldChannel    = "channels"
	FieldOutcome    = "outcome"
	FieldAttempt    = "attempt"
	FieldReason     = "reason"
	FieldCount      = "count"
	FieldIP         = "ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// EventID returns a slog attribute for an event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// DetailType returns a slog attribute for an envelope detail type.
func DetailType(t string) slog.Attr {
	return slog.String(FieldDetailType, t)
}

// Source returns a slog attribute for the emitting event source.
func Source(s string) slog.Attr {
	return slog.String(FieldSource, s)
}

// UserID returns a slog attribute for the user ID.
func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

// Channels returns a slog attribute listing delivery channels.
func Channels(channels []string) slog.Attr {
	return slog.Any(FieldChannel, channels)
}

// Outcome returns a slog attribute for a processing outcome.
func Outcome(o string) slog.Attr {
	return slog.String(FieldOutcome, o)
}

// Attempt returns a slog attribute for a delivery attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Reason returns a slog attribute for a failure or drop reason.
func Reason(r string) slog.Attr {
	return slog.String(FieldReason, r)
}

// Count returns a slog attribute for a count of items.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// IP returns a slog attribute for the IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for an elapsed duration in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns a slog attribute for an error. A nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
