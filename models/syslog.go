package models

import "time"

// LogLevel mirrors the level names the original Python services wrote to
// system_logs (shared/db_utils.log_system_event). They are stored as-is and
// are not zerolog level names (zerolog has no "warning" or "critical").
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
)

// SystemLog is an append-only audit row, written by Store.LogEvent for a
// subset of events: each worker's startup, per-symbol Indicator Engine
// failures and the Executor's exhausted stop attachment. Other events are
// logged through zerolog only and have no SystemLog row.
type SystemLog struct {
	ID          int64     `json:"id" db:"id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	ServiceName string    `json:"service_name" db:"service_name"`
	LogLevel    LogLevel  `json:"log_level" db:"log_level"`
	Message     string    `json:"message" db:"message"`
}
