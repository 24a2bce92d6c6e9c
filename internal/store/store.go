// Package store holds the durable state of the conversational backend: the
// mutable per-user profile snapshot and the append-only event log. Profiles
// are provisioned externally (see scripts/seed_users.go); this package only
// reads them and updates the latest_cgm/mood fields.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnknownUser is returned by the update operations when the target profile
// does not exist. Lookups report absence as (nil, nil) instead.
var ErrUnknownUser = errors.New("unknown user")

type LogType string

const (
	LogGlucose LogType = "GLUCOSE"
	LogMood    LogType = "MOOD"
	LogFood    LogType = "FOOD"
)

func ParseLogType(input string) (LogType, bool) {
	switch LogType(strings.ToUpper(strings.TrimSpace(input))) {
	case LogGlucose:
		return LogGlucose, true
	case LogMood:
		return LogMood, true
	case LogFood:
		return LogFood, true
	}
	return "", false
}

type UserProfile struct {
	UserID              string  `json:"user_id"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	City                string  `json:"city"`
	DietaryPreference   string  `json:"dietary_preference"`
	MedicalConditions   string  `json:"medical_conditions"`
	PhysicalLimitations string  `json:"physical_limitations"`
	LatestCGM           *int    `json:"latest_cgm"`
	Mood                *string `json:"mood"`
}

// LogEntry rows are write-once: they are inserted by the router after a
// successful extraction (unconditionally for FOOD) and never updated or
// deleted. FOOD and MOOD populate ValueText, GLUCOSE populates ValueInt.
type LogEntry struct {
	LogID     int64     `json:"log_id"`
	UserID    string    `json:"user_id"`
	Type      LogType   `json:"type"`
	ValueText *string   `json:"value_text"`
	ValueInt  *int      `json:"value_int"`
	Timestamp time.Time `json:"timestamp"`
}

type Store interface {
	// GetUser returns (nil, nil) when no profile exists for userID.
	GetUser(ctx context.Context, userID string) (*UserProfile, error)

	// AppendLog inserts an event and returns it with LogID and Timestamp set.
	AppendLog(ctx context.Context, userID string, logType LogType, valueText *string, valueInt *int) (LogEntry, error)

	// UpdateGlucose sets latest_cgm; ErrUnknownUser if the profile is absent.
	UpdateGlucose(ctx context.Context, userID string, value int) error

	// UpdateMood sets mood; ErrUnknownUser if the profile is absent.
	UpdateMood(ctx context.Context, userID string, mood string) error

	// ListLogs returns the newest entries first, optionally filtered by type.
	ListLogs(ctx context.Context, userID string, logType LogType, limit int) ([]LogEntry, error)
}
