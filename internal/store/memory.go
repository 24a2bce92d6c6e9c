package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and keyless local runs. It
// mirrors the Postgres semantics: absent lookups return (nil, nil), updates on
// unknown users fail with ErrUnknownUser, log ids increase monotonically.
type Memory struct {
	mu     sync.Mutex
	users  map[string]UserProfile
	logs   []LogEntry
	nextID int64
}

func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]UserProfile),
		nextID: 1,
	}
}

// AddUser provisions a profile. Provisioning is external to the router, so
// this exists only for seeding test and dev instances.
func (m *Memory) AddUser(profile UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[profile.UserID] = profile
}

func (m *Memory) GetUser(_ context.Context, userID string) (*UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	copied := profile
	return &copied, nil
}

func (m *Memory) AppendLog(_ context.Context, userID string, logType LogType, valueText *string, valueInt *int) (LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return LogEntry{}, ErrUnknownUser
	}

	entry := LogEntry{
		LogID:     m.nextID,
		UserID:    userID,
		Type:      logType,
		ValueText: valueText,
		ValueInt:  valueInt,
		Timestamp: time.Now().UTC(),
	}
	m.nextID++
	m.logs = append(m.logs, entry)
	return entry, nil
}

func (m *Memory) UpdateGlucose(_ context.Context, userID string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.users[userID]
	if !ok {
		return ErrUnknownUser
	}
	profile.LatestCGM = &value
	m.users[userID] = profile
	return nil
}

func (m *Memory) UpdateMood(_ context.Context, userID string, mood string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.users[userID]
	if !ok {
		return ErrUnknownUser
	}
	profile.Mood = &mood
	m.users[userID] = profile
	return nil
}

func (m *Memory) ListLogs(_ context.Context, userID string, logType LogType, limit int) ([]LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	entries := make([]LogEntry, 0)
	for idx := len(m.logs) - 1; idx >= 0 && len(entries) < limit; idx-- {
		entry := m.logs[idx]
		if entry.UserID != userID {
			continue
		}
		if logType != "" && entry.Type != logType {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
