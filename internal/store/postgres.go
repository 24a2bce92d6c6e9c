package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type Postgres struct {
	db dbQuerier
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// EnsureSchema creates the users and logs tables when they do not exist yet.
// The column names and the GLUCOSE/MOOD/FOOD type values are a stable contract
// read by external provisioning and reporting tooling.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			first_name TEXT,
			last_name TEXT,
			city TEXT,
			dietary_preference TEXT,
			medical_conditions TEXT,
			physical_limitations TEXT,
			latest_cgm INTEGER,
			mood TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS logs (
			log_id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(user_id),
			type TEXT NOT NULL,
			value_text TEXT,
			value_int INTEGER,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS logs_user_time_idx ON logs (user_id, timestamp DESC)`,
	}
	for _, statement := range statements {
		if _, err := pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const profileColumns = `user_id, first_name, last_name, city, dietary_preference,
	medical_conditions, physical_limitations, latest_cgm, mood`

// scanProfile is the single place the users row shape is mapped to the struct.
// Column order must match profileColumns.
func scanProfile(row pgx.Row) (*UserProfile, error) {
	var profile UserProfile
	err := row.Scan(
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.City,
		&profile.DietaryPreference,
		&profile.MedicalConditions,
		&profile.PhysicalLimitations,
		&profile.LatestCGM,
		&profile.Mood,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *Postgres) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	profile, err := scanProfile(p.db.QueryRow(
		ctx,
		`SELECT `+profileColumns+` FROM users WHERE user_id = $1`,
		userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return profile, nil
}

func (p *Postgres) AppendLog(ctx context.Context, userID string, logType LogType, valueText *string, valueInt *int) (LogEntry, error) {
	entry := LogEntry{
		UserID:    userID,
		Type:      logType,
		ValueText: valueText,
		ValueInt:  valueInt,
	}
	err := p.db.QueryRow(
		ctx,
		`INSERT INTO logs (user_id, type, value_text, value_int)
		 VALUES ($1, $2, $3, $4)
		 RETURNING log_id, timestamp`,
		userID,
		string(logType),
		valueText,
		valueInt,
	).Scan(&entry.LogID, &entry.Timestamp)
	if err != nil {
		return LogEntry{}, fmt.Errorf("append %s log for user %s: %w", logType, userID, err)
	}
	return entry, nil
}

func (p *Postgres) UpdateGlucose(ctx context.Context, userID string, value int) error {
	tag, err := p.db.Exec(
		ctx,
		`UPDATE users SET latest_cgm = $2 WHERE user_id = $1`,
		userID,
		value,
	)
	if err != nil {
		return fmt.Errorf("update latest_cgm for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}

func (p *Postgres) UpdateMood(ctx context.Context, userID string, mood string) error {
	tag, err := p.db.Exec(
		ctx,
		`UPDATE users SET mood = $2 WHERE user_id = $1`,
		userID,
		mood,
	)
	if err != nil {
		return fmt.Errorf("update mood for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}

func (p *Postgres) ListLogs(ctx context.Context, userID string, logType LogType, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT log_id, user_id, type, value_text, value_int, timestamp
		FROM logs WHERE user_id = $1`
	args := []any{userID}
	if logType != "" {
		query += ` AND type = $2`
		args = append(args, string(logType))
	}
	query += fmt.Sprintf(` ORDER BY timestamp DESC, log_id DESC LIMIT %d`, limit)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0)
	for rows.Next() {
		var entry LogEntry
		var rawType string
		if err := rows.Scan(
			&entry.LogID,
			&entry.UserID,
			&rawType,
			&entry.ValueText,
			&entry.ValueInt,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		entry.Type = LogType(rawType)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list logs for user %s: %w", userID, err)
	}
	return entries, nil
}
