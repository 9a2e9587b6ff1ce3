package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

// PostgresStore persists user profiles and daily lesson records. The
// lesson record is stored as a single JSONB document per user: every
// operation reads the whole document and writes the whole document
// back, so a request cycle never depends on in-process state.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type userRow struct {
	TelegramID int64          `db:"telegram_id"`
	FirstName  string         `db:"first_name"`
	Topics     pq.StringArray `db:"topics"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Profile loads the user's profile, or nil when not registered.
func (s *PostgresStore) Profile(ctx context.Context, userID int64) (*lesson.Profile, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT telegram_id, first_name, topics, created_at FROM users WHERE telegram_id = $1`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &lesson.Profile{
		TelegramID: row.TelegramID,
		FirstName:  row.FirstName,
		Topics:     row.Topics,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// SaveProfile inserts the profile, updating the name on conflict.
func (s *PostgresStore) SaveProfile(ctx context.Context, p *lesson.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, first_name, topics, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (telegram_id) DO UPDATE SET first_name = EXCLUDED.first_name`,
		p.TelegramID, p.FirstName, pq.StringArray(p.Topics), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// State loads the user's lesson record, or nil when absent. Staleness
// is the caller's concern; the row is returned as stored.
func (s *PostgresStore) State(ctx context.Context, userID int64) (*lesson.State, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw,
		`SELECT state FROM lesson_states WHERE telegram_id = $1`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	var st lesson.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

// SaveState upserts the full lesson record.
func (s *PostgresStore) SaveState(ctx context.Context, userID int64, st *lesson.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lesson_states (telegram_id, state, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (telegram_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		userID, raw,
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

// DeleteState removes the user's lesson record. Deleting a missing
// record is not an error.
func (s *PostgresStore) DeleteState(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM lesson_states WHERE telegram_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// ActiveProfiles returns every registered user, for the daily push.
func (s *PostgresStore) ActiveProfiles(ctx context.Context) ([]lesson.Profile, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT telegram_id, first_name, topics, created_at FROM users ORDER BY telegram_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	out := make([]lesson.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, lesson.Profile{
			TelegramID: row.TelegramID,
			FirstName:  row.FirstName,
			Topics:     row.Topics,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
