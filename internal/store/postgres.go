package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const schema = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	id         TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	record     JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS interview_sessions_expires_at_idx ON interview_sessions (expires_at);
`

// Postgres keeps sessions in the interview_sessions table. Compare-and-set is
// a conditional UPDATE, so it is safe across processes.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool and verifies the connection.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the sessions table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Get(ctx context.Context, id string) (*Record, error) {
	var (
		version int64
		data    []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT version, record FROM interview_sessions
		 WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session, err := decode(data)
	if err != nil {
		return nil, err
	}
	return &Record{Version: version, Session: session}, nil
}

func (p *Postgres) CompareAndSet(ctx context.Context, id string, expected int64, session *interview.Session) (bool, error) {
	data, err := encode(session)
	if err != nil {
		return false, err
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE interview_sessions
		 SET version = version + 1, record = $3, updated_at = NOW()
		 WHERE id = $1 AND version = $2 AND expires_at > NOW()`,
		id, expected, data,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	err = p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM interview_sessions WHERE id = $1 AND expires_at > NOW())`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (p *Postgres) PutWithTTL(ctx context.Context, id string, session *interview.Session, ttl time.Duration) error {
	data, err := encode(session)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO interview_sessions (id, version, record, expires_at)
		 VALUES ($1, 1, $2, NOW() + $3::float8 * INTERVAL '1 second')
		 ON CONFLICT (id) DO UPDATE
		 SET version = interview_sessions.version + 1, record = $2, expires_at = NOW() + $3::float8 * INTERVAL '1 second', updated_at = NOW()`,
		id, data, ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired sessions and returns how many were removed.
func (p *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM interview_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
