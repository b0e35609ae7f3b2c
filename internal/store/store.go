package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// ErrNotFound is returned when no live record exists for the id.
var ErrNotFound = errors.New("record not found")

// Record is a versioned session snapshot.
type Record struct {
	Version int64
	Session *interview.Session
}

// Store persists one record per session.
type Store interface {
	// Get returns the record for id or ErrNotFound when absent or expired.
	Get(ctx context.Context, id string) (*Record, error)
	// CompareAndSet replaces the session when the stored version equals
	// expected. It returns false when the version moved on and ErrNotFound
	// when the record is gone. The TTL of the record is kept.
	CompareAndSet(ctx context.Context, id string, expected int64, session *interview.Session) (bool, error)
	// PutWithTTL writes the session unconditionally.
	PutWithTTL(ctx context.Context, id string, session *interview.Session, ttl time.Duration) error
}

func encode(session *interview.Session) ([]byte, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*interview.Session, error) {
	var session interview.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func validateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("session id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}
