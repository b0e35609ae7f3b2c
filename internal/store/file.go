package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// fileRecord is the on-disk envelope of one session.
type fileRecord struct {
	Version   int64           `json:"version"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   json.RawMessage `json:"session"`
}

// File keeps one JSON document per session in a directory. Writes go through a
// temporary file and a rename, so readers never see a partial document.
// Compare-and-set is atomic only for writers sharing the same File value.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFile creates dir when needed and returns a store rooted in it.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %q: %w", dir, err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

func (f *File) Get(_ context.Context, id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	f.mu.Lock()
	rec, err := f.read(id)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	session, err := decode(rec.Session)
	if err != nil {
		return nil, err
	}
	return &Record{Version: rec.Version, Session: session}, nil
}

func (f *File) CompareAndSet(_ context.Context, id string, expected int64, session *interview.Session) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	data, err := encode(session)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.read(id)
	if err != nil {
		return false, err
	}
	if rec.Version != expected {
		return false, nil
	}

	rec.Version++
	rec.Session = data
	if err := f.write(id, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (f *File) PutWithTTL(_ context.Context, id string, session *interview.Session, ttl time.Duration) error {
	if err := validateID(id); err != nil {
		return err
	}
	data, err := encode(session)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	version := int64(1)
	if existing, err := f.read(id); err == nil {
		version = existing.Version + 1
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return f.write(id, &fileRecord{Version: version, ExpiresAt: f.now().Add(ttl).UTC(), Session: data})
}

func (f *File) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// read loads a live record; expired documents are removed. The caller holds f.mu.
func (f *File) read(id string) (*fileRecord, error) {
	file, err := os.Open(f.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer file.Close()

	var rec fileRecord
	if err := json.NewDecoder(file).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding session file %q: %w", file.Name(), err)
	}

	if !f.now().Before(rec.ExpiresAt) {
		if err := os.Remove(f.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing expired session file: %w", err)
		}
		return nil, ErrNotFound
	}

	return &rec, nil
}

func (f *File) write(id string, rec *fileRecord) error {
	tmp, err := os.CreateTemp(f.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path(id)); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
