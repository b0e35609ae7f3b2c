package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleSession(id string) *interview.Session {
	return &interview.Session{
		ID: id,
		Profile: interview.Profile{
			Name:     "Ada",
			Position: "Engineer",
			Tier:     interview.TierMid,
			Type:     interview.TypeTechnical,
		},
		Status:         interview.StatusInProgress,
		Difficulty:     interview.DifficultyState{Current: interview.Easy},
		CreatedAt:      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		DurationBudget: time.Hour,
	}
}

// exerciseStore checks the behavior every Store implementation shares.
func exerciseStore(t *testing.T, st Store, clock *fakeClock) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := st.CompareAndSet(ctx, "missing", 1, sampleSession("missing"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, ok)

	require.NoError(t, st.PutWithTTL(ctx, "s1", sampleSession("s1"), time.Hour))

	rec, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, "s1", rec.Session.ID)

	rec.Session.PhaseCursor = 3
	ok, err = st.CompareAndSet(ctx, "s1", rec.Version, rec.Session)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.CompareAndSet(ctx, "s1", rec.Version, rec.Session)
	require.NoError(t, err)
	assert.False(t, ok, "stale version must be rejected")

	updated, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 3, updated.Session.PhaseCursor)

	updated.Session.PhaseCursor = 4
	assert.NotEqual(t, 4, mustGet(t, st, "s1").Session.PhaseCursor, "returned sessions must not alias stored state")

	clock.Advance(time.Hour)
	_, err = st.Get(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound, "record must expire with its TTL")
}

func mustGet(t *testing.T, st Store, id string) *Record {
	t.Helper()
	rec, err := st.Get(context.Background(), id)
	require.NoError(t, err)
	return rec
}

func TestMemoryStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	st := NewMemory()
	st.now = clock.Now

	exerciseStore(t, st, clock)
}

func TestFileStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	dir := t.TempDir()
	st, err := NewFile(dir)
	require.NoError(t, err)
	st.now = clock.Now

	exerciseStore(t, st, clock)

	_, err = os.Stat(filepath.Join(dir, "s1.json"))
	assert.True(t, os.IsNotExist(err), "expired file must be removed")
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	st, err := NewFile(t.TempDir())
	require.NoError(t, err)

	err = st.PutWithTTL(context.Background(), "../escape", sampleSession("x"), time.Hour)
	require.Error(t, err)
}

func TestPutWithTTLOverwritesAndBumpsVersion(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.PutWithTTL(ctx, "s1", sampleSession("s1"), time.Hour))
	require.NoError(t, st.PutWithTTL(ctx, "s1", sampleSession("s1"), time.Hour))

	assert.Equal(t, int64(2), mustGet(t, st, "s1").Version)
}

func TestMemoryStoreConcurrentCompareAndSet(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	require.NoError(t, st.PutWithTTL(ctx, "s1", sampleSession("s1"), time.Hour))

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.CompareAndSet(ctx, "s1", 1, sampleSession("s1"))
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one writer may win a version")
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("HH_INTERVIEWER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HH_INTERVIEWER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	st, err := ConnectPostgres(ctx, url)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.EnsureSchema(ctx))

	id := "test-" + time.Now().UTC().Format("20060102150405.000000000")
	require.NoError(t, st.PutWithTTL(ctx, id, sampleSession(id), time.Minute))

	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	ok, err := st.CompareAndSet(ctx, id, rec.Version, rec.Session)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.CompareAndSet(ctx, id, rec.Version, rec.Session)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.Get(ctx, "missing-"+id)
	require.ErrorIs(t, err, ErrNotFound)
}
