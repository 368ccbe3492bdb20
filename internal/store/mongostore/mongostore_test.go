package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

var testNow = time.Date(2026, time.April, 6, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("CODEQUEST_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CODEQUEST_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := New(ctx, uri, "codequest_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "u1")
	require.ErrorIs(t, err, progress.ErrProfileNotFound)

	p, err := s.PutProfile(ctx, "u1", model.NewProfile("u1", 5, testNow))
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.Version)
	assert.Equal(t, model.LeagueBronze, p.League)

	p.XP = 25
	p.LastActivityDate = model.Date{Year: 2026, Month: time.April, Day: 6}
	p.Attempts = append(p.Attempts, model.AttemptRecord{
		ID: "a1", ProblemID: "two-sum", Timestamp: testNow, Outcome: model.AttemptSolved,
	})
	p, err = s.PutProfile(ctx, "u1", p)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Version)

	got, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, got.XP)
	assert.Equal(t, p.LastActivityDate, got.LastActivityDate)
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, model.AttemptSolved, got.Attempts[0].Outcome)
}

func TestPutProfileConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PutProfile(ctx, "u1", model.NewProfile("u1", 5, testNow))
	require.NoError(t, err)

	_, err = s.PutProfile(ctx, "u1", model.NewProfile("u1", 5, testNow))
	assert.ErrorIs(t, err, progress.ErrStoreConflict, "duplicate create")

	a, _ := s.GetProfile(ctx, "u1")
	b, _ := s.GetProfile(ctx, "u1")
	a.XP = 10
	_, err = s.PutProfile(ctx, "u1", a)
	require.NoError(t, err)
	b.XP = 99
	_, err = s.PutProfile(ctx, "u1", b)
	assert.ErrorIs(t, err, progress.ErrStoreConflict, "stale writer")
}

func TestAttemptsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := model.NewProfile("u1", 5, testNow)
	p.Attempts = []model.AttemptRecord{{ID: "a1", ProblemID: "p1", Timestamp: testNow, Outcome: model.AttemptFailed}}
	p, err := s.PutProfile(ctx, "u1", p)
	require.NoError(t, err)

	p.Attempts = []model.AttemptRecord{
		{ID: "a1", ProblemID: "p1", Timestamp: testNow, Outcome: model.AttemptSolved},
		{ID: "a2", ProblemID: "p1", Timestamp: testNow, Outcome: model.AttemptSolved},
	}
	p, err = s.PutProfile(ctx, "u1", p)
	require.NoError(t, err)
	require.Len(t, p.Attempts, 2)
	assert.Equal(t, model.AttemptFailed, p.Attempts[0].Outcome)
}

func TestMarksBeforeProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMark(ctx, "u1", "two-sum", model.ProblemMark{Starred: true, Notes: "hash map"}))

	_, err := s.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, progress.ErrProfileNotFound, "marks alone are not a profile")

	_, err = s.PutProfile(ctx, "u1", model.NewProfile("u1", 5, testNow))
	require.NoError(t, err)

	marks, err := s.GetMarks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.ProblemMark{Starred: true, Notes: "hash map"}, marks["two-sum"])

	assert.Error(t, s.SetMark(ctx, "u1", "bad.id", model.ProblemMark{}))
}

func TestListProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"carol", "alice", "bob"} {
		_, err := s.PutProfile(ctx, id, model.NewProfile(id, 5, testNow))
		require.NoError(t, err)
	}
	require.NoError(t, s.SetMark(ctx, "dave", "p1", model.ProblemMark{Starred: true}))

	list, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0].UserID)
	assert.Equal(t, "carol", list[2].UserID)
}
