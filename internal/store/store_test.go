package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/progress"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testNow = time.Date(2026, time.April, 6, 12, 0, 0, 0, time.UTC)

func createTestProfile(t *testing.T, s *Store, userID string) model.LearnerProfile {
	t.Helper()
	p, err := s.PutProfile(context.Background(), userID, model.NewProfile(userID, 5, testNow))
	if err != nil {
		t.Fatalf("createTestProfile: %v", err)
	}
	return p
}

func TestGetProfileNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, progress.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := createTestProfile(t, s, "u1")
	if p.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", p.Version)
	}

	p.XP = 35
	p.LeagueXP = 35
	p.StreakCount = 4
	p.StreakFreezes = 2
	p.LastActivityDate = model.Date{Year: 2026, Month: time.April, Day: 6}
	p.FreezeProtectedDate = model.Date{Year: 2026, Month: time.April, Day: 5}
	p.League = model.LeagueGold
	p.Timezone = "Europe/Berlin"
	p.Attempts = []model.AttemptRecord{
		{ID: "a1", ProblemID: "two-sum", Timestamp: testNow, Outcome: model.AttemptFailed},
		{ID: "a2", ProblemID: "two-sum", Timestamp: testNow.Add(time.Minute), Outcome: model.AttemptSolved},
	}

	stored, err := s.PutProfile(ctx, "u1", p)
	if err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	if stored.Version != 2 {
		t.Errorf("expected version 2, got %d", stored.Version)
	}

	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.XP != 35 || got.LeagueXP != 35 || got.StreakCount != 4 || got.StreakFreezes != 2 {
		t.Errorf("counters not persisted: %+v", got)
	}
	if got.LastActivityDate != p.LastActivityDate {
		t.Errorf("expected last activity %s, got %s", p.LastActivityDate, got.LastActivityDate)
	}
	if got.FreezeProtectedDate != p.FreezeProtectedDate {
		t.Errorf("expected protected date %s, got %s", p.FreezeProtectedDate, got.FreezeProtectedDate)
	}
	if got.League != model.LeagueGold || got.Timezone != "Europe/Berlin" {
		t.Errorf("expected gold/Europe/Berlin, got %s/%s", got.League, got.Timezone)
	}
	if len(got.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got.Attempts))
	}
	if got.Attempts[0].ID != "a1" || got.Attempts[1].Outcome != model.AttemptSolved {
		t.Errorf("attempts out of order: %+v", got.Attempts)
	}
	if !got.Attempts[1].Timestamp.Equal(testNow.Add(time.Minute)) {
		t.Errorf("expected timestamp %v, got %v", testNow.Add(time.Minute), got.Attempts[1].Timestamp)
	}
}

func TestPutProfileVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A second create for the same learner loses.
	createTestProfile(t, s, "u1")
	_, err := s.PutProfile(ctx, "u1", model.NewProfile("u1", 5, testNow))
	if !errors.Is(err, progress.ErrStoreConflict) {
		t.Fatalf("expected ErrStoreConflict on duplicate create, got %v", err)
	}

	// Two writers read version 1; only the first write lands.
	a, _ := s.GetProfile(ctx, "u1")
	b, _ := s.GetProfile(ctx, "u1")
	a.XP = 10
	if _, err := s.PutProfile(ctx, "u1", a); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	b.XP = 99
	if _, err := s.PutProfile(ctx, "u1", b); !errors.Is(err, progress.ErrStoreConflict) {
		t.Fatalf("expected ErrStoreConflict for stale writer, got %v", err)
	}

	got, _ := s.GetProfile(ctx, "u1")
	if got.XP != 10 {
		t.Errorf("expected XP 10 from winning writer, got %d", got.XP)
	}
}

func TestAttemptsAreAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := createTestProfile(t, s, "u1")
	p.Attempts = []model.AttemptRecord{{ID: "a1", ProblemID: "p1", Timestamp: testNow, Outcome: model.AttemptFailed}}
	p, err := s.PutProfile(ctx, "u1", p)
	if err != nil {
		t.Fatalf("PutProfile: %v", err)
	}

	// Rewriting an existing record and dropping history has no effect.
	p.Attempts = []model.AttemptRecord{{ID: "a1", ProblemID: "p1", Timestamp: testNow, Outcome: model.AttemptSolved}}
	p, err = s.PutProfile(ctx, "u1", p)
	if err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	p.Attempts = nil
	if _, err := s.PutProfile(ctx, "u1", p); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}

	got, _ := s.GetProfile(ctx, "u1")
	if len(got.Attempts) != 1 || got.Attempts[0].Outcome != model.AttemptFailed {
		t.Errorf("expected original failed attempt kept, got %+v", got.Attempts)
	}
}

func TestListProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	createTestProfile(t, s, "carol")
	createTestProfile(t, s, "alice")
	createTestProfile(t, s, "bob")

	list, _ = s.ListProfiles(ctx)
	if len(list) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(list))
	}
	if list[0].UserID != "alice" || list[2].UserID != "carol" {
		t.Errorf("expected profiles ordered by user id, got %s..%s", list[0].UserID, list[2].UserID)
	}
}

func TestMarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	marks, err := s.GetMarks(ctx, "u1")
	if err != nil {
		t.Fatalf("GetMarks: %v", err)
	}
	if len(marks) != 0 {
		t.Fatalf("expected no marks, got %v", marks)
	}

	if err := s.SetMark(ctx, "u1", "two-sum", model.ProblemMark{Starred: true, Notes: "hash map"}); err != nil {
		t.Fatalf("SetMark: %v", err)
	}
	if err := s.SetMark(ctx, "u1", "two-sum", model.ProblemMark{Starred: false, Notes: "hash map, O(n)"}); err != nil {
		t.Fatalf("SetMark update: %v", err)
	}
	if err := s.SetMark(ctx, "u2", "two-sum", model.ProblemMark{Starred: true}); err != nil {
		t.Fatalf("SetMark other user: %v", err)
	}

	marks, _ = s.GetMarks(ctx, "u1")
	if len(marks) != 1 {
		t.Fatalf("expected 1 mark, got %d", len(marks))
	}
	if m := marks["two-sum"]; m.Starred || m.Notes != "hash map, O(n)" {
		t.Errorf("expected updated mark, got %+v", m)
	}
}

func TestReplaceProblemsKeepsOrder(t *testing.T) {
	s := newTestStore(t)

	if err := s.ReplaceProblems([]model.Problem{
		{ID: "p2", Title: "Second", Category: "arrays"},
		{ID: "p1", Title: "First", Category: "arrays", Difficulty: model.DifficultyEasy},
	}); err != nil {
		t.Fatalf("ReplaceProblems: %v", err)
	}
	list, err := s.ListProblems()
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}
	if len(list) != 2 || list[0].ID != "p2" || list[1].Difficulty != model.DifficultyEasy {
		t.Errorf("unexpected catalog %+v", list)
	}

	if err := s.ReplaceProblems([]model.Problem{{ID: "p3", Title: "Third", Category: "lists"}}); err != nil {
		t.Fatalf("ReplaceProblems: %v", err)
	}
	list, _ = s.ListProblems()
	if len(list) != 1 {
		t.Errorf("expected 1 problem after replace, got %d", len(list))
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	// Missing file returns empty string.
	hash, err := s.GetImportedFileHash("/some/catalog.yaml")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/catalog.yaml", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.SetImportedFileHash("/some/catalog.yaml", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/catalog.yaml")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("last_league_rollover")
	if err != nil || v != "" {
		t.Fatalf("expected empty value, got %q, %v", v, err)
	}
	if err := s.SetMetadata("last_league_rollover", "2026-04-06"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	v, _ = s.GetMetadata("last_league_rollover")
	if v != "2026-04-06" {
		t.Errorf("expected 2026-04-06, got %q", v)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil || count != 0 {
		t.Fatalf("expected no users, got %d, %v", count, err)
	}

	id, err := s.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "hash",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleAdmin || !u.Active {
		t.Errorf("unexpected user %+v", u)
	}

	missing, err := s.GetUserByUsername("ghost")
	if err != nil || missing != nil {
		t.Errorf("expected nil user, got %+v, %v", missing, err)
	}

	if _, err := s.CreateUser(model.User{Username: "admin", PasswordHash: "x", Role: model.UserRoleOperator}); err == nil {
		t.Error("expected duplicate username to fail")
	}
}
