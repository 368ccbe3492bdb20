package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/codequest/internal/league"
	"github.com/pavelanni/codequest/internal/model"
	"github.com/pavelanni/codequest/internal/store"
)

func TestSeedAdmin(t *testing.T) {
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	if err := seedAdmin(db, ""); err == nil {
		t.Fatal("expected error without a password")
	}
	if err := seedAdmin(db, "s3cret"); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	u, err := db.GetUserByUsername("admin")
	if err != nil || u == nil {
		t.Fatalf("expected admin user, got %v, %v", u, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")) != nil {
		t.Error("stored hash does not match the password")
	}

	// A second run is a no-op even with a different password.
	if err := seedAdmin(db, "other"); err != nil {
		t.Fatalf("seedAdmin again: %v", err)
	}
	if n, _ := db.UserCount(); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestPrintProfile(t *testing.T) {
	color.NoColor = true

	p := model.NewProfile("alice", 5, time.Date(2026, time.April, 6, 12, 0, 0, 0, time.UTC))
	p.Hearts = 3
	p.XP = 120
	p.StreakCount = 4
	p.LastActivityDate = model.Date{Year: 2026, Month: time.April, Day: 6}
	units := []model.Unit{
		{Category: "arrays", Completed: 2, Nodes: make([]model.LessonNode, 2)},
		{Category: "lists", Completed: 0, Nodes: make([]model.LessonNode, 3)},
	}

	var buf bytes.Buffer
	printProfile(&buf, p, 5, units)
	out := buf.String()

	for _, want := range []string{"alice", "3/5", "120", "bronze, tier 1 of 10", "4 days, last active 2026-04-06", "UTC", "arrays", "2/2", "0/3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootDefaultsToServe(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"addr", "catalog", "jwt-secret", "store", "max-hearts", "log-level"} {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("root is missing serve flag %q", name)
		}
	}
	for _, name := range []string{"serve", "rollover", "profile", "catalog", "export", "token"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("expected subcommand %q, got %v, %v", name, c, err)
		}
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("CODEQUEST_JWT_SECRET", strings.Repeat("k", 32))
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "alice", "--ttl", "1h"})
	if err := root.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out.String()), "."); len(parts) != 3 {
		t.Errorf("expected a compact JWT, got %q", out.String())
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seedProfiles(t *testing.T, ids ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codequest.db")
	db, err := store.New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()
	for _, id := range ids {
		p := model.NewProfile(id, 5, time.Now())
		p.LeagueXP = 10
		if _, err := db.PutProfile(context.Background(), id, p); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	return path
}

func TestCatalogCheck(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(`
- {id: a, title: A, category: arrays}
- {id: b, title: B, category: strings}
- {id: c, title: C, category: arrays}
`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "catalog", "check", good)
	if err != nil {
		t.Fatalf("catalog check: %v", err)
	}
	for _, want := range []string{"arrays", "strings", "ok: 3 problems in 2 categories"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	dup := filepath.Join(dir, "dup.yaml")
	if err := os.WriteFile(dup, []byte("- {id: a, title: Again, category: lists}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "catalog", "check", good, dup); err == nil {
		t.Error("expected a duplicate id across files to fail")
	}
}

func TestProfileLeagueCommand(t *testing.T) {
	color.NoColor = true
	db := seedProfiles(t, "alice")

	out, err := runCLI(t, "profile", "league", "alice", "promote", "--db", db)
	if err != nil {
		t.Fatalf("profile league: %v", err)
	}
	if !strings.Contains(out, "alice: silver (promote)") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := runCLI(t, "profile", "league", "alice", "sideways", "--db", db); err == nil {
		t.Error("expected an unknown outcome to fail")
	}
	if _, err := runCLI(t, "profile", "league", "nobody", "stay", "--db", db); err == nil {
		t.Error("expected a missing learner to fail")
	}
}

func TestRolloverCommandRunsOncePerDay(t *testing.T) {
	color.NoColor = true
	db := seedProfiles(t, "alice", "bob")

	out, err := runCLI(t, "rollover", "--db", db, "--quiet")
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if !strings.Contains(out, "promoted 2, demoted 0, stayed 0") {
		t.Errorf("unexpected output %q", out)
	}

	_, err = runCLI(t, "rollover", "--db", db)
	if !errors.Is(err, league.ErrAlreadyRolledOver) {
		t.Fatalf("expected ErrAlreadyRolledOver, got %v", err)
	}
	if _, err := runCLI(t, "rollover", "--db", db, "--force"); err != nil {
		t.Fatalf("forced rollover: %v", err)
	}
}
