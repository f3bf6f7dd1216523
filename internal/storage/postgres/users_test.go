package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/rentbot/migrations"
)

// dsnEnv names a PostgreSQL URL the tests may create a throwaway schema in.
const dsnEnv = "RENTBOT_TEST_DATABASE_URL"

func openStore(t *testing.T) *UserStore {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	// One connection so search_path applies to every statement.
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf("rentbot_test_%d", time.Now().UnixNano())
	if _, err := db.Exec("CREATE SCHEMA " + schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DROP SCHEMA " + schema + " CASCADE")
		_ = db.Close()
	})
	if _, err := db.Exec("SET search_path TO " + schema); err != nil {
		t.Fatalf("search_path: %v", err)
	}
	up, err := fs.ReadFile(migrations.FS, "0001_create_users.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Exec(string(up)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return NewUserStore(db)
}

func TestUserStoreLookupPersist(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, ok, err := s.Lookup(ctx, 10); ok || err != nil {
		t.Fatalf("lookup of unknown user = %v, %v", ok, err)
	}
	if err := s.Persist(ctx, 10, "@a"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	first, ok, err := s.Lookup(ctx, 10)
	if err != nil || !ok || first.Handle != "@a" || first.CreatedAt.IsZero() {
		t.Fatalf("lookup = %+v, %v, %v", first, ok, err)
	}

	if err := s.Persist(ctx, 10, "@renamed"); err != nil {
		t.Fatalf("persist again: %v", err)
	}
	again, _, _ := s.Lookup(ctx, 10)
	if again.Handle != "@renamed" || !again.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert = %+v, want handle @renamed and created_at %s", again, first.CreatedAt)
	}
}

func TestUserStoreList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	users, err := s.List(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("list on empty table = %+v, %v", users, err)
	}
	for _, id := range []int64{20, 10} {
		if err := s.Persist(ctx, id, fmt.Sprintf("@u%d", id)); err != nil {
			t.Fatalf("persist %d: %v", id, err)
		}
	}
	users, err = s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := map[int64]string{}
	for _, u := range users {
		got[u.ID] = u.Handle
	}
	if len(users) != 2 || got[10] != "@u10" || got[20] != "@u20" {
		t.Fatalf("list = %+v", users)
	}
}

func TestUserStoreLookupWrapsErrors(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok, err := s.Lookup(ctx, 1); ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("lookup with cancelled context = %v, %v", ok, err)
	}
}
