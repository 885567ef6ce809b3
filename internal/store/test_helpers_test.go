package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/testutil"
)

// testOptions returns options with deterministic ids and discarded logs.
func testOptions() Options {
	return Options{
		IDs:    testutil.NewSequentialIDs("id"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// createTestStore opens a fresh store in a temp directory.
// modify, if given, adjusts the options before opening.
func createTestStore(t *testing.T, modify ...func(*Options)) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return openTestStore(t, path, modify...)
}

// openTestStore opens (or reopens) the store at path and closes it on cleanup.
func openTestStore(t *testing.T, path string, modify ...func(*Options)) *Store {
	t.Helper()
	opts := testOptions()
	for _, m := range modify {
		m(&opts)
	}
	s, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func chatNames(t *testing.T, s *Store) []string {
	t.Helper()
	chats, err := s.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats() failed: %v", err)
	}
	names := make([]string, len(chats))
	for i, c := range chats {
		names[i] = c.Name
	}
	return names
}

func categoryIDs(t *testing.T, s *Store) []string {
	t.Helper()
	categories, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() failed: %v", err)
	}
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

func findChat(t *testing.T, s *Store, name string) model.Chat {
	t.Helper()
	chats, err := s.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats() failed: %v", err)
	}
	for _, c := range chats {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("chat %q not found", name)
	return model.Chat{}
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// abortDeletesOn installs a trigger that aborts every DELETE on table, so a
// transaction fails after its earlier statements have already run.
func abortDeletesOn(t *testing.T, s *Store, table string) {
	t.Helper()
	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE TRIGGER abort_delete_%[1]s BEFORE DELETE ON %[1]s
		BEGIN SELECT RAISE(ABORT, 'delete on %[1]s refused'); END
	`, table))
	if err != nil {
		t.Fatalf("create trigger on %s: %v", table, err)
	}
}
