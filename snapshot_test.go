package marginalia

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func writeSnapshot(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := testStoreConfig(t)
	want := []PostMetadata{
		{Title: "Ten", Slug: "ten", Timestamp: 10},
		{Title: "Thirty", Slug: "thirty", Timestamp: 30},
		{Title: "Twenty", Slug: "twenty", Timestamp: 20},
	}

	err := WithStore(cfg, func(s *Store) error {
		for _, m := range want {
			mustInsert(t, s, Post{Title: m.Title, Slug: m.Slug, Timestamp: m.Timestamp})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("first session failed: %v", err)
	}

	var got []PostMetadata
	err = WithStore(cfg, func(s *Store) error {
		var err error
		got, err = s.ListMetadata()
		return err
	})
	if err != nil {
		t.Fatalf("second session failed: %v", err)
	}

	bySlug := func(p []PostMetadata) {
		sort.Slice(p, func(i, j int) bool { return p[i].Slug < p[j].Slug })
	}
	bySlug(want)
	bySlug(got)
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadUpsertReplacesBySlug(t *testing.T) {
	s := setupTestStore(t)
	mustInsert(t, s, Post{Title: "Old Title", Slug: "same", Timestamp: 1})

	path := filepath.Join(t.TempDir(), "incoming.json")
	writeSnapshot(t, path, `[
  {"title": "New Title", "timestamp": 5, "slug": "same"},
  {"title": "Other", "timestamp": 2, "slug": "other"}
]`)
	if err := s.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	posts, err := s.ListMetadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 rows (no duplicate), got %d", len(posts))
	}
	if posts[0].Slug != "same" || posts[0].Title != "New Title" || posts[0].Timestamp != 5 {
		t.Errorf("row not replaced: %+v", posts[0])
	}
}

func TestLoadLastRecordWins(t *testing.T) {
	s := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "dups.json")
	writeSnapshot(t, path, `[
  {"title": "First", "timestamp": 1, "slug": "x"},
  {"title": "Second", "timestamp": 2, "slug": "x"}
]`)
	if err := s.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	posts, _ := s.ListMetadata()
	if len(posts) != 1 || posts[0].Title != "Second" {
		t.Errorf("expected single row titled Second, got %+v", posts)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := setupTestStore(t)
	if err := s.LoadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing snapshot should load as empty, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `[{"title": "A",`},
		{"not an array", `{"title": "A", "timestamp": 1, "slug": "a"}`},
		{"missing slug", `[{"title": "A", "timestamp": 1}]`},
		{"string timestamp", `[{"title": "A", "timestamp": "1", "slug": "a"}]`},
		{"fractional timestamp", `[{"title": "A", "timestamp": 1.5, "slug": "a"}]`},
		{"negative timestamp", `[{"title": "A", "timestamp": -3, "slug": "a"}]`},
		{"bad slug", `[{"title": "A", "timestamp": 1, "slug": "Bad Slug"}]`},
		{"empty title", `[{"title": "", "timestamp": 1, "slug": "a"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			path := filepath.Join(t.TempDir(), "posts.json")
			writeSnapshot(t, path, tt.body)
			err := s.LoadSnapshot(path)
			if !errors.Is(err, ErrSnapshotLoad) {
				t.Fatalf("expected ErrSnapshotLoad, got %v", err)
			}
			posts, _ := s.ListMetadata()
			if len(posts) != 0 {
				t.Errorf("failed load must not change the table, got %d rows", len(posts))
			}
		})
	}
}

func TestOpenStoreFailsOnBadSnapshot(t *testing.T) {
	cfg := testStoreConfig(t)
	writeSnapshot(t, cfg.SnapshotPath, `not json`)

	_, err := OpenStore(cfg)
	if !errors.Is(err, ErrSnapshotLoad) {
		t.Fatalf("expected ErrSnapshotLoad, got %v", err)
	}
	data, _ := os.ReadFile(cfg.SnapshotPath)
	if string(data) != "not json" {
		t.Errorf("snapshot must not be overwritten after a failed open: %q", data)
	}
}

func TestDumpRejectsExtension(t *testing.T) {
	s := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "posts.txt")
	writeSnapshot(t, path, "keep me")

	err := s.DumpSnapshot(path)
	if !errors.Is(err, ErrInvalidSnapshotExtension) {
		t.Fatalf("expected ErrInvalidSnapshotExtension, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep me" {
		t.Errorf("file was modified: %q", data)
	}
}

func TestLoadRejectsExtension(t *testing.T) {
	s := setupTestStore(t)
	for _, path := range []string{"posts.yaml", "posts.JSON", "posts.Json", "posts"} {
		if err := s.LoadSnapshot(path); !errors.Is(err, ErrInvalidSnapshotExtension) {
			t.Errorf("LoadSnapshot(%q): expected ErrInvalidSnapshotExtension, got %v", path, err)
		}
	}
}

func TestOpenStoreRejectsUppercaseExtension(t *testing.T) {
	cfg := testStoreConfig(t)
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "posts.JSON")
	if _, err := OpenStore(cfg); !errors.Is(err, ErrInvalidSnapshotExtension) {
		t.Fatalf("expected ErrInvalidSnapshotExtension, got %v", err)
	}
}

func TestDumpEmptyTable(t *testing.T) {
	s := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := s.DumpSnapshot(path); err != nil {
		t.Fatalf("DumpSnapshot failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty dump = %q, want []", data)
	}
}

func TestDumpFormat(t *testing.T) {
	s := setupTestStore(t)
	mustInsert(t, s, Post{Title: "Hello", Slug: "hello", Timestamp: 42})

	path := filepath.Join(t.TempDir(), "out", "posts.json")
	if err := s.DumpSnapshot(path); err != nil {
		t.Fatalf("DumpSnapshot failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[\n  {\n    \"title\": \"Hello\",\n    \"timestamp\": 42,\n    \"slug\": \"hello\"\n  }\n]\n"
	if string(data) != want {
		t.Errorf("dump =\n%s\nwant\n%s", data, want)
	}

	var records []PostMetadata
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestCheckpoint(t *testing.T) {
	s := setupTestStore(t)
	mustInsert(t, s, Post{Title: "Saved", Slug: "saved", Timestamp: 3})

	if err := s.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	data, err := os.ReadFile(s.Config().SnapshotPath)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(string(data), `"slug": "saved"`) {
		t.Errorf("checkpoint missing row: %s", data)
	}
}
