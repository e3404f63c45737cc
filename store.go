package marginalia

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryDatabase keeps the post table in memory. The snapshot file is the
// durable copy, so this is the default.
const MemoryDatabase = ":memory:"

// StoreConfig locates the three pieces of post storage.
type StoreConfig struct {
	DatabasePath string // SQLite file or MemoryDatabase (default)
	SnapshotPath string // JSON snapshot, loaded on open and dumped on close
	ContentDir   string // holds {slug}.md (default "content")
}

func (c *StoreConfig) setDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = MemoryDatabase
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
}

// Store keeps post metadata in a SQLite table rebuilt from a JSON snapshot.
// Content is read from ContentDir by slug.
//
// The snapshot is written back only by Checkpoint and Close. Two stores
// sharing one snapshot path will overwrite each other's dumps; run a single
// long-lived Store per snapshot.
type Store struct {
	db  *sql.DB
	cfg StoreConfig

	mu     sync.Mutex // serializes snapshot writes, uploads and Close
	closed bool
}

// OpenStore opens the database, ensures the schema and loads the snapshot.
// A missing snapshot file is an empty snapshot. On any failure the database
// is closed and no dump will run.
func OpenStore(cfg StoreConfig) (*Store, error) {
	cfg.setDefaults()
	if !hasJSONExt(cfg.SnapshotPath) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSnapshotExtension, cfg.SnapshotPath)
	}

	db, err := openDB(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, cfg: cfg}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.LoadSnapshot(cfg.SnapshotPath); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	if path != MemoryDatabase {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL with a busy timeout lets readers proceed during writes;
	// synchronous=NORMAL is safe under WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == MemoryDatabase {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	return db, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS post (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    slug TEXT UNIQUE NOT NULL
);
`)
	return err
}

// Config returns the resolved store configuration.
func (s *Store) Config() StoreConfig {
	return s.cfg
}

// ContentPath returns where the markdown source for slug lives.
func (s *Store) ContentPath(slug string) string {
	return filepath.Join(s.cfg.ContentDir, slug+".md")
}

// Insert adds a new post row. The content file must already exist.
func (s *Store) Insert(p Post) error {
	if err := s.checkPost(p); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO post (title, timestamp, slug) VALUES (?, ?, ?)`,
		p.Title, p.Timestamp, p.Slug)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrSlugExists, p.Slug)
		}
		return err
	}
	return nil
}

// Replace inserts p or overwrites the title and timestamp of the row with
// the same slug.
func (s *Store) Replace(p Post) error {
	if err := s.checkPost(p); err != nil {
		return err
	}
	_, err := s.db.Exec(upsertSQL, p.Title, p.Timestamp, p.Slug)
	return err
}

const upsertSQL = `INSERT INTO post (title, timestamp, slug) VALUES (?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET title = excluded.title, timestamp = excluded.timestamp`

func (s *Store) checkPost(p Post) error {
	if err := p.Validate(); err != nil {
		return err
	}
	path := s.ContentPath(p.Slug)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrContentNotFound, path)
		}
		return err
	}
	return nil
}

// Exists reports whether a row with slug exists.
func (s *Store) Exists(slug string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM post WHERE slug = ?`, slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the post with slug and its content read from disk. A missing
// row is reported as ok == false with a nil error.
func (s *Store) Get(slug string) (Post, bool, error) {
	p := Post{Slug: slug}
	err := s.db.QueryRow(`SELECT title, timestamp FROM post WHERE slug = ?`, slug).
		Scan(&p.Title, &p.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, false, nil
	}
	if err != nil {
		return Post{}, false, err
	}
	path := s.ContentPath(slug)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Post{}, false, fmt.Errorf("%w: %s", ErrContentNotFound, path)
		}
		return Post{}, false, err
	}
	p.Content = string(data)
	return p, true, nil
}

// ListMetadata returns every post, most recent first. Posts sharing a
// timestamp are ordered by slug.
func (s *Store) ListMetadata() ([]PostMetadata, error) {
	return s.queryMetadata(`SELECT title, timestamp, slug FROM post ORDER BY timestamp DESC, slug ASC`)
}

func (s *Store) queryMetadata(query string) ([]PostMetadata, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostMetadata
	for rows.Next() {
		var m PostMetadata
		if err := rows.Scan(&m.Title, &m.Timestamp, &m.Slug); err != nil {
			return nil, err
		}
		posts = append(posts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Checkpoint writes the table to the configured snapshot path.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %w", ErrSnapshotDump, ErrStoreClosed)
	}
	return s.dump(s.cfg.SnapshotPath)
}

// Close dumps the snapshot and closes the database. Both errors are
// returned joined. Calling Close again is a no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	dumpErr := s.dump(s.cfg.SnapshotPath)
	return errors.Join(dumpErr, s.db.Close())
}

// WithStore opens a store, passes it to fn and always closes it. The close
// error is joined with fn's.
func WithStore(cfg StoreConfig, fn func(*Store) error) (err error) {
	s, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
