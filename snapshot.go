package marginalia

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const snapshotSchemaURL = "snapshot.schema.json"

const snapshotSchemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["title", "timestamp", "slug"],
    "properties": {
      "title": {"type": "string", "minLength": 1},
      "timestamp": {"type": "integer", "minimum": 0},
      "slug": {"type": "string", "maxLength": 200, "pattern": "^[a-z0-9][a-z0-9_-]*$"}
    }
  }
}`

var snapshotSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchemaText)); err != nil {
		return nil, err
	}
	return compiler.Compile(snapshotSchemaURL)
})

// hasJSONExt requires the exact lowercase extension; "posts.JSON" is rejected.
func hasJSONExt(path string) bool {
	return filepath.Ext(path) == ".json"
}

// LoadSnapshot upserts every record of the snapshot at path into the table
// in one transaction. A record whose slug is already present replaces the
// row. A missing file loads nothing.
func (s *Store) LoadSnapshot(path string) error {
	if !hasJSONExt(path) {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotExtension, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}
	records, err := decodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSnapshotLoad, path, err)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}
	defer tx.Rollback()
	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.Exec(r.Title, r.Timestamp, r.Slug); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSnapshotLoad, r.Slug, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}
	return nil
}

// decodeSnapshot validates data against the snapshot schema and decodes it.
// A blank file is an empty snapshot.
func decodeSnapshot(data []byte) ([]PostMetadata, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	schema, err := snapshotSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}
	var records []PostMetadata
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DumpSnapshot writes the whole table to path as an indented JSON array.
// The extension is checked before anything is read or written. The file is
// replaced atomically.
func (s *Store) DumpSnapshot(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %w", ErrSnapshotDump, ErrStoreClosed)
	}
	return s.dump(path)
}

func (s *Store) dump(path string) error {
	if !hasJSONExt(path) {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotExtension, path)
	}
	posts, err := s.queryMetadata(`SELECT title, timestamp, slug FROM post ORDER BY id`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotDump, err)
	}
	if posts == nil {
		posts = []PostMetadata{}
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotDump, err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotDump, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
