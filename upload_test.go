package marginalia

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"testing"
)

// "# Hello\n" compressed with bzip2 -9.
const bzip2HelloHex = "425a6839314159265359814acb4000000155000010480000400204a000221802180a8a" +
	"72f6177245385090814acb40"

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		input    string
		want     string
	}{
		{"empty encoding", "", "# Hi", "# Hi"},
		{"raw", "raw", "# Hi", "# Hi"},
		{"base64 padded", "base64", base64.StdEncoding.EncodeToString([]byte("# Hello")), "# Hello"},
		{"base64 unpadded", "base64", base64.RawStdEncoding.EncodeToString([]byte("# Hello")), "# Hello"},
		{"case insensitive", "BASE64", base64.StdEncoding.EncodeToString([]byte("x")), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeContent(tt.encoding, tt.input)
			if err != nil {
				t.Fatalf("DecodeContent failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeContentBzip2Hex(t *testing.T) {
	if _, err := hex.DecodeString(bzip2HelloHex); err != nil {
		t.Fatalf("fixture is not hex: %v", err)
	}
	got, err := DecodeContent(EncodingBzip2Hex, bzip2HelloHex)
	if err != nil {
		t.Fatalf("DecodeContent failed: %v", err)
	}
	if got != "# Hello\n" {
		t.Errorf("got %q, want %q", got, "# Hello\n")
	}
}

func TestDecodeContentErrors(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		input    string
		want     error
	}{
		{"unknown encoding", "gzip", "abc", ErrUnsupportedEncoding},
		{"bad base64", "base64", "!!!", ErrInvalidUpload},
		{"bad hex", "bzip2-hex", "zz", ErrInvalidUpload},
		{"hex but not bzip2", "bzip2-hex", "deadbeef", ErrInvalidUpload},
		{"invalid utf8", "base64", base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), ErrInvalidUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeContent(tt.encoding, tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveUploadNew(t *testing.T) {
	s := setupTestStore(t)
	p, err := s.SaveUpload(Upload{Title: "Hello", Slug: "hello", Timestamp: 100, Content: "# Hello"})
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}
	if p.Slug != "hello" || p.Content != "# Hello" {
		t.Errorf("unexpected post: %+v", p)
	}
	data, err := os.ReadFile(s.ContentPath("hello"))
	if err != nil || string(data) != "# Hello" {
		t.Errorf("content file = %q, %v", data, err)
	}
	got, ok, err := s.Get("hello")
	if err != nil || !ok {
		t.Fatalf("Get after upload: ok=%v err=%v", ok, err)
	}
	if got.Title != "Hello" || got.Timestamp != 100 {
		t.Errorf("stored row = %+v", got)
	}
}

func TestSaveUploadExisting(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.SaveUpload(Upload{Title: "One", Slug: "post", Timestamp: 1, Content: "one"}); err != nil {
		t.Fatal(err)
	}

	_, err := s.SaveUpload(Upload{Title: "Two", Slug: "post", Timestamp: 2, Content: "two"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	data, _ := os.ReadFile(s.ContentPath("post"))
	if string(data) != "one" {
		t.Errorf("content replaced without overwrite: %q", data)
	}

	_, err = s.SaveUpload(Upload{Title: "Two", Slug: "post", Timestamp: 2, Content: "two", Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, _, _ := s.Get("post")
	if got.Title != "Two" || got.Content != "two" {
		t.Errorf("overwrite not applied: %+v", got)
	}
	posts, _ := s.ListMetadata()
	if len(posts) != 1 {
		t.Errorf("overwrite duplicated the row: %d rows", len(posts))
	}
}

func TestSaveUploadFailedOverwriteKeepsContent(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.SaveUpload(Upload{Title: "One", Slug: "post", Timestamp: 1, Content: "original"}); err != nil {
		t.Fatal(err)
	}
	// Make the row update fail after the content file has been replaced.
	_, err := s.db.Exec(`CREATE TRIGGER post_frozen BEFORE UPDATE ON post
BEGIN SELECT RAISE(ABORT, 'frozen'); END`)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.SaveUpload(Upload{Title: "Two", Slug: "post", Timestamp: 2, Content: "replacement", Overwrite: true})
	if err == nil {
		t.Fatal("expected overwrite to fail")
	}
	got, ok, err := s.Get("post")
	if err != nil || !ok {
		t.Fatalf("Get(post) = %v, %v", ok, err)
	}
	if got.Title != "One" || got.Content != "original" {
		t.Errorf("failed overwrite left %+v, want original title and content", got)
	}
}

func TestSaveUploadStrayFileCountsAsExisting(t *testing.T) {
	s := setupTestStore(t)
	writeContent(t, s, "stray", "left over")

	_, err := s.SaveUpload(Upload{Title: "Stray", Slug: "stray", Timestamp: 1, Content: "new"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSaveUploadInvalid(t *testing.T) {
	s := setupTestStore(t)
	tests := []struct {
		name string
		up   Upload
		want error
	}{
		{"no title", Upload{Slug: "a", Timestamp: 1, Content: "x"}, ErrInvalidPost},
		{"bad slug", Upload{Title: "A", Slug: "A B", Timestamp: 1, Content: "x"}, ErrInvalidPost},
		{"bad encoding", Upload{Title: "A", Slug: "a", Content: "x", Encoding: "rot13"}, ErrUnsupportedEncoding},
		{"bad base64", Upload{Title: "A", Slug: "a", Content: "%%%", Encoding: "base64"}, ErrInvalidUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SaveUpload(tt.up); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := os.Stat(s.ContentPath("a")); !os.IsNotExist(err) {
		t.Error("rejected uploads must not write content")
	}
}

func TestSaveUploadAfterClose(t *testing.T) {
	s, err := OpenStore(testStoreConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	_, err = s.SaveUpload(Upload{Title: "A", Slug: "a", Timestamp: 1, Content: "x"})
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}
