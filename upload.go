package marginalia

import (
	"bytes"
	"compress/bzip2"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// Content encodings accepted by DecodeContent.
const (
	EncodingRaw      = "raw"
	EncodingBase64   = "base64"
	EncodingBzip2Hex = "bzip2-hex"
)

// MaxUploadContent bounds decoded upload content.
const MaxUploadContent = 8 << 20

// Upload is the admin payload that creates or replaces a post.
type Upload struct {
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
	Slug      string `json:"slug"`
	Content   string `json:"content"`
	Encoding  string `json:"encoding,omitempty"`
	Overwrite bool   `json:"overwrite"`
}

// DecodeContent turns the transported content back into markdown text.
// An empty encoding means raw.
func DecodeContent(encoding, s string) (string, error) {
	var data []byte
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingRaw:
		data = []byte(s)
	case EncodingBase64:
		decoded, err := decodeBase64(strings.TrimSpace(s))
		if err != nil {
			return "", fmt.Errorf("%w: base64: %v", ErrInvalidUpload, err)
		}
		data = decoded
	case EncodingBzip2Hex:
		compressed, err := hex.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return "", fmt.Errorf("%w: hex: %v", ErrInvalidUpload, err)
		}
		r := io.LimitReader(bzip2.NewReader(bytes.NewReader(compressed)), MaxUploadContent+1)
		decoded, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("%w: bzip2: %v", ErrInvalidUpload, err)
		}
		data = decoded
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
	if len(data) > MaxUploadContent {
		return "", fmt.Errorf("%w: content exceeds %d bytes", ErrInvalidUpload, MaxUploadContent)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidUpload)
	}
	return string(data), nil
}

func decodeBase64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// SaveUpload decodes u, writes {slug}.md and records the post. Without
// Overwrite an existing file or row is ErrAlreadyExists. If the row cannot
// be written, the content file is put back the way it was.
func (s *Store) SaveUpload(u Upload) (Post, error) {
	content, err := DecodeContent(u.Encoding, u.Content)
	if err != nil {
		return Post{}, err
	}
	p := Post{
		Title:     strings.TrimSpace(u.Title),
		Slug:      strings.TrimSpace(u.Slug),
		Timestamp: u.Timestamp,
		Content:   content,
	}
	if err := p.Validate(); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Post{}, ErrStoreClosed
	}

	rowExists, err := s.Exists(p.Slug)
	if err != nil {
		return Post{}, err
	}
	path := s.ContentPath(p.Slug)
	haveFile, err := fileExists(path)
	if err != nil {
		return Post{}, err
	}
	if (rowExists || haveFile) && !u.Overwrite {
		return Post{}, fmt.Errorf("%w: %s", ErrAlreadyExists, p.Slug)
	}

	var previous []byte
	if haveFile {
		if previous, err = os.ReadFile(path); err != nil {
			return Post{}, err
		}
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return Post{}, err
	}
	if u.Overwrite {
		err = s.Replace(p)
	} else {
		err = s.Insert(p)
	}
	if err != nil {
		if haveFile {
			err = errors.Join(err, writeFileAtomic(path, previous))
		} else {
			os.Remove(path)
		}
		return Post{}, err
	}
	return p, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
