package marginalia

import (
	"errors"

	"github.com/eringen/marginalia/markdown"
	"github.com/eringen/marginalia/views"
)

// Content errors.
var (
	ErrMissingContent   = errors.New("no content set")
	ErrAmbiguousContent = errors.New("both markdown and html content set")
	ErrMarkdownParse    = markdown.ErrParse
)

// Template errors.
var (
	ErrTemplateNotRegistered = views.ErrTemplateNotRegistered
	ErrTemplateRender        = views.ErrTemplateRender
)

// Store errors.
var (
	ErrSlugExists               = errors.New("slug already exists")
	ErrContentNotFound          = errors.New("content file not found")
	ErrInvalidPost              = errors.New("invalid post")
	ErrSnapshotLoad             = errors.New("snapshot load failed")
	ErrSnapshotDump             = errors.New("snapshot dump failed")
	ErrInvalidSnapshotExtension = errors.New("snapshot path must end in .json")
	ErrStoreClosed              = errors.New("store is closed")
	ErrNotFound                 = errors.New("post not found")
)

// Upload errors.
var (
	ErrAlreadyExists       = errors.New("post already exists")
	ErrInvalidUpload       = errors.New("invalid upload")
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
)
