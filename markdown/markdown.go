// Package markdown converts Markdown to HTML and expands the inline
// sidenote syntax into margin-note markup.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/a-h/templ"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrParse indicates the Markdown source could not be converted.
var ErrParse = errors.New("markdown parse failed")

// DefaultMaxInputSize bounds the size of a single document (4 MiB).
const DefaultMaxInputSize = 4 << 20

type options struct {
	unsafeHTML     bool
	footnotes      bool
	highlightStyle string
	maxInputSize   int
}

// Option configures a Transformer.
type Option func(*options)

// WithUnsafeHTML lets raw HTML in the source pass through to the output.
func WithUnsafeHTML() Option {
	return func(o *options) { o.unsafeHTML = true }
}

// WithFootnotes enables [^1] style footnotes.
func WithFootnotes() Option {
	return func(o *options) { o.footnotes = true }
}

// WithHighlighting enables chroma syntax highlighting for fenced code blocks.
// Output uses CSS classes; style only names the chroma style for class generation.
func WithHighlighting(style string) Option {
	return func(o *options) { o.highlightStyle = style }
}

// WithMaxInputSize overrides DefaultMaxInputSize. Values <= 0 are ignored.
func WithMaxInputSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInputSize = n
		}
	}
}

// Transformer renders GitHub-flavored Markdown into HTML. It holds no mutable
// state after construction and can be shared between goroutines.
type Transformer struct {
	md       goldmark.Markdown
	maxInput int
}

// New builds a Transformer with GFM extensions (tables, strikethrough,
// autolinks, task lists) and automatic heading ids.
func New(opts ...Option) *Transformer {
	cfg := options{maxInputSize: DefaultMaxInputSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	exts := []goldmark.Extender{extension.GFM}
	if cfg.footnotes {
		exts = append(exts, extension.Footnote)
	}
	if cfg.highlightStyle != "" {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(cfg.highlightStyle),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}

	var rendererOpts []goldmark.Option
	if cfg.unsafeHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	engineOpts := append([]goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOpts...)

	return &Transformer{
		md:       goldmark.New(engineOpts...),
		maxInput: cfg.maxInputSize,
	}
}

// Render converts src to HTML. Invalid UTF-8, oversized input, and engine
// failures are reported as ErrParse.
func (t *Transformer) Render(src string) (string, error) {
	if len(src) > t.maxInput {
		return "", fmt.Errorf("%w: input is %d bytes (max %d)", ErrParse, len(src), t.maxInput)
	}
	if !utf8.ValidString(src) {
		return "", fmt.Errorf("%w: input is not valid UTF-8", ErrParse)
	}
	var buf bytes.Buffer
	if err := t.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	return buf.String(), nil
}

// Component returns a templ.Component that renders src through t. When
// sidenotes is true the output is passed through RewriteSidenotes.
func (t *Transformer) Component(src string, sidenotes bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := t.Render(src)
		if err != nil {
			return err
		}
		if sidenotes {
			out = RewriteSidenotes(out)
		}
		_, err = io.WriteString(w, out)
		return err
	})
}
