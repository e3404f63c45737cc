package marginalia

import (
	"fmt"

	"github.com/eringen/marginalia/markdown"
)

// MarkdownRenderer converts markdown source to HTML. *markdown.Transformer
// satisfies it.
type MarkdownRenderer interface {
	Render(src string) (string, error)
}

// PageWrapper wraps a body in the base page template. *views.Composer
// satisfies it.
type PageWrapper interface {
	WrapPage(title, body string) (string, error)
}

// RenderBuilder collects a content source and post-processing steps. Nothing
// is parsed or executed until Render is called.
//
//	html, err := NewRender(md, composer).
//		Markdown(src).
//		Sidenotes().
//		IntoPage(title).
//		Render()
type RenderBuilder struct {
	md    MarkdownRenderer
	pages PageWrapper

	markdown    string
	html        string
	hasMarkdown bool
	hasHTML     bool

	sidenotes bool
	wrap      bool
	title     string
}

// NewRender starts a render using md for markdown content and pages for
// page wrapping. Either may be nil if the render never needs it.
func NewRender(md MarkdownRenderer, pages PageWrapper) *RenderBuilder {
	return &RenderBuilder{md: md, pages: pages}
}

// Markdown sets markdown source as the content.
func (b *RenderBuilder) Markdown(src string) *RenderBuilder {
	b.markdown = src
	b.hasMarkdown = true
	return b
}

// HTML sets already rendered HTML as the content.
func (b *RenderBuilder) HTML(src string) *RenderBuilder {
	b.html = src
	b.hasHTML = true
	return b
}

// Sidenotes enables the sidenote rewrite.
func (b *RenderBuilder) Sidenotes() *RenderBuilder {
	b.sidenotes = true
	return b
}

// IntoPage wraps the result in the base page template under title.
func (b *RenderBuilder) IntoPage(title string) *RenderBuilder {
	b.wrap = true
	b.title = title
	return b
}

// Render resolves the content and applies the configured steps in order:
// markdown conversion, sidenote rewrite, page wrap.
func (b *RenderBuilder) Render() (string, error) {
	var out string
	switch {
	case b.hasMarkdown && b.hasHTML:
		return "", ErrAmbiguousContent
	case b.hasHTML:
		out = b.html
	case b.hasMarkdown:
		if b.md == nil {
			return "", fmt.Errorf("%w: no markdown renderer configured", ErrMarkdownParse)
		}
		rendered, err := b.md.Render(b.markdown)
		if err != nil {
			return "", err
		}
		out = rendered
	default:
		return "", ErrMissingContent
	}

	if b.sidenotes {
		out = markdown.RewriteSidenotes(out)
	}

	if b.wrap {
		if b.pages == nil {
			return "", fmt.Errorf("%w: no page template configured", ErrTemplateNotRegistered)
		}
		return b.pages.WrapPage(b.title, out)
	}
	return out, nil
}
