// Package views composes rendered content into full pages using named
// html/template templates and the site's static chrome.
package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sync"

	"github.com/a-h/templ"
)

// Template names the composer knows how to load from a templates directory.
const (
	BaseTemplate = "base"
	ListTemplate = "posts_list"
)

var (
	// ErrTemplateNotRegistered indicates the named template was never loaded.
	ErrTemplateNotRegistered = errors.New("template not registered")
	// ErrTemplateRender indicates a template failed to parse or execute.
	ErrTemplateRender = errors.New("template render failed")
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

// Assets exposes the embedded stylesheet and quotes list under "assets/".
func Assets() fs.FS {
	return embeddedAssets
}

var funcMap = template.FuncMap{
	"pathEscape": PathEscape,
}

type config struct {
	chrome       Chrome
	templatesFS  fs.FS
	skipEmbedded bool
}

// Option configures a Composer.
type Option func(*config)

// WithChrome sets the site chrome substituted into every page.
func WithChrome(c Chrome) Option {
	return func(cfg *config) { cfg.chrome = c }
}

// WithTemplatesFS loads "{name}.html" files from fsys on top of the embedded
// templates. Files missing from fsys keep the embedded version.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(cfg *config) { cfg.templatesFS = fsys }
}

// WithoutEmbedded starts the composer with no templates registered.
func WithoutEmbedded() Option {
	return func(cfg *config) { cfg.skipEmbedded = true }
}

// Composer wraps bodies in the base page template and renders post listings.
// It is built once and shared; Register is the only mutating method.
type Composer struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	chrome    Chrome
	jsonLD    string
}

// NewComposer loads the base and listing templates and resolves chrome defaults.
func NewComposer(opts ...Option) (*Composer, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	chrome, err := resolveChrome(cfg.chrome)
	if err != nil {
		return nil, err
	}
	c := &Composer{
		templates: make(map[string]*template.Template),
		chrome:    chrome,
		jsonLD:    websiteJSONLD(chrome),
	}

	if !cfg.skipEmbedded {
		if err := c.loadFS(embeddedTemplates, "templates", true); err != nil {
			return nil, err
		}
	}
	if cfg.templatesFS != nil {
		if err := c.loadFS(cfg.templatesFS, ".", false); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Composer) loadFS(fsys fs.FS, dir string, required bool) error {
	for _, name := range []string{BaseTemplate, ListTemplate} {
		data, err := fs.ReadFile(fsys, path.Join(dir, name+".html"))
		if err != nil {
			if !required && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("views: read template %s: %w", name, err)
		}
		if err := c.Register(name, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func resolveChrome(c Chrome) (Chrome, error) {
	if c.SiteName == "" {
		c.SiteName = "Home"
	}
	if c.HomeURL == "" {
		c.HomeURL = "/"
	}
	if c.StylesheetURL == "" {
		c.StylesheetURL = "/static/style.css"
	}
	if c.FaviconURL == "" {
		c.FaviconURL = "/static/favicon.svg"
	}
	if c.Quotes == "" {
		data, err := fs.ReadFile(embeddedAssets, "assets/quotes.json")
		if err != nil {
			return Chrome{}, fmt.Errorf("views: read quotes: %w", err)
		}
		c.Quotes = string(data)
	}
	return c, nil
}

// Register parses text as the template called name, replacing any previous
// template of that name. Undefined map keys fail at execution time.
func (c *Composer) Register(name, text string) error {
	tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrTemplateRender, name, err)
	}
	c.mu.Lock()
	c.templates[name] = tmpl
	c.mu.Unlock()
	return nil
}

// Registered reports whether a template called name is loaded.
func (c *Composer) Registered(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[name]
	return ok
}

// Chrome returns the resolved site chrome.
func (c *Composer) Chrome() Chrome {
	return c.chrome
}

// WrapPage renders body, which must already be trusted HTML, inside the base
// template under the given title.
func (c *Composer) WrapPage(title, body string) (string, error) {
	return c.execute(BaseTemplate, pageData{
		Title:         title,
		Content:       template.HTML(body),
		SiteName:      c.chrome.SiteName,
		HomeURL:       c.chrome.HomeURL,
		StylesheetURL: c.chrome.StylesheetURL,
		FaviconURL:    c.chrome.FaviconURL,
		Quotes:        template.JS(c.chrome.Quotes),
		JSONLD:        template.JS(c.jsonLD),
	})
}

// RenderList renders the listing template over items in the order given.
func (c *Composer) RenderList(items []ListItem) (string, error) {
	return c.execute(ListTemplate, listData{Posts: items})
}

// Page returns a templ.Component that writes the wrapped page.
func (c *Composer) Page(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := c.WrapPage(title, body)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

func (c *Composer) execute(name string, data any) (string, error) {
	c.mu.RLock()
	tmpl, ok := c.templates[name]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotRegistered, name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	return buf.String(), nil
}
