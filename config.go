package marginalia

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goccy/go-yaml"

	"github.com/eringen/marginalia/markdown"
	"github.com/eringen/marginalia/views"
)

// MaxConfigSize limits the config file read by LoadConfig.
const MaxConfigSize = 1 << 20

// SiteConfig holds all configuration for a marginalia site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Home")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and JSON-LD
	Author      string `yaml:"author"`

	Addr string `yaml:"addr"` // Listen address (default ":3000")

	DatabasePath string `yaml:"database"`    // SQLite path (default ":memory:")
	SnapshotPath string `yaml:"snapshot"`    // JSON snapshot (default "data/posts.json")
	ContentDir   string `yaml:"content_dir"` // Markdown sources (default "content")
	TemplatesDir string `yaml:"templates_dir"`
	PagesDir     string `yaml:"pages_dir"`  // homepage.html, about.html (default "pages")
	StaticDir    string `yaml:"static_dir"` // User static files (default "public")

	AdminKey string `yaml:"admin_key"` // Required: bearer token for /admin/

	PostCacheTTL time.Duration `yaml:"post_cache_ttl"` // default 5min

	DisableSidenotes bool   `yaml:"disable_sidenotes"`
	HighlightStyle   string `yaml:"highlight_style"` // chroma style, "" disables highlighting
	Footnotes        bool   `yaml:"footnotes"`
	UnsafeHTML       bool   `yaml:"unsafe_html"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Home"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = MemoryDatabase
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "data/posts.json"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.PagesDir == "" {
		c.PagesDir = "pages"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// Validate checks the settings needed to serve.
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.SnapshotPath, validation.Required, validation.By(func(value any) error {
			if path, _ := value.(string); !hasJSONExt(path) {
				return errors.New("must end in .json")
			}
			return nil
		})),
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.AdminKey, validation.Required.Error("is required (set MARGINALIA_ADMIN_KEY)")),
	)
}

// StoreConfig returns the store settings.
func (c SiteConfig) StoreConfig() StoreConfig {
	return StoreConfig{
		DatabasePath: c.DatabasePath,
		SnapshotPath: c.SnapshotPath,
		ContentDir:   c.ContentDir,
	}
}

// MarkdownOptions returns the transformer options the config selects.
func (c SiteConfig) MarkdownOptions() []markdown.Option {
	var opts []markdown.Option
	if c.HighlightStyle != "" {
		opts = append(opts, markdown.WithHighlighting(c.HighlightStyle))
	}
	if c.Footnotes {
		opts = append(opts, markdown.WithFootnotes())
	}
	if c.UnsafeHTML {
		opts = append(opts, markdown.WithUnsafeHTML())
	}
	return opts
}

// Chrome returns the page chrome for the composer.
func (c SiteConfig) Chrome() views.Chrome {
	return views.Chrome{
		SiteName:    c.Name,
		SiteURL:     c.URL,
		Description: c.Description,
		Author:      c.Author,
	}
}

// LoadConfig reads a YAML config file and applies environment overrides.
// An empty path skips the file. Unknown keys are rejected.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("marginalia: read config: %w", err)
		}
		if len(data) > MaxConfigSize {
			return cfg, fmt.Errorf("marginalia: config %s exceeds %d bytes", path, MaxConfigSize)
		}
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
			return cfg, fmt.Errorf("marginalia: parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.setDefaults()
	return cfg, nil
}

func applyEnv(c *SiteConfig) {
	c.Name = EnvOr("MARGINALIA_NAME", c.Name)
	c.URL = EnvOr("MARGINALIA_URL", c.URL)
	c.Addr = EnvOr("MARGINALIA_ADDR", c.Addr)
	c.DatabasePath = EnvOr("MARGINALIA_DATABASE", c.DatabasePath)
	c.SnapshotPath = EnvOr("MARGINALIA_SNAPSHOT", c.SnapshotPath)
	c.ContentDir = EnvOr("MARGINALIA_CONTENT_DIR", c.ContentDir)
	c.AdminKey = EnvOr("MARGINALIA_ADMIN_KEY", c.AdminKey)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithMarkdownOptions appends markdown transformer options to those derived
// from the config.
func WithMarkdownOptions(opts ...markdown.Option) Option {
	return func(a *App) {
		a.markdownOpts = append(a.markdownOpts, opts...)
	}
}

// WithViewOptions appends composer options, e.g. views.WithTemplatesFS.
func WithViewOptions(opts ...views.Option) Option {
	return func(a *App) {
		a.viewOpts = append(a.viewOpts, opts...)
	}
}
