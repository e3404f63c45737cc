// Package marginalia is a personal-site content engine built with Go and Echo.
// Markdown posts are rendered through goldmark, margin notes are expanded
// from the (:sidenote ... :sidenote) syntax, and pages are wrapped in an
// html/template base layout.
//
// Post metadata lives in a SQLite table rebuilt on startup from a JSON
// snapshot file, which is the durable copy. The snapshot is written back on
// every upload checkpoint and on Close.
package marginalia

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/sha3"

	"github.com/eringen/marginalia/markdown"
	"github.com/eringen/marginalia/views"
)

// App is the central marginalia application. It wires together the store,
// cache, renderer, composer, handlers and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Markdown *markdown.Transformer
	Views    *views.Composer

	authLimiter  *LoginLimiter
	adminDigest  [64]byte
	customRoutes []func(*App)
	markdownOpts []markdown.Option
	viewOpts     []views.Option
}

// New creates a new App with the given configuration. Nothing is opened
// until Setup or Start.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	a := &App{
		Config: cfg,
		Echo:   e,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup validates the config, builds the renderer and composer, opens the
// store and registers middleware and routes. It is safe to serve a.Echo
// (for example from httptest) once Setup returns.
func (a *App) Setup() error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("marginalia: invalid config: %w", err)
	}

	viewOpts := []views.Option{views.WithChrome(a.Config.Chrome())}
	if a.Config.TemplatesDir != "" {
		viewOpts = append(viewOpts, views.WithTemplatesFS(os.DirFS(a.Config.TemplatesDir)))
	}
	composer, err := views.NewComposer(append(viewOpts, a.viewOpts...)...)
	if err != nil {
		return fmt.Errorf("marginalia: init templates: %w", err)
	}
	a.Views = composer
	a.Markdown = markdown.New(append(a.Config.MarkdownOptions(), a.markdownOpts...)...)

	store, err := OpenStore(a.Config.StoreConfig())
	if err != nil {
		return fmt.Errorf("marginalia: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.authLimiter = NewLoginLimiter(5, time.Minute)
	a.adminDigest = sha3.Sum512([]byte(a.Config.AdminKey))

	if posts, err := store.ListMetadata(); err == nil {
		a.Echo.Logger.Infof("loaded %d posts from %s", len(posts), a.Config.SnapshotPath)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets (style, favicon, robots) under /static/,
	// user files and uploaded images under /public/.
	static := a.staticFS()
	e.StaticFS("/static", static)
	e.Static("/public", a.Config.StaticDir)
	e.FileFS("/favicon.svg", "favicon.svg", static)
	e.FileFS("/robots.txt", "robots.txt", static)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/about/", a.handleAbout)
	e.GET("/blog/", a.handleBlogIndex)
	e.GET("/blog/:slug/", a.handlePost)

	// Admin routes
	admin := e.Group("/admin", a.adminAuth())
	admin.POST("/add", a.handleAdminAdd)
	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/", a.handleImageUpload)
}

// Close stops background work, writes the final snapshot and closes the
// store. A dump failure is logged and returned, never fatal.
func (a *App) Close() error {
	if a.authLimiter != nil {
		a.authLimiter.Stop()
	}
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	if err != nil {
		a.Echo.Logger.Errorf("close store: %v", err)
	}
	return err
}
