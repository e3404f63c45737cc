package marginalia

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// Static page files looked up in PagesDir.
const (
	homePageFile  = "homepage.html"
	aboutPageFile = "about.html"
)

func (a *App) handleHome(c echo.Context) error {
	body, err := a.readPage(homePageFile)
	if errors.Is(err, fs.ErrNotExist) {
		// No homepage configured: the post index is the front page.
		return a.handleBlogIndex(c)
	}
	if err != nil {
		return err
	}
	return a.renderStaticPage(c, a.Config.Name, body)
}

func (a *App) handleAbout(c echo.Context) error {
	body, err := a.readPage(aboutPageFile)
	if errors.Is(err, fs.ErrNotExist) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	return a.renderStaticPage(c, "About", body)
}

func (a *App) readPage(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(a.Config.PagesDir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *App) handleBlogIndex(c echo.Context) error {
	posts, err := a.Cache.ListMetadata()
	if err != nil {
		return err
	}
	list, err := a.Views.RenderList(ListItems(posts))
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "Posts Index", list)
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	if page, ok := a.Cache.Page(slug); ok {
		return renderHTML(c, http.StatusOK, page)
	}

	if _, ok, err := a.Cache.Lookup(slug); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	post, ok, err := a.Store.Get(slug)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	b := NewRender(a.Markdown, a.Views).Markdown(post.Content).IntoPage(post.Title)
	if !a.Config.DisableSidenotes {
		b.Sidenotes()
	}
	page, err := b.Render()
	if err != nil {
		return err
	}
	a.Cache.StorePage(slug, page)
	return renderHTML(c, http.StatusOK, page)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListMetadata()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListMetadata()
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrSlugExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidPost), errors.Is(err, ErrInvalidUpload),
		errors.Is(err, ErrUnsupportedEncoding):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusFor(err)
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/admin") {
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		} else if code < 500 {
			msg = err.Error()
		}
		_ = c.JSON(code, map[string]string{"error": msg})
		return
	}

	switch code {
	case http.StatusNotFound:
		if a.renderPage(c, code, "Not Found", notFoundBody) == nil {
			return
		}
	case http.StatusInternalServerError:
		if a.renderPage(c, code, "Server Error", serverErrorBody) == nil {
			return
		}
	}
	if code < 500 {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			err = echo.NewHTTPError(code, err.Error())
		}
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	_ = c.String(code, http.StatusText(code))
}
