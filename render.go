package marginalia

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderHTML writes an already composed page.
func renderHTML(c echo.Context, code int, page string) error {
	return RenderStatus(c, code, templ.Raw(page))
}

// renderPage runs body through the pipeline's page wrap and writes the
// result. The page is fully rendered before any bytes are sent.
func (a *App) renderPage(c echo.Context, code int, title, body string) error {
	page, err := NewRender(a.Markdown, a.Views).HTML(body).IntoPage(title).Render()
	if err != nil {
		return err
	}
	return renderHTML(c, code, page)
}

// renderStaticPage wraps a page from PagesDir, expanding its sidenotes
// unless they are disabled.
func (a *App) renderStaticPage(c echo.Context, title, body string) error {
	b := NewRender(a.Markdown, a.Views).HTML(body).IntoPage(title)
	if !a.Config.DisableSidenotes {
		b.Sidenotes()
	}
	page, err := b.Render()
	if err != nil {
		return err
	}
	return renderHTML(c, http.StatusOK, page)
}

const (
	notFoundBody    = "<h1>Not Found</h1>\n<p>There is nothing at this address. Try the <a href=\"/blog/\">post index</a>.</p>"
	serverErrorBody = "<h1>Something went wrong</h1>\n<p>The page could not be rendered. Please try again later.</p>"
)
