package marginalia

import (
	"encoding/xml"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemapEntries lists the front page, the static pages present in PagesDir,
// the post index and every post. Static pages carry their file's mtime and
// the index carries the newest post's date.
func (a *App) sitemapEntries(posts []PostMetadata) []urlEntry {
	base := a.Config.URL
	entries := []urlEntry{{Loc: BuildURL(base), LastMod: a.pageModDate(homePageFile)}}
	if _, err := os.Stat(filepath.Join(a.Config.PagesDir, aboutPageFile)); err == nil {
		entries = append(entries, urlEntry{Loc: BuildURL(base, "about"), LastMod: a.pageModDate(aboutPageFile)})
	}

	index := urlEntry{Loc: BuildURL(base, "blog")}
	if len(posts) > 0 {
		index.LastMod = posts[0].Date()
	}
	entries = append(entries, index)

	for _, p := range posts {
		entries = append(entries, urlEntry{Loc: BuildURL(base, "blog", p.Slug), LastMod: p.Date()})
	}
	return entries
}

// pageModDate returns the YYYY-MM-DD mtime of a PagesDir file, or "" if absent.
func (a *App) pageModDate(name string) string {
	info, err := os.Stat(filepath.Join(a.Config.PagesDir, name))
	if err != nil {
		return ""
	}
	return info.ModTime().UTC().Format("2006-01-02")
}

func (a *App) renderSitemap(c echo.Context, posts []PostMetadata) error {
	set := urlSet{XMLNS: sitemapNS, URLs: a.sitemapEntries(posts)}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(set)
}
