package views

import "html/template"

// Chrome holds the static site furniture every page carries.
type Chrome struct {
	SiteName      string // shown in the header and JSON-LD
	SiteURL       string // canonical base URL for JSON-LD
	Description   string
	Author        string
	HomeURL       string // default "/"
	StylesheetURL string // default "/static/style.css"
	FaviconURL    string // default "/static/favicon.svg"
	Quotes        string // JSON array of {text, author}; default is the embedded list
}

// ListItem is one row of the posts listing.
type ListItem struct {
	Title string
	Date  string // YYYY-MM-DD
	Slug  string
}

// pageData is the value the base template executes against.
type pageData struct {
	Title         string
	Content       template.HTML
	SiteName      string
	HomeURL       string
	StylesheetURL string
	FaviconURL    string
	Quotes        template.JS
	JSONLD        template.JS
}

type listData struct {
	Posts []ListItem
}
