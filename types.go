package marginalia

import (
	"time"

	"github.com/eringen/marginalia/views"
)

// Post is a blog entry. Content is never stored in the table; it lives in
// {ContentDir}/{Slug}.md.
type Post struct {
	Title     string
	Slug      string
	Timestamp int64 // Unix seconds, UTC
	Content   string
	Rendered  string // cached HTML, empty until rendered
}

// Metadata projects p without its content.
func (p Post) Metadata() PostMetadata {
	return PostMetadata{Title: p.Title, Timestamp: p.Timestamp, Slug: p.Slug}
}

// PostMetadata is the row shape shared by the table and the JSON snapshot.
type PostMetadata struct {
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
	Slug      string `json:"slug"`
}

// Time returns the timestamp as a UTC time.
func (m PostMetadata) Time() time.Time {
	return time.Unix(m.Timestamp, 0).UTC()
}

// Date formats the timestamp as YYYY-MM-DD in UTC.
func (m PostMetadata) Date() string {
	return m.Time().Format("2006-01-02")
}

// ListItem converts m into the record the listing template renders.
func (m PostMetadata) ListItem() views.ListItem {
	return views.ListItem{Title: m.Title, Date: m.Date(), Slug: m.Slug}
}

// ListItems converts a metadata slice, keeping its order.
func ListItems(posts []PostMetadata) []views.ListItem {
	items := make([]views.ListItem, len(posts))
	for i, p := range posts {
		items[i] = p.ListItem()
	}
	return items
}
