package views

import (
	"encoding/json"
	"net/url"
	"strings"
)

// canonicalURL normalizes base for JSON-LD, keeping unparseable input as is.
func canonicalURL(base string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return base
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// websiteJSONLD produces a Schema.org WebSite JSON-LD block from the chrome.
func websiteJSONLD(c Chrome) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     c.SiteName,
	}
	if c.SiteURL != "" {
		data["url"] = canonicalURL(c.SiteURL)
	}
	if c.Description != "" {
		data["description"] = c.Description
	}
	if c.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  c.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
