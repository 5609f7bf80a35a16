package views

import (
	"html/template"
	"net/url"
	"path"
	"time"

	json "github.com/goccy/go-json"

	"github.com/eringen/inkpress/content"
)

// PublishedLayout is the day-first date and time shown under post titles.
const PublishedLayout = "02/01/2006, 15:04:05"

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if len(pathSegments) == 0 {
		return u.String()
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// FormatPublished formats a creation time for display. Times are shown in UTC
// so generated pages do not depend on the server's zone.
func FormatPublished(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(PublishedLayout)
}

func jsonLD(data map[string]any) template.JS {
	// goccy/go-json escapes <, > and & like encoding/json, so the output is
	// safe inside a script element.
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block for the site.
func WebsiteJsonLD(site Site) template.JS {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      buildURL(site.URL, "/"),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	return jsonLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site Site, post content.Post) template.JS {
	postURL := buildURL(site.URL, post.Path())
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Description,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !post.CreatedAt.IsZero() {
		data["datePublished"] = post.CreatedAt.UTC().Format(time.RFC3339)
	}
	if post.Author.Name != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author.Name,
		}
	}
	if img := site.Images.For(post.MainImage).Width(1200).URL(); img != "" {
		data["image"] = img
	}
	return jsonLD(data)
}
