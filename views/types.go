package views

import (
	"html/template"

	"github.com/eringen/inkpress/imageurl"
)

// Site holds site-wide settings every page template receives.
type Site struct {
	Name        string
	URL         string
	Description string
	Images      imageurl.Resolver
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
}

type layoutData struct {
	Site   Site
	Meta   PageMeta
	JSONLD template.JS
}

type card struct {
	Href        string
	Title       string
	Description string
	AuthorName  string
	ImageURL    string
	AvatarURL   string
}

type homeData struct {
	layoutData
	Cards []card
}

type commentView struct {
	Name    string
	Comment string
}

type postData struct {
	layoutData
	PostID       string
	Title        string
	Description  string
	MainImageURL string
	AvatarURL    string
	AuthorName   string
	Published    string
	Body         template.HTML
	Comments     []commentView
	SubmitURL    string
}

type errorData struct {
	layoutData
	Code    int
	Message string
}
