package inkpress

import (
	"context"
	"encoding/xml"
	"sort"
	"time"

	"github.com/eringen/inkpress/portabletext"
)

const feedSummaryLength = 280

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// feed builds an RSS 2.0 document from the post list, newest first.
func (a *App) feed(ctx context.Context) ([]byte, error) {
	posts, err := a.Source.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		if p.Slug.Current == "" {
			continue
		}
		pubDate := ""
		if !p.CreatedAt.IsZero() {
			pubDate = p.CreatedAt.Format(time.RFC1123Z)
		}
		summary := p.Description
		if summary == "" {
			summary = truncate(portabletext.PlainText(p.Body), feedSummaryLength)
		}
		postURL := BuildURL(a.Config.URL, p.Path())
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: summary,
			Author:      p.Author.Name,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}
	return encodeXML(rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        a.Config.URL,
			Description: a.Config.Description,
			Items:       items,
		},
	})
}
