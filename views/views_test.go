package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/imageurl"
	"github.com/eringen/inkpress/portabletext"
)

var testSite = Site{
	Name:        "Medium Blog",
	URL:         "https://blog.example.com",
	Description: "A place to read, write and connect",
	Images:      imageurl.NewResolver("zp7mbokg", "production"),
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func body(t *testing.T, raw string) portabletext.Blocks {
	t.Helper()
	var b portabletext.Blocks
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func TestHomeCards(t *testing.T) {
	posts := []content.Post{
		{
			ID:          "p1",
			Title:       "With Image",
			Slug:        content.Slug{Current: "with-image"},
			Description: "first",
			MainImage:   &imageurl.Image{Asset: imageurl.Reference{Ref: "image-abc-800x600-jpg"}},
			Author:      content.Author{Name: "Ann", Image: &imageurl.Image{Asset: imageurl.Reference{Ref: "image-ann-64x64-png"}}},
		},
		{
			ID:          "p2",
			Title:       "Plain",
			Slug:        content.Slug{Current: "plain"},
			Description: "second",
			Author:      content.Author{Name: "Bob"},
		},
	}
	html := render(t, Home(testSite, posts))

	assert.Contains(t, html, `href="/post/with-image"`)
	assert.Contains(t, html, `href="/post/plain"`)
	assert.Contains(t, html, "first by Ann")
	assert.Contains(t, html, "second by Bob")
	assert.Contains(t, html, "https://cdn.sanity.io/images/zp7mbokg/production/abc-800x600.jpg")
	assert.Contains(t, html, "https://cdn.sanity.io/images/zp7mbokg/production/ann-64x64.png")
	assert.Equal(t, 2, strings.Count(html, "<img"), "only the first post has images")
	assert.Contains(t, html, `"@type":"WebSite"`)
}

func TestHomeEscapesContent(t *testing.T) {
	posts := []content.Post{{Title: "<script>x</script>", Slug: content.Slug{Current: "x"}}}
	html := render(t, Home(testSite, posts))
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestPostPage(t *testing.T) {
	post := content.Post{
		ID:          "p1",
		CreatedAt:   time.Date(2023, 3, 26, 14, 5, 9, 0, time.UTC),
		Title:       "Hello",
		Slug:        content.Slug{Current: "hello"},
		Description: "An intro",
		Author:      content.Author{Name: "Ann"},
		Body: body(t, `[
			{"_type":"block","style":"h1","children":[{"_type":"span","text":"Heading"}]},
			{"_type":"block","style":"normal","markDefs":[{"_key":"l1","_type":"link","href":"https://example.com"}],
			 "children":[{"_type":"span","text":"a link","marks":["l1"]}]},
			{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"item"}]},
			{"_type":"image","asset":{"_ref":"image-body-100x50-png"},"alt":"diagram"}
		]`),
		Comments: []content.Comment{
			{ID: "c1", Name: "Zed", Comment: "Nice post", Approved: true},
			{ID: "c2", Name: "Mallory", Comment: "awaiting moderation", Approved: false},
		},
	}
	html := render(t, Post(testSite, post))

	assert.Contains(t, html, `<h1 class="text-2xl font-bold my-5">Heading</h1>`)
	assert.Contains(t, html, `<a class="text-blue-500 hover:underline" href="https://example.com">a link</a>`)
	assert.Contains(t, html, `<li class="ml-4 list-disc">item</li>`)
	assert.Contains(t, html, `alt="diagram"`)
	assert.Contains(t, html, "Published at 26/03/2023, 14:05:09")
	assert.Contains(t, html, `name="_id" value="p1"`)
	assert.Contains(t, html, `action="/api/createComment"`)
	assert.Contains(t, html, "Nice post")
	assert.NotContains(t, html, "awaiting moderation")
	assert.NotContains(t, html, "Mallory")
	assert.Contains(t, html, `"@type":"BlogPosting"`)
	assert.NotContains(t, html, "w-full h-40 object-cover", "no main image element")
}

func TestPostWithMainImage(t *testing.T) {
	post := content.Post{
		ID:        "p1",
		Title:     "Hello",
		Slug:      content.Slug{Current: "hello"},
		MainImage: &imageurl.Image{Asset: imageurl.Reference{Ref: "image-main-1600x900-jpg"}},
	}
	html := render(t, Post(testSite, post))
	assert.Contains(t, html, `class="w-full h-40 object-cover" src="https://cdn.sanity.io/images/zp7mbokg/production/main-1600x900.jpg?w=1600&amp;auto=format"`)
	assert.Contains(t, html, `og:image`)
}

func TestPostRenderIsDeterministic(t *testing.T) {
	post := content.Post{
		ID:    "p1",
		Title: "Hello",
		Slug:  content.Slug{Current: "hello"},
		Body:  body(t, `[{"_type":"block","children":[{"_type":"span","text":"a","marks":["strong","em"]}]}]`),
	}
	assert.Equal(t, render(t, Post(testSite, post)), render(t, Post(testSite, post)))
}

func TestErrorPages(t *testing.T) {
	assert.Contains(t, render(t, NotFound(testSite)), "404")
	assert.Contains(t, render(t, ServerError(testSite)), "500")
}

func TestFormatPublished(t *testing.T) {
	assert.Equal(t, "01/02/2024, 09:30:00", FormatPublished(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)))
	assert.Empty(t, FormatPublished(time.Time{}))
}
