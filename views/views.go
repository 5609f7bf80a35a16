// Package views renders the site's pages. Page templates are embedded
// html/template files executed as templ components; the post body is a
// portable text component rendered through the site serializers.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/portabletext"
)

// CommentEndpoint is where the comment form submits.
const CommentEndpoint = "/api/createComment"

//go:embed templates/*.html
var templateFS embed.FS

var (
	homeTmpl  = parsePage("home.html")
	postTmpl  = parsePage("post.html")
	errorTmpl = parsePage("error.html")
)

func parsePage(name string) *template.Template {
	t := template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	return t.Lookup("layout")
}

// Home renders the list page: one card per post linking to its detail page.
// Card and avatar images are omitted when the post has none.
func Home(site Site, posts []content.Post) templ.Component {
	cards := make([]card, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, card{
			Href:        p.Path(),
			Title:       p.Title,
			Description: p.Description,
			AuthorName:  p.Author.Name,
			ImageURL:    site.Images.For(p.MainImage).Width(800).Auto("format").URL(),
			AvatarURL:   site.Images.For(p.Author.Image).Size(96, 96).Fit("crop").URL(),
		})
	}
	return templ.FromGoHTML(homeTmpl, homeData{
		layoutData: layoutData{
			Site: site,
			Meta: PageMeta{
				Title:       site.Name,
				Description: site.Description,
				URL:         buildURL(site.URL, "/"),
				OGType:      "website",
			},
			JSONLD: WebsiteJsonLD(site),
		},
		Cards: cards,
	})
}

// Post renders the detail page of a post with its approved comments and
// the comment form.
func Post(site Site, post content.Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body, err := templ.ToGoHTML(ctx, portabletext.Render(post.Body, Serializers(site.Images)))
		if err != nil {
			return err
		}
		comments := make([]commentView, 0, len(post.Comments))
		for _, c := range post.Comments {
			if !c.Approved {
				continue
			}
			comments = append(comments, commentView{Name: c.Name, Comment: c.Comment})
		}
		mainImage := site.Images.For(post.MainImage).Width(1600).Auto("format").URL()
		data := postData{
			layoutData: layoutData{
				Site: site,
				Meta: PageMeta{
					Title:       post.Title + " | " + site.Name,
					Description: post.Description,
					URL:         buildURL(site.URL, post.Path()),
					OGType:      "article",
					Image:       mainImage,
				},
				JSONLD: BlogPostingJsonLD(site, post),
			},
			PostID:       post.ID,
			Title:        post.Title,
			Description:  post.Description,
			MainImageURL: mainImage,
			AvatarURL:    site.Images.For(post.Author.Image).Size(80, 80).Fit("crop").URL(),
			AuthorName:   post.Author.Name,
			Published:    FormatPublished(post.CreatedAt),
			Body:         body,
			Comments:     comments,
			SubmitURL:    CommentEndpoint,
		}
		return templ.FromGoHTML(postTmpl, data).Render(ctx, w)
	})
}

// NotFound renders the 404 page.
func NotFound(site Site) templ.Component {
	return errorPage(site, http.StatusNotFound, "This page could not be found.")
}

// ServerError renders the 500 page.
func ServerError(site Site) templ.Component {
	return errorPage(site, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

func errorPage(site Site, code int, message string) templ.Component {
	return templ.FromGoHTML(errorTmpl, errorData{
		layoutData: layoutData{
			Site: site,
			Meta: PageMeta{
				Title:  http.StatusText(code) + " | " + site.Name,
				OGType: "website",
			},
			JSONLD: WebsiteJsonLD(site),
		},
		Code:    code,
		Message: message,
	})
}
