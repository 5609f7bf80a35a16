package inkpress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

const postPrefix = "/post/"

// validSlug reports whether slug maps to exactly one path segment.
func validSlug(slug string) bool {
	return slug != "" && slug != "." && slug != ".." && !strings.Contains(slug, "/")
}

// postPath returns the request path of the post with the given slug.
func postPath(slug string) string {
	return postPrefix + slug
}

func renderPage(ctx context.Context, status int, cmp templ.Component) (Page, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return Page{}, fmt.Errorf("render: %w", err)
	}
	return Page{Status: status, Body: buf.Bytes()}, nil
}

func (a *App) generateHome(ctx context.Context) (Page, error) {
	posts, err := a.Source.ListPosts(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("list posts: %w", err)
	}
	return renderPage(ctx, http.StatusOK, a.Views.Home(posts))
}

func (a *App) generatePost(slug string) Generator {
	return func(ctx context.Context) (Page, error) {
		post, err := a.Source.GetPost(ctx, slug)
		if errors.Is(err, ErrNotFound) {
			return renderPage(ctx, http.StatusNotFound, a.Views.NotFound())
		}
		if err != nil {
			return Page{}, fmt.Errorf("get post %q: %w", slug, err)
		}
		return renderPage(ctx, http.StatusOK, a.Views.Post(post))
	}
}

// generator returns the page generator for a request path, or nil when the
// path is not a page.
func (a *App) generator(path string) Generator {
	if path == "/" {
		return a.generateHome
	}
	if slug, ok := strings.CutPrefix(path, postPrefix); ok && validSlug(slug) {
		return a.generatePost(slug)
	}
	return nil
}

// Paths enumerates the request path of every page: the list page followed
// by one detail path per post whose slug is a single path segment.
func (a *App) Paths(ctx context.Context) ([]string, error) {
	postPaths, err := a.Source.ListPostPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list post paths: %w", err)
	}
	paths := []string{"/"}
	seen := make(map[string]bool, len(postPaths))
	for _, p := range postPaths {
		if !validSlug(p.Slug.Current) || seen[p.Slug.Current] {
			continue
		}
		seen[p.Slug.Current] = true
		paths = append(paths, postPath(p.Slug.Current))
	}
	return paths, nil
}

// Prerender generates and caches every enumerated page. The first failure
// aborts.
func (a *App) Prerender(ctx context.Context) error {
	paths, err := a.Paths(ctx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.Pages.Refresh(ctx, path, a.generator(path)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
