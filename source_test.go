package inkpress

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/imageurl"
)

// fakeSource serves posts from memory and records submissions.
type fakeSource struct {
	mu        sync.Mutex
	posts     []content.Post
	readErr   error
	createErr error
	created   []content.NewComment
	gets      int
}

func newFakeSource(posts ...content.Post) *fakeSource {
	return &fakeSource{posts: posts}
}

func (f *fakeSource) ListPosts(ctx context.Context) ([]content.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]content.Post(nil), f.posts...), nil
}

func (f *fakeSource) ListPostPaths(ctx context.Context) ([]content.PostPath, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	paths := make([]content.PostPath, 0, len(f.posts))
	for _, p := range f.posts {
		paths = append(paths, content.PostPath{ID: p.ID, Slug: p.Slug})
	}
	return paths, nil
}

func (f *fakeSource) GetPost(ctx context.Context, slug string) (content.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.readErr != nil {
		return content.Post{}, f.readErr
	}
	for _, p := range f.posts {
		if p.Slug.Current == slug {
			return p, nil
		}
	}
	return content.Post{}, ErrNotFound
}

func (f *fakeSource) CreateComment(ctx context.Context, c content.NewComment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, c)
	return "comment-1", nil
}

func (f *fakeSource) setReadErr(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

func testPosts() []content.Post {
	return []content.Post{
		{
			ID:          "p1",
			CreatedAt:   time.Date(2023, 3, 26, 10, 0, 0, 0, time.UTC),
			Title:       "Hello World",
			Slug:        content.Slug{Current: "hello-world"},
			Description: "The first post",
			Author:      content.Author{Name: "Ann"},
		},
		{
			ID:          "p2",
			CreatedAt:   time.Date(2023, 3, 27, 10, 0, 0, 0, time.UTC),
			Title:       "Pictures",
			Slug:        content.Slug{Current: "pictures"},
			Description: "With a cover",
			MainImage:   &imageurl.Image{Asset: imageurl.Reference{Ref: "image-cover-800x600-jpg"}},
			Author:      content.Author{Name: "Bob"},
		},
	}
}
