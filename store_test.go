package inkpress

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/imageurl"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedPost(t *testing.T, s *Store, id, slug string, created time.Time) {
	t.Helper()
	ctx := context.Background()
	if err := s.SaveAuthor(ctx, "author-ann", content.Author{
		Name:  "Ann",
		Image: &imageurl.Image{Asset: imageurl.Reference{Ref: "image-ann-64x64-png"}},
	}); err != nil {
		t.Fatalf("SaveAuthor failed: %v", err)
	}
	post := content.Post{
		ID:          id,
		CreatedAt:   created,
		Title:       "Title " + slug,
		Slug:        content.Slug{Current: slug},
		Description: "About " + slug,
	}
	if err := s.SavePost(ctx, post, "author-ann"); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestNewStoreInMemory(t *testing.T) {
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()
	seedPost(t, s, "p1", "hello", time.Now())
	if _, err := s.GetPost(context.Background(), "hello"); err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
}

func TestStoreListPosts(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2023, 3, 26, 10, 0, 0, 0, time.UTC)
	seedPost(t, s, "p1", "older", base)
	seedPost(t, s, "p2", "newer", base.Add(time.Hour))

	posts, err := s.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].Slug.Current != "newer" {
		t.Errorf("first post = %q, want newer", posts[0].Slug.Current)
	}
	if posts[0].Author.Name != "Ann" {
		t.Errorf("author = %q, want Ann", posts[0].Author.Name)
	}
	if posts[0].Author.Image == nil || posts[0].Author.Image.Asset.Ref != "image-ann-64x64-png" {
		t.Errorf("author image not round-tripped: %+v", posts[0].Author.Image)
	}
	if posts[0].MainImage != nil {
		t.Errorf("main image should be nil, got %+v", posts[0].MainImage)
	}
	if !posts[1].CreatedAt.Equal(base) {
		t.Errorf("createdAt = %v, want %v", posts[1].CreatedAt, base)
	}
}

func TestStoreListPostPaths(t *testing.T) {
	s := setupTestStore(t)
	seedPost(t, s, "p1", "hello", time.Now())

	paths, err := s.ListPostPaths(context.Background())
	if err != nil {
		t.Fatalf("ListPostPaths failed: %v", err)
	}
	if len(paths) != 1 || paths[0].ID != "p1" || paths[0].Slug.Current != "hello" {
		t.Errorf("paths = %+v", paths)
	}
}

func TestStoreGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPost(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreSavePostKeepsComments(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedPost(t, s, "p1", "hello", time.Now())

	id, err := s.CreateComment(ctx, content.NewComment{PostID: "p1", Name: "Zed", Email: "z@example.com", Comment: "hi"})
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if err := s.ApproveComment(ctx, id, true); err != nil {
		t.Fatalf("ApproveComment failed: %v", err)
	}

	// Saving the post again must not cascade into its comments.
	seedPost(t, s, "p1", "hello", time.Now())
	post, err := s.GetPost(ctx, "hello")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(post.Comments) != 1 {
		t.Fatalf("got %d comments after re-save, want 1", len(post.Comments))
	}
}

func TestStoreCommentApproval(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedPost(t, s, "p1", "hello", time.Now())

	id, err := s.CreateComment(ctx, content.NewComment{PostID: "p1", Name: "Zed", Email: "z@example.com", Comment: "first!"})
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a comment id")
	}

	post, err := s.GetPost(ctx, "hello")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(post.Comments) != 0 {
		t.Fatalf("unapproved comment is visible: %+v", post.Comments)
	}

	pending, err := s.PendingComments(ctx)
	if err != nil {
		t.Fatalf("PendingComments failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %+v", pending)
	}

	if err := s.ApproveComment(ctx, id, true); err != nil {
		t.Fatalf("ApproveComment failed: %v", err)
	}
	post, err = s.GetPost(ctx, "hello")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(post.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(post.Comments))
	}
	c := post.Comments[0]
	if c.Post.Ref != "p1" || c.Post.Type != "reference" || !c.Approved || c.Comment != "first!" {
		t.Errorf("comment = %+v", c)
	}
}

func TestStoreApproveUnknownComment(t *testing.T) {
	s := setupTestStore(t)
	err := s.ApproveComment(context.Background(), "nope", true)
	if !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("err = %v, want ErrCommentNotFound", err)
	}
}

func TestStoreCommentRequiresExistingPost(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.CreateComment(context.Background(), content.NewComment{PostID: "ghost", Name: "Zed", Email: "z@example.com", Comment: "hi"})
	if err == nil {
		t.Fatal("expected a foreign key error for a missing post")
	}
	pending, _ := s.PendingComments(context.Background())
	if len(pending) != 0 {
		t.Fatalf("comment was stored: %+v", pending)
	}
}

func TestStoreSavePostRequiresSlug(t *testing.T) {
	s := setupTestStore(t)
	err := s.SavePost(context.Background(), content.Post{ID: "p1"}, "")
	if err == nil || !strings.Contains(err.Error(), "slug") {
		t.Fatalf("err = %v, want slug required", err)
	}
}
