package cms

import (
	"context"

	"github.com/eringen/inkpress/content"
)

// Queries used by the page assemblers. Values are always passed as
// parameters, never concatenated into the query text.
const (
	ListPostsQuery = `*[_type == "post"]{
  _id,
  _createdAt,
  title,
  author->{
    name,
    image
  },
  description,
  mainImage,
  slug,
  body
}`

	ListPostPathsQuery = `*[_type == "post"]{
  _id,
  slug {
    current
  }
}`

	GetPostQuery = `*[_type == "post" && slug.current == $slug][0]{
  _id,
  _createdAt,
  title,
  author->{
    name,
    image
  },
  description,
  mainImage,
  slug,
  body,
  "comments": *[_type == "comment" && post._ref == ^._id && approved == true] | order(_createdAt asc){
    _id,
    _createdAt,
    post,
    name,
    email,
    comment,
    approved
  }
}`
)

// Repository expresses the blog's read and write contracts against a Store.
type Repository struct {
	store Store
}

// NewRepository returns a Repository backed by store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// ListPosts returns every post with the list-page projection.
func (r *Repository) ListPosts(ctx context.Context) ([]content.Post, error) {
	var posts []content.Post
	if err := r.store.Fetch(ctx, ListPostsQuery, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPostPaths returns the {id, slug} pair of every post.
func (r *Repository) ListPostPaths(ctx context.Context) ([]content.PostPath, error) {
	var paths []content.PostPath
	if err := r.store.Fetch(ctx, ListPostPathsQuery, nil, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// GetPost resolves a post by exact slug match, with its approved comments.
// It returns content.ErrNotFound when no post has the slug.
func (r *Repository) GetPost(ctx context.Context, slug string) (content.Post, error) {
	var post *content.Post
	if err := r.store.Fetch(ctx, GetPostQuery, map[string]any{"slug": slug}, &post); err != nil {
		return content.Post{}, err
	}
	if post == nil {
		return content.Post{}, content.ErrNotFound
	}
	return *post, nil
}

// commentDocument is the shape of a new comment in the store. Approval is
// never set here; it is flipped out of band.
type commentDocument struct {
	Type    string            `json:"_type"`
	Post    content.Reference `json:"post"`
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Comment string            `json:"comment"`
}

// CreateComment creates an unapproved comment referencing c.PostID.
func (r *Repository) CreateComment(ctx context.Context, c content.NewComment) (string, error) {
	return r.store.Create(ctx, commentDocument{
		Type:    "comment",
		Post:    content.NewReference(c.PostID),
		Name:    c.Name,
		Email:   c.Email,
		Comment: c.Comment,
	})
}
