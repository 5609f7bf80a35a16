// Package content defines the documents read from and written to the
// content store: posts, authors and comments.
package content

import (
	"errors"
	"time"

	"github.com/eringen/inkpress/imageurl"
	"github.com/eringen/inkpress/portabletext"
)

// ErrNotFound is returned when a slug has no matching post. It is a valid
// terminal outcome, not a failure.
var ErrNotFound = errors.New("content: post not found")

// Slug is the URL-safe identifier of a post, stored as {current: "..."}.
type Slug struct {
	Current string `json:"current" yaml:"current"`
}

// Reference links one document to another by id.
type Reference struct {
	Type string `json:"_type" yaml:"_type"`
	Ref  string `json:"_ref" yaml:"_ref"`
}

// NewReference returns a reference to the document with the given id.
func NewReference(id string) Reference {
	return Reference{Type: "reference", Ref: id}
}

// Author is referenced, not owned, by posts.
type Author struct {
	Name  string          `json:"name"`
	Image *imageurl.Image `json:"image,omitempty"`
}

// Post is a published article.
type Post struct {
	ID          string              `json:"_id"`
	CreatedAt   time.Time           `json:"_createdAt"`
	Title       string              `json:"title"`
	Slug        Slug                `json:"slug"`
	Description string              `json:"description"`
	MainImage   *imageurl.Image     `json:"mainImage,omitempty"`
	Body        portabletext.Blocks `json:"body,omitempty"`
	Author      Author              `json:"author"`
	Comments    []Comment           `json:"comments,omitempty"`
}

// Path returns the detail route of the post.
func (p Post) Path() string {
	return "/post/" + p.Slug.Current
}

// PostPath is the minimal projection used to enumerate detail pages.
type PostPath struct {
	ID   string `json:"_id"`
	Slug Slug   `json:"slug"`
}

// Comment is a reader comment on a post. Approved is mutated out of band;
// only approved comments are fetched for display.
type Comment struct {
	ID        string    `json:"_id"`
	CreatedAt time.Time `json:"_createdAt"`
	Post      Reference `json:"post"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
}

// NewComment is a comment submission before it becomes a document.
type NewComment struct {
	PostID  string `json:"_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Comment string `json:"comment" validate:"required"`
}
