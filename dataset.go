package inkpress

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/imageurl"
	"github.com/eringen/inkpress/portabletext"
)

// Dataset is a YAML document of authors, posts and comments for seeding a
// local Store. Post bodies are portable text written as YAML.
type Dataset struct {
	Authors  []DatasetAuthor  `yaml:"authors"`
	Posts    []DatasetPost    `yaml:"posts"`
	Comments []DatasetComment `yaml:"comments"`
}

type DatasetAuthor struct {
	ID    string          `yaml:"id"`
	Name  string          `yaml:"name"`
	Image *imageurl.Image `yaml:"image"`
}

type DatasetPost struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Slug        string          `yaml:"slug"`
	Description string          `yaml:"description"`
	Author      string          `yaml:"author"`
	CreatedAt   string          `yaml:"createdAt"`
	MainImage   *imageurl.Image `yaml:"mainImage"`
	Body        any             `yaml:"body"`
}

type DatasetComment struct {
	ID       string `yaml:"id"`
	Post     string `yaml:"post"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Comment  string `yaml:"comment"`
	Approved bool   `yaml:"approved"`
}

// LoadDataset decodes a YAML dataset.
func LoadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := yaml.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// post converts the YAML entry into a content post. Missing ids and slugs
// are derived from the title.
func (p DatasetPost) post() (content.Post, error) {
	post := content.Post{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        content.Slug{Current: p.Slug},
		Description: p.Description,
		MainImage:   p.MainImage,
	}
	if post.Slug.Current == "" {
		post.Slug.Current = Slugify(p.Title)
	}
	if post.ID == "" {
		post.ID = "post-" + post.Slug.Current
	}
	if p.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, p.CreatedAt)
		if err != nil {
			return content.Post{}, fmt.Errorf("post %s createdAt: %w", post.ID, err)
		}
		post.CreatedAt = t
	}
	if p.Body != nil {
		// Round-trip through JSON so the body decodes with the same rules
		// as documents from the content API.
		raw, err := json.Marshal(p.Body)
		if err != nil {
			return content.Post{}, fmt.Errorf("post %s body: %w", post.ID, err)
		}
		var blocks portabletext.Blocks
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return content.Post{}, fmt.Errorf("post %s body: %w", post.ID, err)
		}
		post.Body = blocks
	}
	return post, nil
}

// Import writes every author, post and comment of ds in one transaction.
// Authors and posts are upserted by id; comments without an id get a new one.
func (s *Store) Import(ctx context.Context, ds *Dataset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, a := range ds.Authors {
		if a.ID == "" {
			return fmt.Errorf("import: author %q has no id", a.Name)
		}
		if err := saveAuthor(ctx, tx, a.ID, content.Author{Name: a.Name, Image: a.Image}); err != nil {
			return err
		}
	}
	for _, dp := range ds.Posts {
		p, err := dp.post()
		if err != nil {
			return err
		}
		if err := savePost(ctx, tx, p, dp.Author); err != nil {
			return err
		}
	}
	for _, c := range ds.Comments {
		if err := importComment(ctx, tx, c, s.now()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func importComment(ctx context.Context, tx *sql.Tx, c DatasetComment, now time.Time) error {
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	approved := 0
	if c.Approved {
		approved = 1
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO comments (id, post_id, name, email, comment, approved, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET approved = excluded.approved`,
		id, c.Post, c.Name, c.Email, c.Comment, approved, formatTime(now))
	if err != nil {
		return fmt.Errorf("import comment for post %s: %w", c.Post, err)
	}
	return nil
}
