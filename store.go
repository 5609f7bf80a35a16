package inkpress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/imageurl"
	"github.com/eringen/inkpress/portabletext"
)

// ErrCommentNotFound is returned when approving a comment id that does not exist.
var ErrCommentNotFound = errors.New("inkpress: comment not found")

// Store is a local SQLite dataset holding authors, posts and comments. It
// serves the same read and write contracts as the remote content API.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	// Pragmas go in the DSN so every pooled connection gets them; foreign
	// keys in particular are per connection. WAL lets readers run during a
	// write, and the busy timeout makes writers wait instead of failing.
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if !memory {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS authors (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    image TEXT
);
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    author_id TEXT REFERENCES authors(id) ON DELETE SET NULL,
    main_image TEXT,
    body TEXT,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    comment TEXT NOT NULL,
    approved INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS comments_post_approved ON comments (post_id, approved, created_at);
`)
	return err
}

const postColumns = `p.id, p.slug, p.title, p.description, p.main_image, p.body, p.created_at, a.name, a.image`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (content.Post, error) {
	var (
		p                        content.Post
		mainImage, body, created sql.NullString
		authorName, authorImage  sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Slug.Current, &p.Title, &p.Description, &mainImage, &body, &created, &authorName, &authorImage); err != nil {
		return content.Post{}, err
	}
	p.CreatedAt = parseTime(created.String)
	p.Author.Name = authorName.String
	var err error
	if p.MainImage, err = decodeImage(mainImage); err != nil {
		return content.Post{}, fmt.Errorf("post %s main image: %w", p.ID, err)
	}
	if p.Author.Image, err = decodeImage(authorImage); err != nil {
		return content.Post{}, fmt.Errorf("post %s author image: %w", p.ID, err)
	}
	if body.Valid && body.String != "" {
		if err := json.Unmarshal([]byte(body.String), &p.Body); err != nil {
			return content.Post{}, fmt.Errorf("post %s body: %w", p.ID, err)
		}
	}
	return p, nil
}

// ListPosts returns every post, newest first, with its author.
func (s *Store) ListPosts(ctx context.Context) ([]content.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+`
FROM posts p LEFT JOIN authors a ON a.id = p.author_id
ORDER BY p.created_at DESC, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []content.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPostPaths returns the {id, slug} pair of every post.
func (s *Store) ListPostPaths(ctx context.Context) ([]content.PostPath, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, slug FROM posts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []content.PostPath
	for rows.Next() {
		var p content.PostPath
		if err := rows.Scan(&p.ID, &p.Slug.Current); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// GetPost returns the post with the exact slug and its approved comments,
// oldest first. It returns ErrNotFound when no post has the slug.
func (s *Store) GetPost(ctx context.Context, slug string) (content.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+`
FROM posts p LEFT JOIN authors a ON a.id = p.author_id
WHERE p.slug = ?`, slug)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Post{}, ErrNotFound
	}
	if err != nil {
		return content.Post{}, err
	}

	post.Comments, err = s.comments(ctx, `WHERE post_id = ? AND approved = 1 ORDER BY created_at, id`, post.ID)
	if err != nil {
		return content.Post{}, err
	}
	return post, nil
}

// PendingComments returns every unapproved comment, oldest first.
func (s *Store) PendingComments(ctx context.Context) ([]content.Comment, error) {
	return s.comments(ctx, `WHERE approved = 0 ORDER BY created_at, id`)
}

func (s *Store) comments(ctx context.Context, where string, args ...any) ([]content.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, post_id, name, email, comment, approved, created_at FROM comments `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []content.Comment
	for rows.Next() {
		var (
			c        content.Comment
			postID   string
			approved int
			created  string
		)
		if err := rows.Scan(&c.ID, &postID, &c.Name, &c.Email, &c.Comment, &approved, &created); err != nil {
			return nil, err
		}
		c.Post = content.NewReference(postID)
		c.Approved = approved == 1
		c.CreatedAt = parseTime(created)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateComment stores an unapproved comment for c.PostID and returns its
// id. The post must exist.
func (s *Store) CreateComment(ctx context.Context, c content.NewComment) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO comments (id, post_id, name, email, comment, approved, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?)`, id, c.PostID, c.Name, c.Email, c.Comment, formatTime(s.now()))
	if err != nil {
		return "", fmt.Errorf("create comment: %w", err)
	}
	return id, nil
}

// ApproveComment sets the approval flag of a comment.
func (s *Store) ApproveComment(ctx context.Context, id string, approved bool) error {
	flag := 0
	if approved {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET approved = ? WHERE id = ?`, flag, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// SaveAuthor inserts or updates an author.
func (s *Store) SaveAuthor(ctx context.Context, id string, a content.Author) error {
	return saveAuthor(ctx, s.db, id, a)
}

// SavePost inserts or updates a post by id. Existing comments are kept.
func (s *Store) SavePost(ctx context.Context, p content.Post, authorID string) error {
	return savePost(ctx, s.db, p, authorID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveAuthor(ctx context.Context, db execer, id string, a content.Author) error {
	image, err := encodeJSON(a.Image)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO authors (id, name, image) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, image = excluded.image`, id, a.Name, image)
	if err != nil {
		return fmt.Errorf("save author %s: %w", id, err)
	}
	return nil
}

func savePost(ctx context.Context, db execer, p content.Post, authorID string) error {
	if p.ID == "" || p.Slug.Current == "" {
		return fmt.Errorf("save post: id and slug are required")
	}
	mainImage, err := encodeJSON(p.MainImage)
	if err != nil {
		return err
	}
	body, err := encodeJSON(p.Body)
	if err != nil {
		return err
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var author any
	if authorID != "" {
		author = authorID
	}
	_, err = db.ExecContext(ctx, `INSERT INTO posts (id, slug, title, description, author_id, main_image, body, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    slug = excluded.slug,
    title = excluded.title,
    description = excluded.description,
    author_id = excluded.author_id,
    main_image = excluded.main_image,
    body = excluded.body`,
		p.ID, p.Slug.Current, p.Title, p.Description, author, mainImage, body, formatTime(created))
	if err != nil {
		return fmt.Errorf("save post %s: %w", p.ID, err)
	}
	return nil
}

// encodeJSON returns nil for nil images and empty bodies so the column is NULL.
func encodeJSON(v any) (any, error) {
	switch t := v.(type) {
	case *imageurl.Image:
		if t.IsZero() {
			return nil, nil
		}
	case portabletext.Blocks:
		if len(t) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeImage(s sql.NullString) (*imageurl.Image, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var img imageurl.Image
	if err := json.Unmarshal([]byte(s.String), &img); err != nil {
		return nil, err
	}
	return &img, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
