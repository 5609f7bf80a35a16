package inkpress

import (
	"strings"
	"time"
)

// SiteConfig holds all configuration for an inkpress site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr string // Listen address (default ":3000")

	// Revalidate is how long a generated page is served before the next
	// request regenerates it (default 60s). Negative keeps pages forever.
	Revalidate time.Duration
	// FetchTimeout is the content store HTTP client timeout (default 10s).
	FetchTimeout time.Duration

	// ValidateComments enables server-side field validation on comment
	// submissions. Off by default: fields are only required by the form.
	ValidateComments bool
	// CommentRateLimit is the number of submissions allowed per IP per
	// minute (default 10). Negative disables the limit.
	CommentRateLimit int

	// Image CDN settings used to resolve asset references.
	ProjectID    string
	Dataset      string
	ImageBaseURL string
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Revalidate == 0 {
		c.Revalidate = 60 * time.Second
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.CommentRateLimit == 0 {
		c.CommentRateLimit = 10
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithViews replaces the default page components. Nil fields keep the default.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.viewOverrides = v
	}
}

// WithClock sets the time source used for page revalidation.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithImageDir serves image assets from dir under /images/, in the same URL
// layout as the image CDN. Asset URLs then point at the site itself unless
// SiteConfig.ImageBaseURL is set.
func WithImageDir(dir string) Option {
	return func(a *App) {
		a.imageDir = dir
	}
}
