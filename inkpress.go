// Package inkpress is a blog front end for a headless content store, built
// with Go, Echo, and templ. Pages are generated from store queries, cached,
// and regenerated on a revalidation interval; comments are submitted to the
// store through a single JSON endpoint.
//
// The content source is injected: use cms.NewRepository for the remote
// content API or NewStore for a local SQLite dataset.
package inkpress

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpress/cms"
	"github.com/eringen/inkpress/content"
	"github.com/eringen/inkpress/imageurl"
	"github.com/eringen/inkpress/views"
)

// ErrNotFound is returned when a slug has no matching post.
var ErrNotFound = content.ErrNotFound

// Source is the read/write contract the page assemblers and the comment
// endpoint depend on.
type Source interface {
	ListPosts(ctx context.Context) ([]content.Post, error)
	ListPostPaths(ctx context.Context) ([]content.PostPath, error)
	GetPost(ctx context.Context, slug string) (content.Post, error)
	CreateComment(ctx context.Context, c content.NewComment) (string, error)
}

var (
	_ Source = (*cms.Repository)(nil)
	_ Source = (*Store)(nil)
)

// ViewFuncs holds the page components the framework renders. The defaults
// come from the views package; WithViews swaps individual pages.
type ViewFuncs struct {
	Home        func(posts []content.Post) templ.Component
	Post        func(post content.Post) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App wires together the content source, page cache, handlers,
// middleware, and views.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Source Source
	Pages  *PageCache
	Images imageurl.Resolver
	Views  ViewFuncs

	limiter       *SubmitLimiter
	validate      *validator.Validate
	viewOverrides ViewFuncs
	customRoutes  []func(*App)
	staticDir     string
	imageDir      string
	now           func() time.Time
}

// New creates an App serving content from src. Routes and middleware are
// registered immediately, so a.Echo can be used as an http.Handler.
func New(cfg SiteConfig, src Source, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Source:    src,
		staticDir: "public",
		now:       time.Now,
		validate:  newValidator(),
	}
	a.Echo.HideBanner = true
	a.Images = imageurl.Resolver{
		ProjectID: cfg.ProjectID,
		Dataset:   cfg.Dataset,
		BaseURL:   cfg.ImageBaseURL,
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.imageDir != "" && a.Images.BaseURL == "" {
		a.Images.BaseURL = cfg.URL
	}

	a.Views = a.defaultViews()
	a.applyViewOverrides()

	a.Pages = NewPageCache(cfg.Revalidate)
	a.Pages.now = a.now
	a.Pages.OnError = func(path string, err error) {
		a.Echo.Logger.Warnf("regenerate %s failed, serving stale page: %v", path, err)
	}

	if cfg.CommentRateLimit > 0 {
		a.limiter = NewSubmitLimiter(cfg.CommentRateLimit, time.Minute)
		a.limiter.now = a.now
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a
}

func (a *App) defaultViews() ViewFuncs {
	site := views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Images:      a.Images,
	}
	return ViewFuncs{
		Home:        func(posts []content.Post) templ.Component { return views.Home(site, posts) },
		Post:        func(post content.Post) templ.Component { return views.Post(site, post) },
		NotFound:    func() templ.Component { return views.NotFound(site) },
		ServerError: func() templ.Component { return views.ServerError(site) },
	}
}

func (a *App) applyViewOverrides() {
	o := a.viewOverrides
	if o.Home != nil {
		a.Views.Home = o.Home
	}
	if o.Post != nil {
		a.Views.Post = o.Post
	}
	if o.NotFound != nil {
		a.Views.NotFound = o.NotFound
	}
	if o.ServerError != nil {
		a.Views.ServerError = o.ServerError
	}
}

// Start pre-generates every known page and then serves HTTP until the
// server is shut down. A read failure during pre-generation aborts startup.
func (a *App) Start(ctx context.Context) error {
	if err := a.Prerender(ctx); err != nil {
		return fmt.Errorf("inkpress: prerender: %w", err)
	}
	a.Echo.Logger.Infof("prerendered %d pages", a.Pages.Len())
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/comment.js", a.handleCommentScript)
	if a.imageDir != "" {
		e.GET("/images/:project/:dataset/:file", a.handleImage)
	}
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/post/:slug", a.handlePost)

	e.POST("/api/createComment", a.handleCreateComment)
}
