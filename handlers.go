package inkpress

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	return a.servePage(c, "/")
}

func (a *App) handlePost(c echo.Context) error {
	return a.servePage(c, postPath(c.Param("slug")))
}

func (a *App) servePage(c echo.Context, path string) error {
	gen := a.generator(path)
	if gen == nil {
		return echo.ErrNotFound
	}
	page, err := a.Pages.Get(c.Request().Context(), path, gen)
	if err != nil {
		return err
	}
	return writePage(c, page)
}

func (a *App) handleSitemap(c echo.Context) error {
	b, err := a.sitemap(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", b)
}

func (a *App) handleFeed(c echo.Context) error {
	b, err := a.feed(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", b)
}

// handleRobots serves the site's robots.txt, or a permissive default that
// points at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, a.robots())
}

func (a *App) robots() string {
	return "User-agent: *\nAllow: /\n\nSitemap: " + BuildURL(a.Config.URL, "sitemap.xml") + "\n"
}

func (a *App) handleCommentScript(c echo.Context) error {
	b, err := EmbeddedAssets.ReadFile("embedded/comment.js")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/javascript; charset=utf-8", b)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
