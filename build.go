package inkpress

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Export writes every enumerated page to dir as static files: index.html,
// post/{slug}/index.html, 404.html, sitemap.xml, feed.xml, robots.txt and
// the embedded assets under public/. It returns the number of pages written.
func (a *App) Export(ctx context.Context, dir string) (int, error) {
	paths, err := a.Paths(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, p := range paths {
		page, err := a.generator(p)(ctx)
		if err != nil {
			return written, fmt.Errorf("%s: %w", p, err)
		}
		if page.Status != http.StatusOK {
			a.Echo.Logger.Warnf("skipping %s: status %d", p, page.Status)
			continue
		}
		if err := writeFile(filepath.Join(dir, exportFile(p)), page.Body); err != nil {
			return written, err
		}
		written++
	}

	notFound, err := renderPage(ctx, http.StatusNotFound, a.Views.NotFound())
	if err != nil {
		return written, err
	}
	if err := writeFile(filepath.Join(dir, "404.html"), notFound.Body); err != nil {
		return written, err
	}

	sitemap, err := a.sitemap(ctx)
	if err != nil {
		return written, err
	}
	if err := writeFile(filepath.Join(dir, "sitemap.xml"), sitemap); err != nil {
		return written, err
	}
	feed, err := a.feed(ctx)
	if err != nil {
		return written, err
	}
	if err := writeFile(filepath.Join(dir, "feed.xml"), feed); err != nil {
		return written, err
	}
	if err := writeFile(filepath.Join(dir, "robots.txt"), []byte(a.robots())); err != nil {
		return written, err
	}
	return written, exportAssets(filepath.Join(dir, "public"))
}

// exportFile maps a request path to its file under the export root.
func exportFile(p string) string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(p), "index.html")
}

func exportAssets(dir string) error {
	sub, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return err
	}
	return fs.WalkDir(sub, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(sub, p)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dir, filepath.FromSlash(p)), b)
	})
}

func writeFile(name string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, b, 0o644)
}
