package inkpress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 2400
	jpegQuality   = 80
)

// maxSourcePixels bounds the decoded size of a source image.
var maxSourcePixels = 40_000_000

// imageParams are the transformations a local image request can ask for,
// using the same query names as the image URL builder.
type imageParams struct {
	rect    image.Rectangle
	width   int
	height  int
	quality int
	fit     string
	format  string
}

func parseImageParams(c echo.Context) (imageParams, error) {
	p := imageParams{quality: jpegQuality, fit: c.QueryParam("fit"), format: c.QueryParam("fm")}
	var err error
	if p.width, err = queryInt(c, "w"); err != nil {
		return p, err
	}
	if p.height, err = queryInt(c, "h"); err != nil {
		return p, err
	}
	q, err := queryInt(c, "q")
	if err != nil {
		return p, err
	}
	if q > 0 && q <= 100 {
		p.quality = q
	}
	if dpr, err := strconv.ParseFloat(c.QueryParam("dpr"), 64); err == nil && dpr > 1 && dpr <= 3 {
		p.width = int(float64(p.width) * dpr)
		p.height = int(float64(p.height) * dpr)
	}
	if r := c.QueryParam("rect"); r != "" {
		parts := strings.Split(r, ",")
		if len(parts) != 4 {
			return p, fmt.Errorf("rect: want left,top,width,height")
		}
		var v [4]int
		for i, s := range parts {
			if v[i], err = strconv.Atoi(s); err != nil || v[i] < 0 {
				return p, fmt.Errorf("rect: invalid value %q", s)
			}
		}
		p.rect = image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3])
	}
	p.width = min(p.width, maxImageWidth)
	p.height = min(p.height, maxImageWidth)
	return p, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid value %q", name, v)
	}
	return n, nil
}

// processImage crops and resizes src and encodes the result. Without a
// target size the image keeps its dimensions; with one side the other
// follows the aspect ratio; with both, fit=crop fills the box from the
// centre and every other mode fits inside it.
func processImage(src image.Image, srcFormat string, p imageParams) ([]byte, string, error) {
	img := src
	if !p.rect.Empty() {
		r := p.rect.Add(src.Bounds().Min).Intersect(src.Bounds())
		if r.Empty() {
			return nil, "", fmt.Errorf("rect outside the image")
		}
		img = subImage(src, r)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tw, th := targetSize(w, h, p.width, p.height, p.fit)
	if p.fit == "crop" && p.width > 0 && p.height > 0 {
		img = subImage(img, centreCrop(b, p.width, p.height))
	}
	if tw != img.Bounds().Dx() || th != img.Bounds().Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}

	format := p.format
	if format == "" {
		format = srcFormat
	}
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

func targetSize(w, h, tw, th int, fit string) (int, int) {
	switch {
	case tw == 0 && th == 0:
		return w, h
	case th == 0:
		return tw, max(1, h*tw/w)
	case tw == 0:
		return max(1, w*th/h), th
	case fit == "crop":
		return tw, th
	}
	// Fit inside the box, never upscaling for fit=max.
	scale := min(float64(tw)/float64(w), float64(th)/float64(h))
	if fit == "max" && scale > 1 {
		return w, h
	}
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

// centreCrop returns the largest rectangle of b with the aspect tw:th.
func centreCrop(b image.Rectangle, tw, th int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	cw, ch := w, w*th/tw
	if ch > h {
		cw, ch = h*tw/th, h
	}
	x := b.Min.X + (w-cw)/2
	y := b.Min.Y + (h-ch)/2
	return image.Rect(x, y, x+cw, y+ch)
}

func subImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}

// handleImage serves an image from the local image directory at the path
// the image URL builder produces: /images/{project}/{dataset}/{id}-{w}x{h}.{ext}.
func (a *App) handleImage(c echo.Context) error {
	if c.Param("project") != a.Images.ProjectID || c.Param("dataset") != a.Images.Dataset {
		return echo.ErrNotFound
	}
	name := filepath.Base(c.Param("file"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return echo.ErrNotFound
	}
	p, err := parseImageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	f, err := os.Open(filepath.Join(a.imageDir, name))
	if err != nil {
		return echo.ErrNotFound
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decode image %s: %w", name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "image too large")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	src, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image %s: %w", name, err)
	}
	data, contentType, err := processImage(src, format, p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.Blob(http.StatusOK, contentType, data)
}
