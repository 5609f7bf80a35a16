// Package imageurl builds CDN URLs for image assets referenced from content
// documents. It performs no network I/O: the CDN applies the requested
// transformations lazily when the URL is fetched.
package imageurl

import (
	"fmt"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// DefaultBaseURL is the image CDN host used when Resolver.BaseURL is empty.
const DefaultBaseURL = "https://cdn.sanity.io"

// Reference points at an asset document. Assets are normally referenced by
// _ref; some projections expand the asset and carry a url instead.
type Reference struct {
	Ref  string `json:"_ref,omitempty" yaml:"_ref"`
	Type string `json:"_type,omitempty" yaml:"_type"`
	URL  string `json:"url,omitempty" yaml:"url"`
}

// Crop is expressed as fractions of the original image trimmed from each edge.
type Crop struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// Hotspot marks the focal area of an image as fractions of its size.
type Hotspot struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Image is an image field as stored on a document.
type Image struct {
	Type    string    `json:"_type,omitempty" yaml:"_type"`
	Asset   Reference `json:"asset" yaml:"asset"`
	Crop    *Crop     `json:"crop,omitempty" yaml:"crop"`
	Hotspot *Hotspot  `json:"hotspot,omitempty" yaml:"hotspot"`
	Alt     string    `json:"alt,omitempty" yaml:"alt"`
}

// IsZero reports whether the image has no usable asset.
func (i *Image) IsZero() bool {
	return i == nil || (i.Asset.Ref == "" && i.Asset.URL == "")
}

// Resolver maps asset references to URLs for one project and dataset.
type Resolver struct {
	ProjectID string
	Dataset   string
	BaseURL   string
}

// NewResolver returns a Resolver for the given project and dataset on the
// default CDN host.
func NewResolver(projectID, dataset string) Resolver {
	return Resolver{ProjectID: projectID, Dataset: dataset}
}

// For returns a Builder for src, which may be an Image, *Image, Reference,
// *Reference, or a bare asset ref or URL string. Unsupported or empty
// sources yield a Builder whose URL is "".
func (r Resolver) For(src any) Builder {
	b := Builder{r: r}
	switch v := src.(type) {
	case Image:
		return b.from(v.Asset, v.Crop)
	case *Image:
		if v == nil {
			return b
		}
		return b.from(v.Asset, v.Crop)
	case Reference:
		return b.from(v, nil)
	case *Reference:
		if v == nil {
			return b
		}
		return b.from(*v, nil)
	case string:
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return b.from(Reference{URL: v}, nil)
		}
		return b.from(Reference{Ref: v}, nil)
	}
	return b
}

// asset is the decoded form of an image-<id>-<w>x<h>-<format> reference.
type asset struct {
	id     string
	width  int
	height int
	format string
}

// parseRef decodes an asset reference such as
// "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg".
func parseRef(ref string) (asset, bool) {
	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return asset{}, false
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return asset{}, false
	}
	format := rest[i+1:]
	rest = rest[:i]
	j := strings.LastIndex(rest, "-")
	if j <= 0 || format == "" {
		return asset{}, false
	}
	w, h, ok := parseDims(rest[j+1:])
	if !ok {
		return asset{}, false
	}
	return asset{id: rest[:j], width: w, height: h, format: format}, true
}

// parseFilename decodes the last path segment of a CDN URL, "<id>-<w>x<h>.<format>".
func parseFilename(name string) (asset, bool) {
	ext := path.Ext(name)
	if ext == "" {
		return asset{}, false
	}
	base := strings.TrimSuffix(name, ext)
	i := strings.LastIndex(base, "-")
	if i <= 0 {
		return asset{}, false
	}
	w, h, ok := parseDims(base[i+1:])
	if !ok {
		return asset{}, false
	}
	return asset{id: base[:i], width: w, height: h, format: ext[1:]}, true
}

func parseDims(s string) (int, int, bool) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Builder accumulates transformations for one image. Builders are values;
// every method returns a modified copy.
type Builder struct {
	r       Resolver
	asset   asset
	base    string
	ok      bool
	crop    *Crop
	width   int
	height  int
	quality int
	fit     string
	format  string
	auto    string
	dpr     float64
}

func (b Builder) from(ref Reference, crop *Crop) Builder {
	switch {
	case ref.Ref != "":
		a, ok := parseRef(ref.Ref)
		if !ok || b.r.ProjectID == "" || b.r.Dataset == "" {
			return b
		}
		host := strings.TrimRight(b.r.BaseURL, "/")
		if host == "" {
			host = DefaultBaseURL
		}
		b.asset = a
		b.base = fmt.Sprintf("%s/images/%s/%s/%s-%dx%d.%s", host, b.r.ProjectID, b.r.Dataset, a.id, a.width, a.height, a.format)
		b.ok = true
	case ref.URL != "":
		u, err := url.Parse(ref.URL)
		if err != nil || u.Host == "" {
			return b
		}
		u.RawQuery = ""
		u.Fragment = ""
		b.asset, _ = parseFilename(path.Base(u.Path))
		b.base = u.String()
		b.ok = true
	}
	b.crop = crop
	return b
}

// Width sets the output width in pixels.
func (b Builder) Width(px int) Builder { b.width = px; return b }

// Height sets the output height in pixels.
func (b Builder) Height(px int) Builder { b.height = px; return b }

// Size sets both width and height.
func (b Builder) Size(w, h int) Builder { b.width, b.height = w, h; return b }

// Quality sets the compression quality, 0-100.
func (b Builder) Quality(q int) Builder { b.quality = q; return b }

// Fit sets how the image is fitted to the requested size
// (clip, crop, fill, fillmax, max, scale, min).
func (b Builder) Fit(mode string) Builder { b.fit = mode; return b }

// Format forces an output format (jpg, png, webp).
func (b Builder) Format(f string) Builder { b.format = f; return b }

// Auto enables automatic behaviour, e.g. Auto("format").
func (b Builder) Auto(mode string) Builder { b.auto = mode; return b }

// DPR sets the device pixel ratio multiplier.
func (b Builder) DPR(ratio float64) Builder { b.dpr = ratio; return b }

// OK reports whether the builder resolved a usable asset.
func (b Builder) OK() bool { return b.ok }

// URL materializes the final URL, or "" when the source could not be resolved.
func (b Builder) URL() string {
	if !b.ok {
		return ""
	}
	var params []string
	if rect, ok := b.rect(); ok {
		params = append(params, "rect="+rect)
	}
	if b.width > 0 {
		params = append(params, "w="+strconv.Itoa(b.width))
	}
	if b.height > 0 {
		params = append(params, "h="+strconv.Itoa(b.height))
	}
	if b.quality > 0 {
		params = append(params, "q="+strconv.Itoa(b.quality))
	}
	if b.format != "" {
		params = append(params, "fm="+url.QueryEscape(b.format))
	}
	if b.fit != "" {
		params = append(params, "fit="+url.QueryEscape(b.fit))
	}
	if b.auto != "" {
		params = append(params, "auto="+url.QueryEscape(b.auto))
	}
	if b.dpr > 0 && b.dpr != 1 {
		params = append(params, "dpr="+strconv.FormatFloat(b.dpr, 'f', -1, 64))
	}
	if len(params) == 0 {
		return b.base
	}
	return b.base + "?" + strings.Join(params, "&")
}

// rect converts the crop fractions into a pixel rectangle "left,top,width,height".
func (b Builder) rect() (string, bool) {
	c := b.crop
	w, h := float64(b.asset.width), float64(b.asset.height)
	if c == nil || w == 0 || h == 0 {
		return "", false
	}
	left := math.Round(c.Left * w)
	top := math.Round(c.Top * h)
	cw := math.Round(w - c.Right*w - left)
	ch := math.Round(h - c.Bottom*h - top)
	if cw <= 0 || ch <= 0 {
		return "", false
	}
	if left == 0 && top == 0 && cw == w && ch == h {
		return "", false
	}
	return fmt.Sprintf("%d,%d,%d,%d", int(left), int(top), int(cw), int(ch)), true
}
