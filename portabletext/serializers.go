package portabletext

import (
	"html"
	"net/url"
	"strings"
)

// Props is passed to a Serializer. Children is markup that has already been
// rendered; everything else is the node being serialized.
type Props struct {
	Node     Block
	Mark     MarkDef
	Level    int
	Children string
}

// Serializer renders a single node to markup.
type Serializer func(p Props) string

// Serializers maps node kinds to rendering functions. Entries left nil fall
// back to Defaults.
type Serializers struct {
	Block     map[string]Serializer // by block style: normal, h1..h6, blockquote
	List      map[string]Serializer // by list kind: bullet, number
	ListItem  Serializer
	Marks     map[string]Serializer // by decorator name or annotation _type
	Types     map[string]Serializer // by custom object _type
	Unknown   Serializer
	HardBreak string
}

// Defaults returns the plain HTML serializer set.
func Defaults() Serializers {
	return Serializers{
		Block: map[string]Serializer{
			"normal":     wrap("p"),
			"h1":         wrap("h1"),
			"h2":         wrap("h2"),
			"h3":         wrap("h3"),
			"h4":         wrap("h4"),
			"h5":         wrap("h5"),
			"h6":         wrap("h6"),
			"blockquote": wrap("blockquote"),
		},
		List: map[string]Serializer{
			"bullet": wrap("ul"),
			"number": wrap("ol"),
		},
		ListItem: wrap("li"),
		Marks: map[string]Serializer{
			"strong":         wrap("strong"),
			"em":             wrap("em"),
			"code":           wrap("code"),
			"underline":      Tag("span", `style="text-decoration:underline"`),
			"strike-through": wrap("del"),
			"link":           Link(""),
		},
		Types:     map[string]Serializer{},
		Unknown:   unknown,
		HardBreak: "<br/>",
	}
}

// With returns s with every non-nil entry of o layered on top.
func (s Serializers) With(o Serializers) Serializers {
	out := Serializers{
		Block:     merge(s.Block, o.Block),
		List:      merge(s.List, o.List),
		ListItem:  s.ListItem,
		Marks:     merge(s.Marks, o.Marks),
		Types:     merge(s.Types, o.Types),
		Unknown:   s.Unknown,
		HardBreak: s.HardBreak,
	}
	if o.ListItem != nil {
		out.ListItem = o.ListItem
	}
	if o.Unknown != nil {
		out.Unknown = o.Unknown
	}
	if o.HardBreak != "" {
		out.HardBreak = o.HardBreak
	}
	return out
}

func merge(base, over map[string]Serializer) map[string]Serializer {
	out := make(map[string]Serializer, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Tag returns a serializer wrapping children in an element with the given
// raw attribute string. Attributes must already be escaped.
func Tag(name, attrs string) Serializer {
	open := "<" + name
	if attrs != "" {
		open += " " + attrs
	}
	open += ">"
	closing := "</" + name + ">"
	return func(p Props) string {
		return open + p.Children + closing
	}
}

// Class is Tag with a single class attribute.
func Class(name, class string) Serializer {
	return Tag(name, `class="`+html.EscapeString(class)+`"`)
}

func wrap(name string) Serializer {
	return Tag(name, "")
}

// Link returns the annotation serializer for link marks. Unsafe or missing
// hrefs degrade to the bare children.
func Link(class string) Serializer {
	return func(p Props) string {
		href := SafeURL(p.Mark.Href)
		if href == "" {
			return p.Children
		}
		attrs := `href="` + href + `"`
		if class != "" {
			attrs = `class="` + html.EscapeString(class) + `" ` + attrs
		}
		return "<a " + attrs + ">" + p.Children + "</a>"
	}
}

// unknown renders any inline text of an unrecognised node as a paragraph.
func unknown(p Props) string {
	if p.Children == "" {
		return ""
	}
	return "<p>" + p.Children + "</p>"
}

// SafeURL validates a URL for use in an href or src attribute and returns it
// escaped, or "" when the scheme is not allowed.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
