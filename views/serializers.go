package views

import (
	"html"

	"github.com/eringen/inkpress/imageurl"
	"github.com/eringen/inkpress/portabletext"
)

// Serializers returns the site's body serializer set: the plain defaults
// with styled headings, list items and links, plus inline images.
func Serializers(images imageurl.Resolver) portabletext.Serializers {
	return portabletext.Defaults().With(portabletext.Serializers{
		Block: map[string]portabletext.Serializer{
			"h1": portabletext.Class("h1", "text-2xl font-bold my-5"),
			"h2": portabletext.Class("h2", "text-xl font-bold my-5"),
		},
		ListItem: portabletext.Class("li", "ml-4 list-disc"),
		Marks: map[string]portabletext.Serializer{
			"link": portabletext.Link("text-blue-500 hover:underline"),
		},
		Types: map[string]portabletext.Serializer{
			"image": imageSerializer(images),
		},
	})
}

// imageSerializer renders body image objects; unresolvable assets render nothing.
func imageSerializer(images imageurl.Resolver) portabletext.Serializer {
	return func(p portabletext.Props) string {
		var img imageurl.Image
		if err := p.Node.Decode(&img); err != nil {
			return ""
		}
		src := portabletext.SafeURL(images.For(img).Width(1200).Fit("max").Auto("format").URL())
		if src == "" {
			return ""
		}
		return `<figure class="my-5"><img class="w-full" src="` + src + `" alt="` + html.EscapeString(img.Alt) + `" loading="lazy"/></figure>`
	}
}
