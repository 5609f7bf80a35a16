package portabletext

import (
	"html"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, src string) Blocks {
	t.Helper()
	var body Blocks
	require.NoError(t, json.Unmarshal([]byte(src), &body))
	return body
}

func TestRenderBlocksAndStyles(t *testing.T) {
	body := decode(t, `[
		{"_type":"block","_key":"a","style":"h1","children":[{"_type":"span","text":"Title"}]},
		{"_type":"block","_key":"b","style":"normal","children":[{"_type":"span","text":"Hello <world> & co"}]},
		{"_type":"block","_key":"c","style":"blockquote","children":[{"_type":"span","text":"Quote"}]},
		{"_type":"block","_key":"d","children":[{"_type":"span","text":"no style"}]}
	]`)
	got := HTML(body, Serializers{})
	assert.Equal(t, "<h1>Title</h1><p>Hello &lt;world&gt; &amp; co</p><blockquote>Quote</blockquote><p>no style</p>", got)
}

func TestRenderMarksSpanningSpans(t *testing.T) {
	body := decode(t, `[{
		"_type":"block","style":"normal",
		"markDefs":[{"_key":"lnk","_type":"link","href":"https://go.dev"}],
		"children":[
			{"_type":"span","text":"Read the ","marks":[]},
			{"_type":"span","text":"Go ","marks":["lnk"]},
			{"_type":"span","text":"docs","marks":["lnk","strong"]},
			{"_type":"span","text":" now","marks":["em"]}
		]
	}]`)
	got := HTML(body, Serializers{})
	assert.Equal(t, `<p>Read the <a href="https://go.dev">Go <strong>docs</strong></a><em> now</em></p>`, got)
}

func TestRenderDecorators(t *testing.T) {
	body := decode(t, `[{"_type":"block","children":[
		{"_type":"span","text":"c","marks":["code"]},
		{"_type":"span","text":"u","marks":["underline"]},
		{"_type":"span","text":"s","marks":["strike-through"]}
	]}]`)
	got := HTML(body, Serializers{})
	assert.Equal(t, `<p><code>c</code><span style="text-decoration:underline">u</span><del>s</del></p>`, got)
}

func TestRenderNestedLists(t *testing.T) {
	body := decode(t, `[
		{"_type":"block","children":[{"_type":"span","text":"intro"}]},
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"a"}]},
		{"_type":"block","listItem":"bullet","level":2,"children":[{"_type":"span","text":"b"}]},
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"c"}]},
		{"_type":"block","listItem":"number","level":1,"children":[{"_type":"span","text":"d"}]},
		{"_type":"block","children":[{"_type":"span","text":"outro"}]}
	]`)
	got := HTML(body, Serializers{})
	assert.Equal(t, "<p>intro</p><ul><li>a<ul><li>b</li></ul></li><li>c</li></ul><ol><li>d</li></ol><p>outro</p>", got)
}

func TestRenderUnknownNodesDegrade(t *testing.T) {
	body := decode(t, `[
		{"_type":"youtube","_key":"v","url":"https://example.com/watch"},
		{"_type":"callout","children":[{"_type":"span","text":"still readable"}]},
		{"_type":"block","style":"h9","children":[{"_type":"span","text":"odd style"}]},
		{"_type":"block","markDefs":[{"_key":"x","_type":"internalLink","reference":{"_ref":"p1"}}],
		 "children":[{"_type":"span","text":"hi","marks":["x","highlight"]},{"_type":"mention","text":"@bob"}]},
		{"_type":"block","listItem":"checkbox","children":[{"_type":"span","text":"todo"}]}
	]`)
	var got string
	require.NotPanics(t, func() { got = HTML(body, Serializers{}) })
	assert.Equal(t, "<p>still readable</p><p>odd style</p><p>hi@bob</p><ul><li>todo</li></ul>", got)
}

func TestRenderUnsafeLink(t *testing.T) {
	body := decode(t, `[{"_type":"block",
		"markDefs":[{"_key":"k","_type":"link","href":"javascript:alert(1)"}],
		"children":[{"_type":"span","text":"click","marks":["k"]}]}]`)
	assert.Equal(t, "<p>click</p>", HTML(body, Serializers{}))
}

func TestRenderHardBreak(t *testing.T) {
	body := decode(t, `[{"_type":"block","children":[{"_type":"span","text":"one\ntwo <3"}]}]`)
	assert.Equal(t, "<p>one<br/>two &lt;3</p>", HTML(body, Serializers{}))
	assert.Equal(t, "<p>one<br>two &lt;3</p>", HTML(body, Serializers{HardBreak: "<br>"}))
}

func TestRenderEmptyBody(t *testing.T) {
	assert.Empty(t, HTML(nil, Serializers{}))
	assert.Empty(t, HTML(Blocks{}, Serializers{}))
	assert.Empty(t, HTML(decode(t, `null`), Serializers{}))
}

func TestRenderIsDeterministic(t *testing.T) {
	body := decode(t, `[{"_type":"block",
		"markDefs":[{"_key":"b","_type":"link","href":"/x"},{"_key":"a","_type":"link","href":"/y"}],
		"children":[
			{"_type":"span","text":"1","marks":["strong","em","a","b"]},
			{"_type":"span","text":"2","marks":["em","strong"]}
		]}]`)
	first := HTML(body, Serializers{})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, HTML(body, Serializers{}))
	}
	assert.Equal(t, `<p><em><strong><a href="/y"><a href="/x">1</a></a>2</strong></em></p>`, first)
}

func TestCustomSerializers(t *testing.T) {
	type youtube struct {
		URL string `json:"url"`
	}
	s := Serializers{
		Block: map[string]Serializer{
			"h1": Class("h1", "text-2xl font-bold my-5"),
		},
		ListItem: Class("li", "ml-4 list-disc"),
		Marks: map[string]Serializer{
			"link": Link("text-blue-500 hover:underline"),
		},
		Types: map[string]Serializer{
			"youtube": func(p Props) string {
				var v youtube
				if err := p.Node.Decode(&v); err != nil {
					return ""
				}
				return `<iframe src="` + html.EscapeString(v.URL) + `"></iframe>`
			},
		},
	}
	body := decode(t, `[
		{"_type":"block","style":"h1","children":[{"_type":"span","text":"T"}]},
		{"_type":"block","style":"h2","children":[{"_type":"span","text":"S"}]},
		{"_type":"block","listItem":"bullet","children":[{"_type":"span","text":"i"}]},
		{"_type":"block","markDefs":[{"_key":"l","_type":"link","href":"https://a.b/?q=1&r=2"}],"children":[{"_type":"span","text":"go","marks":["l"]}]},
		{"_type":"youtube","url":"https://v.example/1"}
	]`)
	got := HTML(body, s)
	assert.Equal(t, `<h1 class="text-2xl font-bold my-5">T</h1><h2>S</h2><ul><li class="ml-4 list-disc">i</li></ul>`+
		`<p><a class="text-blue-500 hover:underline" href="https://a.b/?q=1&amp;r=2">go</a></p><iframe src="https://v.example/1"></iframe>`, got)
}

func TestLenientDecode(t *testing.T) {
	assert.Nil(t, decode(t, `"not a body"`))
	body := decode(t, `[1, "x", {"_type":"block","level":"deep"}, {"_type":"block","children":[{"_type":"span","text":"ok"}]}]`)
	require.Len(t, body, 1)
	assert.Equal(t, "<p>ok</p>", HTML(body, Serializers{}))
}

func TestMarshalKeepsCustomFields(t *testing.T) {
	body := decode(t, `[{"_type":"image","asset":{"_ref":"image-a-1x1-png"}}]`)
	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_type":"image","asset":{"_ref":"image-a-1x1-png"}}]`, string(out))
}

func TestPlainText(t *testing.T) {
	body := decode(t, `[
		{"_type":"block","children":[{"_type":"span","text":"Hello "},{"_type":"span","text":"world","marks":["strong"]}]},
		{"_type":"image"},
		{"_type":"block","listItem":"bullet","children":[{"_type":"span","text":"item"}]}
	]`)
	assert.Equal(t, "Hello world\nitem", PlainText(body))
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"/post/hello", "/post/hello"},
		{"#top", "#top"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"relative/path", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeURL(tt.in), "SafeURL(%q)", tt.in)
	}
}
