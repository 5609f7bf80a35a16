// Package portabletext renders portable block content (a JSON tree of text
// blocks, spans, marks and custom objects) to HTML through a serializer set.
package portabletext

import (
	"bytes"
	"context"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Render returns a templ.Component that writes blocks as HTML using s layered
// over Defaults.
func Render(blocks Blocks, s Serializers) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, blocks, s)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// HTML renders blocks to a string.
func HTML(blocks Blocks, s Serializers) string {
	var buf bytes.Buffer
	RenderHTML(&buf, blocks, s)
	return buf.String()
}

// RenderHTML writes the HTML for blocks to buf. A nil body writes nothing.
func RenderHTML(buf *bytes.Buffer, blocks Blocks, s Serializers) {
	if len(blocks) == 0 {
		return
	}
	r := renderer{s: Defaults().With(s)}
	for i := 0; i < len(blocks); {
		if blocks[i].isListItem() {
			j := i
			for j < len(blocks) && blocks[j].isListItem() {
				j++
			}
			for _, l := range nestLists(blocks[i:j]) {
				buf.WriteString(r.list(l))
			}
			i = j
			continue
		}
		buf.WriteString(r.block(blocks[i]))
		i++
	}
}

// PlainText returns the concatenated span text of every text block,
// one block per line.
func PlainText(blocks Blocks) string {
	var lines []string
	for _, b := range blocks {
		if b.Type != "block" {
			continue
		}
		var sb strings.Builder
		for _, sp := range b.Children {
			if sp.Type == "" || sp.Type == "span" {
				sb.WriteString(sp.Text)
			}
		}
		if sb.Len() > 0 {
			lines = append(lines, sb.String())
		}
	}
	return strings.Join(lines, "\n")
}

type renderer struct {
	s Serializers
}

func (r *renderer) block(b Block) string {
	switch b.Type {
	case "block":
		fn := r.s.Block[b.Style]
		if fn == nil {
			fn = r.s.Block["normal"]
		}
		return fn(Props{Node: b, Children: r.inline(b)})
	default:
		if fn := r.s.Types[b.Type]; fn != nil {
			return fn(Props{Node: b})
		}
		return r.s.Unknown(Props{Node: b, Children: r.inline(b)})
	}
}

type listNode struct {
	kind  string
	level int
	items []*itemNode
}

type itemNode struct {
	block Block
	lists []*listNode
}

// nestLists groups a run of list-item blocks into lists nested by level.
// A change of list kind at the same level starts a new list.
func nestLists(items []Block) []*listNode {
	var roots, stack []*listNode
	for _, b := range items {
		lvl := b.Level
		if lvl < 1 {
			lvl = 1
		}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.level > lvl || (top.level == lvl && top.kind != b.ListItem) {
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}
		var list *listNode
		if len(stack) > 0 && stack[len(stack)-1].level == lvl {
			list = stack[len(stack)-1]
		} else {
			list = &listNode{kind: b.ListItem, level: lvl}
			if len(stack) == 0 {
				roots = append(roots, list)
			} else {
				parent := stack[len(stack)-1]
				last := parent.items[len(parent.items)-1]
				last.lists = append(last.lists, list)
			}
			stack = append(stack, list)
		}
		list.items = append(list.items, &itemNode{block: b})
	}
	return roots
}

func (r *renderer) list(l *listNode) string {
	var sb strings.Builder
	for _, item := range l.items {
		var children strings.Builder
		children.WriteString(r.inline(item.block))
		for _, sub := range item.lists {
			children.WriteString(r.list(sub))
		}
		sb.WriteString(r.s.ListItem(Props{Node: item.block, Level: l.level, Children: children.String()}))
	}
	fn := r.s.List[l.kind]
	if fn == nil {
		fn = r.s.List["bullet"]
	}
	return fn(Props{Node: Block{Type: "list", ListItem: l.kind, Level: l.level}, Level: l.level, Children: sb.String()})
}

// markNode is either an open mark (mark != "") or a leaf span.
type markNode struct {
	mark     string
	span     *Span
	children []*markNode
}

// inline renders the spans of b, nesting marks shared by adjacent spans so
// that a mark spanning several spans is emitted once.
func (r *renderer) inline(b Block) string {
	if len(b.Children) == 0 {
		return ""
	}
	defs := make(map[string]MarkDef, len(b.MarkDefs))
	for _, d := range b.MarkDefs {
		defs[d.Key] = d
	}
	root := &markNode{}
	stack := []*markNode{root}
	for i := range b.Children {
		needed := sortMarks(b.Children, i)
		pos := 1
		for pos < len(stack) && pos-1 < len(needed) && stack[pos].mark == needed[pos-1] {
			pos++
		}
		stack = stack[:pos]
		for _, m := range needed[pos-1:] {
			n := &markNode{mark: m}
			top := stack[len(stack)-1]
			top.children = append(top.children, n)
			stack = append(stack, n)
		}
		top := stack[len(stack)-1]
		top.children = append(top.children, &markNode{span: &b.Children[i]})
	}
	return r.marks(root.children, defs)
}

// sortMarks orders the marks of spans[i] so that marks continuing over more
// following spans come first. Ties are broken by name.
func sortMarks(spans []Span, i int) []string {
	seen := make(map[string]bool, len(spans[i].Marks))
	var marks []string
	for _, m := range spans[i].Marks {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		marks = append(marks, m)
	}
	if len(marks) < 2 {
		return marks
	}
	runs := make(map[string]int, len(marks))
	for _, m := range marks {
		n := 0
		for j := i + 1; j < len(spans) && hasMark(spans[j], m); j++ {
			n++
		}
		runs[m] = n
	}
	sort.SliceStable(marks, func(a, b int) bool {
		if runs[marks[a]] != runs[marks[b]] {
			return runs[marks[a]] > runs[marks[b]]
		}
		return marks[a] < marks[b]
	})
	return marks
}

func hasMark(s Span, mark string) bool {
	for _, m := range s.Marks {
		if m == mark {
			return true
		}
	}
	return false
}

func (r *renderer) marks(nodes []*markNode, defs map[string]MarkDef) string {
	var sb strings.Builder
	for _, n := range nodes {
		if n.span != nil {
			sb.WriteString(r.span(*n.span))
			continue
		}
		sb.WriteString(r.mark(n.mark, r.marks(n.children, defs), defs))
	}
	return sb.String()
}

func (r *renderer) mark(name, children string, defs map[string]MarkDef) string {
	if def, ok := defs[name]; ok {
		if fn := r.s.Marks[def.Type]; fn != nil {
			return fn(Props{Mark: def, Children: children})
		}
		return children
	}
	if fn := r.s.Marks[name]; fn != nil {
		return fn(Props{Mark: MarkDef{Key: name, Type: name}, Children: children})
	}
	return children
}

func (r *renderer) span(sp Span) string {
	if sp.Type != "" && sp.Type != "span" {
		if fn := r.s.Types[sp.Type]; fn != nil {
			return fn(Props{Node: Block{Type: sp.Type, Key: sp.Key, Raw: sp.Raw}})
		}
		return html.EscapeString(sp.Text)
	}
	if !strings.Contains(sp.Text, "\n") {
		return html.EscapeString(sp.Text)
	}
	lines := strings.Split(sp.Text, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return strings.Join(lines, r.s.HardBreak)
}
