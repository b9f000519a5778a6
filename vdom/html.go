package vdom

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/canopyclimate/clay/markup"
)

// RenderHTML writes n as HTML markup.
// Attributes and style properties are written in sorted order. Hooks are
// runtime bindings and are not rendered.
func RenderHTML(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	renderHTML(bw, n)
	return bw.Flush()
}

func renderHTML(w *bufio.Writer, n *Node) {
	if n.Type == TextNode {
		w.WriteString(html.EscapeString(n.Text))
		return
	}
	w.WriteByte('<')
	w.WriteString(n.Tag)
	for _, k := range sortedKeys(n.Attrs) {
		writeAttr(w, k, n.Attrs[k])
	}
	if len(n.Style) > 0 {
		var style strings.Builder
		for _, k := range sortedKeys(n.Style) {
			style.WriteString(k)
			style.WriteByte(':')
			style.WriteString(n.Style[k])
			style.WriteByte(';')
		}
		writeAttr(w, "style", style.String())
	}
	w.WriteByte('>')
	if markup.IsVoid(n.Tag) {
		return
	}
	for _, c := range n.Children {
		renderHTML(w, c)
	}
	w.WriteString("</")
	w.WriteString(n.Tag)
	w.WriteByte('>')
}

func writeAttr(w *bufio.Writer, k, v string) {
	w.WriteByte(' ')
	w.WriteString(k)
	w.WriteString(`="`)
	w.WriteString(html.EscapeString(v))
	w.WriteByte('"')
}
