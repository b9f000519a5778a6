// Package markup parses template source into a tree of tag, text and
// comment nodes.
//
// The parser is a thin layer over the golang.org/x/net/html tokenizer. It
// does not build a full HTML document: there is no implied <html> or <body>,
// and the top-level nodes of the source are returned as they appear.
package markup

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeType is the kind of a Node.
type NodeType uint8

const (
	TagNode NodeType = iota
	TextNode
	CommentNode
)

func (t NodeType) String() string {
	switch t {
	case TagNode:
		return "tag"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// An Attr is a single attribute in source order.
type Attr struct {
	Key string
	Val string
}

// A Node is one parsed node.
// Tag nodes have a Name, Attrs and Children. Text and comment nodes have Data.
type Node struct {
	Type     NodeType
	Name     string
	Data     string
	Attrs    []Attr
	Children []*Node
}

// Attr returns the value of the first attribute named key.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Options configure Parse.
type Options struct {
	// Logger receives reports about malformed markup.
	// If nil, log.Default() is used.
	Logger *log.Logger
	// KeepWhitespace keeps text nodes that contain only whitespace.
	KeepWhitespace bool
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Keygen: true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Param:  true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// IsVoid reports whether name is an element that never has children.
func IsVoid(name string) bool {
	return voidElements[atom.Lookup([]byte(name))]
}

// Parse parses src and returns its top-level nodes.
//
// Parse never fails. Unmatched end tags and tokenizer errors are reported
// to the configured logger and the tree built so far is returned.
// Doctype declarations are dropped.
func Parse(src string, opts Options) []*Node {
	z := html.NewTokenizer(strings.NewReader(src))
	root := &Node{Type: TagNode}
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				opts.logger().Printf("markup: %v", err)
			}
			if len(stack) > 1 {
				opts.logger().Printf("markup: unclosed element <%s>", top().Name)
			}
			return root.Children
		case html.TextToken:
			data := string(z.Text())
			if !opts.KeepWhitespace && strings.TrimSpace(data) == "" {
				continue
			}
			p := top()
			if n := len(p.Children); n > 0 && p.Children[n-1].Type == TextNode {
				// Merge adjacent text, e.g. around a dropped doctype.
				p.Children[n-1].Data += data
				continue
			}
			p.Children = append(p.Children, &Node{Type: TextNode, Data: data})
		case html.CommentToken:
			p := top()
			p.Children = append(p.Children, &Node{Type: CommentNode, Data: string(z.Text())})
		case html.StartTagToken, html.SelfClosingTagToken:
			n := startTag(z)
			p := top()
			p.Children = append(p.Children, n)
			if tt == html.StartTagToken && !IsVoid(n.Name) {
				stack = append(stack, n)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			i := len(stack) - 1
			for ; i > 0; i-- {
				if stack[i].Name == string(name) {
					break
				}
			}
			if i == 0 {
				if !IsVoid(string(name)) {
					opts.logger().Printf("markup: unmatched end tag </%s>", name)
				}
				continue
			}
			stack = stack[:i]
		}
	}
}

func startTag(z *html.Tokenizer) *Node {
	name, more := z.TagName()
	n := &Node{Type: TagNode, Name: string(name)}
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		n.Attrs = append(n.Attrs, Attr{Key: string(k), Val: string(v)})
	}
	return n
}
