package compiler

import (
	"fmt"

	"github.com/go-json-experiment/json"

	"github.com/canopyclimate/clay/expr"
	"github.com/canopyclimate/clay/markup"
)

// record is the serialized form of a Node.
// Evaluators are stored as expr.Records and hooks by helper name.
type record struct {
	Type     string       `json:"type"`
	Name     string       `json:"name,omitempty"`
	Data     string       `json:"data,omitempty"`
	Eval     *expr.Record `json:"eval,omitempty"`
	Attrs    []attrRecord `json:"attrs,omitempty"`
	Style    *attrRecord  `json:"style,omitempty"`
	Repeat   *expr.Record `json:"repeat,omitempty"`
	Hooks    []attrRecord `json:"hooks,omitempty"`
	Children []*record    `json:"children,omitempty"`
}

type attrRecord struct {
	Name  string       `json:"name"`
	Value string       `json:"value"`
	Eval  *expr.Record `json:"eval,omitempty"`
}

func toRecord(n *Node) *record {
	r := &record{Type: n.Type.String(), Name: n.Name, Data: n.Data}
	if n.Text != nil {
		r.Eval = n.Text.Record()
	}
	for i := range n.Attrs {
		r.Attrs = append(r.Attrs, attrToRecord(&n.Attrs[i]))
	}
	if n.Style != nil {
		ar := attrToRecord(n.Style)
		r.Style = &ar
	}
	if n.Repeat != nil {
		r.Repeat = n.Repeat.Record()
	}
	for i := range n.Hooks {
		r.Hooks = append(r.Hooks, attrToRecord(&n.Hooks[i].Attr))
	}
	for _, c := range n.Children {
		r.Children = append(r.Children, toRecord(c))
	}
	return r
}

func attrToRecord(a *Attr) attrRecord {
	ar := attrRecord{Name: a.Name, Value: a.Value}
	if a.Eval != nil {
		ar.Eval = a.Eval.Record()
	}
	return ar
}

// Marshal returns the JSON record form of a compiled structure.
func Marshal(n *Node) ([]byte, error) {
	return json.Marshal(toRecord(n))
}

// Unmarshal rebuilds a compiled template from the output of Marshal.
// Evaluators are reconstructed from their records and hooks are bound
// again from opts.Helpers. The root must be a single, non-repeating element.
func Unmarshal(data []byte, opts Options) (*Node, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	n, err := fromRecord(&r, opts)
	if err != nil {
		return nil, err
	}
	if err := checkRoot(n); err != nil {
		return nil, err
	}
	return n, nil
}

func fromRecord(r *record, opts Options) (*Node, error) {
	n := &Node{Name: r.Name, Data: r.Data}
	switch r.Type {
	case markup.TagNode.String():
		n.Type = markup.TagNode
	case markup.TextNode.String():
		n.Type = markup.TextNode
	case markup.CommentNode.String():
		n.Type = markup.CommentNode
	default:
		return nil, fmt.Errorf("compiler: unknown node type %q", r.Type)
	}
	var err error
	if r.Eval != nil {
		if n.Text, err = expr.FromRecord(r.Eval); err != nil {
			return nil, fmt.Errorf("compiler: text: %w", err)
		}
	}
	for _, ar := range r.Attrs {
		a, err := attrFromRecord(ar)
		if err != nil {
			return nil, err
		}
		n.Attrs = append(n.Attrs, a)
	}
	if r.Style != nil {
		a, err := attrFromRecord(*r.Style)
		if err != nil {
			return nil, err
		}
		n.Style = &a
	}
	if r.Repeat != nil {
		if n.Repeat, err = expr.RepeatFromRecord(r.Repeat); err != nil {
			return nil, fmt.Errorf("compiler: <%s>: %w", r.Name, err)
		}
	}
	for _, ar := range r.Hooks {
		h := opts.Helpers[ar.Name]
		if h == nil {
			return nil, fmt.Errorf("compiler: <%s>: unknown helper %q", r.Name, ar.Name)
		}
		a, err := attrFromRecord(ar)
		if err != nil {
			return nil, err
		}
		n.Hooks = append(n.Hooks, HookAttr{Attr: a, Hook: h})
	}
	for _, cr := range r.Children {
		c, err := fromRecord(cr, opts)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func attrFromRecord(ar attrRecord) (Attr, error) {
	a := Attr{Name: ar.Name, Value: ar.Value}
	if ar.Eval != nil {
		in, err := expr.FromRecord(ar.Eval)
		if err != nil {
			return a, fmt.Errorf("compiler: attribute %s: %w", ar.Name, err)
		}
		a.Eval = in
	}
	return a, nil
}
