package vdom_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/canopyclimate/clay/vdom"
)

func el(tag string, attrs map[string]string, children ...*vdom.Node) *vdom.Node {
	n := vdom.Tag(tag, children...)
	n.Attrs = attrs
	return n
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
	}{
		{"color:red;font-size:12px", map[string]string{"color": "red", "font-size": "12px"}},
		{" color : red ; ", map[string]string{"color": "red"}},
		{"a:b;;c:d", map[string]string{"a": "b", "c": "d"}},
		{"margin:0 auto", map[string]string{"margin": "0auto"}},
		{"background:url(x):y", map[string]string{"background": "url(x)"}},
		{"bare", map[string]string{"bare": ""}},
		{"", map[string]string{}},
	}
	for _, tt := range tests {
		if got := vdom.ParseStyle(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseStyle(%q) = %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiffEqualTreesIsEmpty(t *testing.T) {
	a := el("div", map[string]string{"id": "x"}, vdom.Text("hi"), el("p", nil))
	b := el("div", map[string]string{"id": "x"}, vdom.Text("hi"), el("p", nil))
	if ps := vdom.Diff(a, b); ps.Len() != 0 {
		t.Fatalf("got %d ops want 0: %v", ps.Len(), ps.Ops)
	}
}

func TestDiffOps(t *testing.T) {
	a := el("ul", map[string]string{"class": "a", "old": "1"},
		el("li", nil, vdom.Text("one")),
		el("li", nil, vdom.Text("two")),
		el("li", nil, vdom.Text("three")),
	)
	b := el("ul", map[string]string{"class": "b"},
		el("li", nil, vdom.Text("uno")),
		el("span", nil),
	)
	got, err := vdom.Diff(a, b).JSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"ops":[` +
		`{"op":"setAttr","path":[],"key":"class","value":"b"},` +
		`{"op":"removeAttr","path":[],"key":"old"},` +
		`{"op":"text","path":[0,0],"value":"uno"},` +
		`{"op":"replace","path":[1],"node":{"t":"span"}},` +
		`{"op":"remove","path":[2]}]}`
	if string(got) != want {
		t.Fatalf("got\n\t%s\nwant\n\t%s", got, want)
	}
}

func TestPatchMatchesCreate(t *testing.T) {
	trees := []*vdom.Node{
		el("div", nil),
		el("div", map[string]string{"a": "1"}, vdom.Text("x")),
		el("div", map[string]string{"a": "2", "b": "3"}, vdom.Text("y"), el("i", nil), el("b", nil, vdom.Text("z"))),
		el("div", nil, el("b", nil)),
		el("section", nil, vdom.Text("replaced root")),
		vdom.Text("text root"),
		el("div", nil, el("p", nil, el("a", map[string]string{"href": "/"}), el("a", nil)), vdom.Text("t")),
	}
	styled := el("div", nil)
	styled.Style = map[string]string{"color": "red"}
	trees = append(trees, styled, el("div", nil))

	live := vdom.Create(trees[0])
	for i := 1; i < len(trees); i++ {
		if err := live.Apply(vdom.Diff(trees[i-1], trees[i])); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := live.Node(); !got.Equal(trees[i]) {
			t.Fatalf("step %d: got %v want %v", i, got, trees[i])
		}
		if got := live.Node(); !got.Equal(vdom.Create(trees[i]).Node()) {
			t.Fatalf("step %d: patched element differs from a fresh one", i)
		}
	}
}

func TestApplyBadPath(t *testing.T) {
	live := vdom.Create(el("div", nil))
	ps := &vdom.PatchSet{Ops: []vdom.Op{{Kind: vdom.OpText, Path: []int{3}, Value: "x"}}}
	err := live.Apply(ps)
	if err == nil || !strings.Contains(err.Error(), "no node at path [3]") {
		t.Fatalf("got %v", err)
	}
}

type recorder struct {
	events []string
}

func (r *recorder) OnAttach(el *vdom.Element, v string) {
	r.events = append(r.events, fmt.Sprintf("attach %s %s", el.Tag, v))
}

func (r *recorder) OnUpdate(el *vdom.Element, v string) {
	r.events = append(r.events, fmt.Sprintf("update %s %s", el.Tag, v))
}

func (r *recorder) OnDetach(el *vdom.Element) {
	r.events = append(r.events, fmt.Sprintf("detach %s", el.Tag))
}

func TestHooks(t *testing.T) {
	rec := new(recorder)
	withHook := func(tag, v string) *vdom.Node {
		n := el(tag, nil)
		n.Hooks = map[string]vdom.HookValue{"focus": {Hook: rec, Value: v}}
		return n
	}
	t0 := el("div", nil, withHook("input", "a"))
	t1 := el("div", nil, withHook("input", "b"))
	t2 := el("div", nil, el("input", nil))
	t3 := el("div", nil, withHook("input", "c"), withHook("textarea", "d"))
	t4 := el("div", nil)

	live := vdom.Create(t0)
	for i, next := range []*vdom.Node{t1, t2, t3, t4} {
		prev := []*vdom.Node{t0, t1, t2, t3}[i]
		if err := live.Apply(vdom.Diff(prev, next)); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{
		"attach input a",
		"update input b",
		"detach input",
		"attach input c",
		"attach textarea d",
		"detach textarea",
		"detach input",
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("got %q want %q", rec.events, want)
	}
	if got := live.Node(); !got.Equal(t4) {
		t.Fatalf("got %v want %v", got, t4)
	}
}

func TestHookFuncs(t *testing.T) {
	var got string
	h := &vdom.HookFuncs{Attach: func(el *vdom.Element, v string) { got = el.Tag + "=" + v }}
	n := el("input", nil)
	n.Hooks = map[string]vdom.HookValue{"focus": {Hook: h, Value: "on"}}
	live := vdom.Create(n)
	if got != "input=on" {
		t.Fatalf("got %q", got)
	}
	if v, ok := live.Hook("focus"); !ok || v != "on" {
		t.Fatalf("Hook(focus) = %q, %v", v, ok)
	}
	// Update and Detach are nil and must be skipped.
	if err := live.Apply(vdom.Diff(n, el("input", nil))); err != nil {
		t.Fatal(err)
	}
}

func TestNodeJSON(t *testing.T) {
	n := el("li", map[string]string{"id": "a", "class": "x"}, vdom.Text(`say "hi"`), el("br", nil))
	n.Style = map[string]string{"color": "red"}
	n.Hooks = map[string]vdom.HookValue{"focus": {Value: "1"}}
	buf := new(strings.Builder)
	written, err := n.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(buf.Len()) {
		t.Fatalf("wrote %d but tracked %d", buf.Len(), written)
	}
	const want = `{"t":"li","a":{"class":"x","id":"a"},"s":{"color":"red"},"h":{"focus":"1"},"c":["say \"hi\"",{"t":"br"}]}`
	if got := buf.String(); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestRenderHTML(t *testing.T) {
	n := el("div", map[string]string{"title": `a"b`, "class": "c"}, vdom.Text("1 < 2"), el("br", nil), el("p", nil))
	n.Style = map[string]string{"top": "0", "color": "red"}
	var b strings.Builder
	if err := vdom.RenderHTML(&b, n); err != nil {
		t.Fatal(err)
	}
	const want = `<div class="c" title="a&#34;b" style="color:red;top:0;">1 &lt; 2<br><p></p></div>`
	if got := b.String(); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}
