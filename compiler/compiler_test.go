package compiler_test

import (
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/dsnet/try"

	"github.com/canopyclimate/clay/compiler"
	"github.com/canopyclimate/clay/expr"
	"github.com/canopyclimate/clay/markup"
	"github.com/canopyclimate/clay/scope"
	"github.com/canopyclimate/clay/vdom"
)

var quiet = log.New(io.Discard, "", 0)

func render(t *testing.T, n *compiler.Node, s scope.Scope) string {
	t.Helper()
	var b strings.Builder
	if err := vdom.RenderHTML(&b, compiler.Root(n, s)); err != nil {
		t.Fatal(err)
	}
	return b.String()
}

func TestMaterialize(t *testing.T) {
	s := scope.Scope{
		"title": "Hi",
		"cls":   "big",
		"color": "red",
		"user":  map[string]any{"name": "Ada"},
		"data":  map[string]any{"items": []string{"a", "b"}},
	}
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"text", `<p>{{title}} {{user.name}}</p>`, `<p>Hi Ada</p>`},
		{"static", `<p class="x">plain</p>`, `<p class="x">plain</p>`},
		{"attr", `<p class="a {{cls}}"></p>`, `<p class="a big"></p>`},
		{"style", `<p style="color:{{color}};font-size:12px"></p>`, `<p style="color:red;font-size:12px;"></p>`},
		{"missing", `<p title="[{{nope.x}}]">{{nope}}</p>`, `<p title="[]"></p>`},
		{"comment", `<div><!-- gone -->x</div>`, `<div>x</div>`},
		{"repeat", `<ul><li cl-repeat="{{x in data.items}}" class="{{cls}}">{{x}}</li></ul>`, `<ul><li class="big">a</li><li class="big">b</li></ul>`},
		{"repeat empty", `<ul><li cl-repeat="{{x in none}}">{{x}}</li><li>end</li></ul>`, `<ul><li>end</li></ul>`},
		{"nested repeat", `<div><p cl-repeat="{{r in rows}}"><i cl-repeat="{{c in r}}">{{c}}</i></p></div>`, `<div><p><i>1</i><i>2</i></p><p><i>3</i></p></div>`},
	}
	s["rows"] = [][]int{{1, 2}, {3}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := try.E1(compiler.CompileHTML(tt.src, compiler.Options{Logger: quiet}))
			if got := render(t, n, s); got != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestStyleParsed(t *testing.T) {
	n := try.E1(compiler.CompileHTML(`<div style="color:red;font-size:12px"></div>`, compiler.Options{}))
	v := compiler.Root(n, nil)
	if len(v.Style) != 2 || v.Style["color"] != "red" || v.Style["font-size"] != "12px" {
		t.Fatalf("got style %v", v.Style)
	}
	if _, ok := v.Attrs["style"]; ok {
		t.Fatal("style must not be a plain attribute")
	}
}

func TestRepeatClonesScope(t *testing.T) {
	n := try.E1(compiler.CompileHTML(`<ul><li cl-repeat="{{x in xs}}">{{x}}</li></ul>`, compiler.Options{}))
	s := scope.Scope{"xs": []int{1, 2, 3}}
	v := compiler.Root(n, s)
	if len(v.Children) != 3 {
		t.Fatalf("got %d children want 3", len(v.Children))
	}
	if _, ok := s["x"]; ok {
		t.Fatal("materialize leaked the iteration variable into the parent scope")
	}
}

func TestCustomRepeatAttr(t *testing.T) {
	opts := compiler.Options{RepeatAttr: "data-each"}
	n := try.E1(compiler.CompileHTML(`<ul><li data-each="{{x in xs}}">{{x}}</li></ul>`, opts))
	if got := render(t, n, scope.Scope{"xs": []string{"p", "q"}}); got != `<ul><li>p</li><li>q</li></ul>` {
		t.Fatalf("got %s", got)
	}
}

func TestStructureErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		count int
	}{
		{"empty", ``, 0},
		{"two roots", `<div></div><div></div>`, 2},
		{"text root", `hello`, 1},
		{"repeating root", `<li cl-repeat="{{x in xs}}"></li>`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.CompileHTML(tt.src, compiler.Options{Logger: quiet})
			if !errors.Is(err, compiler.ErrStructure) {
				t.Fatalf("got %v want ErrStructure", err)
			}
			var se *compiler.StructureError
			if !errors.As(err, &se) || se.Count != tt.count {
				t.Fatalf("got %#v want count %d", err, tt.count)
			}
		})
	}
}

func TestRepeatSyntaxError(t *testing.T) {
	_, err := compiler.CompileHTML(`<ul><li cl-repeat="foo bar"></li></ul>`, compiler.Options{})
	var se *expr.RepeatSyntaxError
	if !errors.As(err, &se) || se.Expr != "foo bar" {
		t.Fatalf("got %v want *expr.RepeatSyntaxError", err)
	}
}

func TestCompileDoesNotMutate(t *testing.T) {
	nodes := markup.Parse(`<div style="a:b" cl-repeat="{{x in y}}" class="{{c}}"><p>{{t}}</p></div>`, markup.Options{})
	before := len(nodes[0].Attrs)
	n1 := try.E1(compiler.Compile(nodes[0], compiler.Options{}))
	n2 := try.E1(compiler.Compile(nodes[0], compiler.Options{}))
	if len(nodes[0].Attrs) != before {
		t.Fatal("Compile modified the parsed node")
	}
	if n1.Source != nodes[0] {
		t.Fatal("compiled node does not reference its source")
	}
	a := try.E1(compiler.Marshal(n1))
	b := try.E1(compiler.Marshal(n2))
	if string(a) != string(b) {
		t.Fatalf("compile is not idempotent:\n%s\n%s", a, b)
	}
}

func TestHelpers(t *testing.T) {
	var attached []string
	focus := &vdom.HookFuncs{Attach: func(el *vdom.Element, v string) { attached = append(attached, el.Tag+":"+v) }}
	opts := compiler.Options{Helpers: compiler.Helpers{"focus": focus}}
	n := try.E1(compiler.CompileHTML(`<div><input focus="{{on}}" name="q"></div>`, opts))
	v := compiler.Root(n, scope.Scope{"on": "yes"})
	in := v.Children[0]
	if _, ok := in.Attrs["focus"]; ok {
		t.Fatal("helper attribute must not be a plain attribute")
	}
	if hv := in.Hooks["focus"]; hv.Value != "yes" || hv.Hook != focus {
		t.Fatalf("got hook %+v", hv)
	}
	vdom.Create(v)
	if len(attached) != 1 || attached[0] != "input:yes" {
		t.Fatalf("got %v", attached)
	}
}

func TestDuplicateAttrFirstWins(t *testing.T) {
	n := try.E1(compiler.CompileHTML(`<a href="1" href="2"></a>`, compiler.Options{}))
	if got := compiler.Root(n, nil).Attrs["href"]; got != "1" {
		t.Fatalf("got %q want 1", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	focus := &vdom.HookFuncs{}
	opts := compiler.Options{Helpers: compiler.Helpers{"focus": focus}}
	src := `<div class="c {{cls}}" style="color:{{color}}"><!-- c --><span focus="{{f}}">{{a.b}}</span><li cl-repeat="{{x in xs}}">{{x}}</li>static</div>`
	n := try.E1(compiler.CompileHTML(src, opts))
	data := try.E1(compiler.Marshal(n))
	if !strings.Contains(string(data), `"repeat":{"isEvalFunction":true,"argNames":["scope"],"bodySource":"{{x in xs}}"}`) {
		t.Fatalf("missing repeat record in %s", data)
	}
	back := try.E1(compiler.Unmarshal(data, opts))
	s := scope.Scope{"cls": "k", "color": "red", "f": "1", "a": map[string]any{"b": "B"}, "xs": []int{1, 2}}
	if want, got := compiler.Root(n, s), compiler.Root(back, s); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if back.Children[1].Hooks[0].Hook != focus {
		t.Fatal("hook not rebound")
	}
	if again := try.E1(compiler.Marshal(back)); string(again) != string(data) {
		t.Fatalf("second marshal differs:\n%s\n%s", again, data)
	}

	if _, err := compiler.Unmarshal(data, compiler.Options{}); err == nil {
		t.Fatal("expected error for unknown helper")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	for _, data := range []string{
		`not json`,
		`{"type":"blob"}`,
		`{"type":"text","data":"x"}`,
		`{"type":"tag","name":"li","repeat":{"isEvalFunction":true,"argNames":["scope"],"bodySource":"{{x in xs}}"}}`,
		`{"type":"tag","name":"p","attrs":[{"name":"a","value":"v","eval":{"isEvalFunction":false}}]}`,
	} {
		if _, err := compiler.Unmarshal([]byte(data), compiler.Options{}); err == nil {
			t.Errorf("Unmarshal(%s): expected error", data)
		}
	}
}
