package scope_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/canopyclimate/clay/scope"
)

type user struct {
	Name    string
	Email   string `json:"email"`
	Friend  *user
	private string
}

func TestResolve(t *testing.T) {
	s := scope.Scope{
		"title": "Hello",
		"count": 3,
		"user":  map[string]any{"name": "Ada", "tags": []string{"a", "b"}},
		"typed": map[string]int{"n": 7},
		"st":    &user{Name: "Grace", Email: "g@x", private: "p"},
		"nil":   nil,
		"list":  []any{"x", map[string]any{"y": "z"}},
	}
	tests := []struct {
		path string
		want any
	}{
		{"title", "Hello"},
		{" title ", "Hello"},
		{"count", 3},
		{"user.name", "Ada"},
		{"user.tags", []string{"a", "b"}},
		{"user.tags.1", "b"},
		{"typed.n", 7},
		{"st.Name", "Grace"},
		{"st.email", "g@x"},
		{"st.Email", "g@x"},
		{"st.private", ""},
		{"st.Friend.Name", ""},
		{"list.1.y", "z"},
		{"list.9", ""},
		{"missing", ""},
		{"missing.deep.path", ""},
		{"nil.x", ""},
		{"nil", ""},
		{"title.x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := scope.Resolve(tt.path, s)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Resolve(%q) = %#v want %#v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveNilScope(t *testing.T) {
	if got := scope.Resolve("a.b", nil); got != "" {
		t.Fatalf("got %#v want empty string", got)
	}
}

func TestSet(t *testing.T) {
	s := scope.Scope{"user": map[string]any{"name": "Ada"}}
	if err := scope.Set(s, "user.name", "Grace"); err != nil {
		t.Fatal(err)
	}
	if err := scope.Set(s, "a.b.c", 1); err != nil {
		t.Fatal(err)
	}
	if got := scope.Resolve("user.name", s); got != "Grace" {
		t.Fatalf("got %v want Grace", got)
	}
	if got := scope.Resolve("a.b.c", s); got != 1 {
		t.Fatalf("got %v want 1", got)
	}
	if err := scope.Set(s, "user.name.first", "x"); err == nil {
		t.Fatal("expected error setting through a string")
	}
	if err := scope.Set(s, " ", "x"); !errors.Is(err, scope.ErrEmptyPath) {
		t.Fatalf("got %v want ErrEmptyPath", err)
	}
}

func TestClone(t *testing.T) {
	inner := map[string]any{"k": "v"}
	s := scope.Scope{"a": 1, "inner": inner}
	c := scope.Clone(s)
	c["a"] = 2
	if s["a"] != 1 {
		t.Fatal("clone shares top-level keys with its source")
	}
	if c["inner"].(map[string]any)["k"] != "v" {
		t.Fatal("clone lost nested value")
	}
	inner["k"] = "w"
	if c["inner"].(map[string]any)["k"] != "w" {
		t.Fatal("clone should be shallow")
	}
	if got := scope.Clone(nil); got == nil {
		t.Fatal("Clone(nil) should return an empty scope")
	}
}
