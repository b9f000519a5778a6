package changeset

import (
	"net/url"
	"testing"
)

type Person struct {
	First string `validate:"min=4"`
	Last  string `validate:"min=2"`
}

func TestChangeset(t *testing.T) {
	tests := []struct {
		data   url.Values
		valid  bool
		errors []string
	}{
		{url.Values{"First": {"fi"}, "Last": {""}}, false, []string{"First", "Last"}},
		{url.Values{"First": {"firs"}, "Last": {"a"}}, false, []string{"Last"}},
		{url.Values{"First": {"firs"}, "Last": {"aa"}}, true, nil},
	}
	for _, tt := range tests {
		cs := New[Person](NewGoPlaygroundConfig())
		if err := cs.Update(tt.data, "action"); err != nil {
			t.Fatal(err)
		}
		if cs.Valid() != tt.valid {
			t.Errorf("%v: Valid() = %v want %v (errors %v)", tt.data, cs.Valid(), tt.valid, cs.Errors)
		}
		for _, k := range tt.errors {
			if !cs.HasError(k) {
				t.Errorf("%v: want error for %s", tt.data, k)
			}
		}
		if len(cs.Errors) != len(tt.errors) {
			t.Errorf("%v: got errors %v want %v", tt.data, cs.Errors, tt.errors)
		}
	}
}

func TestChangesetNoAction(t *testing.T) {
	cs := New[Person](NewGoPlaygroundConfig())
	if err := cs.Update(url.Values{"First": {"x"}}, ""); err != nil {
		t.Fatal(err)
	}
	if !cs.Valid() || cs.HasError("First") {
		t.Fatal("changeset without action must be valid")
	}
	if got := cs.Value("First"); got != "x" {
		t.Fatalf("got %q want x", got)
	}
}

func TestChangesetTarget(t *testing.T) {
	cs := New[Person](NewGoPlaygroundConfig())
	data := url.Values{"First": {"fi"}, "Last": {""}, "_target": {"First"}}
	if err := cs.Update(data, "validate"); err != nil {
		t.Fatal(err)
	}
	if !cs.HasError("First") {
		t.Fatal("touched field should report its error")
	}
	if cs.HasError("Last") {
		t.Fatal("untouched field should not report its error")
	}
}

func TestChangesetMergeAndReset(t *testing.T) {
	cs := New[Person](NewGoPlaygroundConfig())
	cs.Update(url.Values{"First": {"abcd"}, "Last": {"a"}}, "")
	cs.Update(url.Values{"Last": {"zz"}, "_target": {"Last"}}, "validate")
	p, err := cs.Struct()
	if err != nil {
		t.Fatal(err)
	}
	if p.First != "abcd" || p.Last != "zz" {
		t.Fatalf("got %+v want merged values", p)
	}
	if !cs.Valid() {
		t.Fatalf("got errors %v want valid", cs.Errors)
	}
	cs.Reset()
	if len(cs.Values) != 0 || cs.Errors != nil || cs.Value("First") != "" {
		t.Fatal("reset left state behind")
	}
}

func TestMutation(t *testing.T) {
	tests := []struct {
		data  url.Values
		valid bool
	}{
		{url.Values{"path": {"user.name"}, "value": {"Ada"}}, true},
		{url.Values{"path": {"count"}}, true},
		{url.Values{"value": {"x"}}, false},
		{url.Values{"path": {"a..b"}, "value": {"x"}}, false},
		{url.Values{"path": {"a b"}, "value": {"x"}}, false},
	}
	for _, tt := range tests {
		cs := New[Mutation](NewGoPlaygroundConfig())
		data := tt.data
		if data.Get("path") == "" {
			data.Set("_target", "path")
		}
		if err := cs.Update(data, "set"); err != nil {
			t.Fatal(err)
		}
		if cs.Valid() != tt.valid {
			t.Errorf("%v: Valid() = %v want %v (errors %v)", tt.data, cs.Valid(), tt.valid, cs.Errors)
		}
	}
}
