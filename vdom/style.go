package vdom

import (
	"strings"
	"unicode"
)

// ParseStyle converts an inline style string such as "color:red;font-size:12px"
// into a property map.
//
// All whitespace is removed first. Entries are separated by ';' and split on
// ':'; only the first two fields are used. Entries with an empty property
// are skipped. No CSS validation is done.
func ParseStyle(s string) map[string]string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	style := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		f := strings.Split(decl, ":")
		if f[0] == "" {
			continue
		}
		if len(f) > 1 {
			style[f[0]] = f[1]
		} else {
			style[f[0]] = ""
		}
	}
	return style
}
