package expr

import (
	"errors"
	"fmt"
)

// ArgName is the single argument name carried by every Record.
const ArgName = "scope"

// ErrNotEvalFunction is returned when reconstructing from a record that does
// not describe an evaluator.
var ErrNotEvalFunction = errors.New("expr: record is not an eval function")

// A Record is the serializable form of a compiled evaluator.
// BodySource is re-parsed on reconstruction.
type Record struct {
	IsEvalFunction bool     `json:"isEvalFunction"`
	ArgNames       []string `json:"argNames"`
	BodySource     string   `json:"bodySource"`
}

func newRecord(src string) *Record {
	return &Record{IsEvalFunction: true, ArgNames: []string{ArgName}, BodySource: src}
}

// FromRecord rebuilds an Interpolation from its record.
func FromRecord(r *Record) (*Interpolation, error) {
	if r == nil || !r.IsEvalFunction {
		return nil, ErrNotEvalFunction
	}
	in := Compile(r.BodySource)
	if in == nil {
		return nil, fmt.Errorf("expr: record body %q has no marker", r.BodySource)
	}
	return in, nil
}

// RepeatFromRecord rebuilds a Repeat from its record.
func RepeatFromRecord(r *Record) (*Repeat, error) {
	if r == nil || !r.IsEvalFunction {
		return nil, ErrNotEvalFunction
	}
	return CompileRepeat(r.BodySource)
}
