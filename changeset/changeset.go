// Package changeset decodes client-submitted form values into a struct and
// validates them. The live server uses it to turn "form" events into scope
// mutations.
package changeset

import (
	"net/url"
)

// Validator validates a decoded struct and returns a map of field name to
// error, or an error if there was a problem running the validation.
type Validator interface {
	Validate(s any) (map[string]error, error)
}

// Decoder decodes a url.Values into a struct.
type Decoder interface {
	// Decode decodes the url.Values into the struct returning an error if there was a problem.
	Decode(any, url.Values) error
}

// Config is a configuration for a Changeset providing implementations of Validator and Decoder.
type Config struct {
	Validator
	Decoder
}

// NewConfig returns a Config using v and d.
func NewConfig(v Validator, d Decoder) *Config {
	return &Config{Validator: v, Decoder: d}
}

// A Changeset accumulates form values for a T and tracks which fields were
// touched and which of them fail validation.
type Changeset[T any] struct {
	Errors map[string]error // map of field name to error message
	Values url.Values       // map of merged changes and previous values

	action  string          // last update action; only run validations if action is not empty
	touched map[string]bool // map of field names that were touched
	config  *Config
}

// New returns an empty Changeset for T.
func New[T any](c *Config) *Changeset[T] {
	return &Changeset[T]{Values: url.Values{}, config: c}
}

// Valid reports whether no touched field has an error.
// A changeset that was never updated with an action is always valid.
func (c *Changeset[T]) Valid() bool {
	if c.action == "" {
		return true
	}
	for k, v := range c.Errors {
		if v != nil && c.touched[k] {
			return false
		}
	}
	return true
}

// Struct decodes the current values into a new T.
func (c *Changeset[T]) Struct() (T, error) {
	var s T
	err := c.config.Decoder.Decode(&s, c.Values)
	return s, err
}

// Update merges newData into the changeset. If action is empty, the
// changeset will always report Valid. Passing a non-empty action decodes and
// validates the merged values.
func (c *Changeset[T]) Update(newData url.Values, action string) error {
	c.action = action

	// merge new data over old; fields the update leaves out keep their values
	for k, v := range newData {
		c.Values[k] = v
	}

	if action == "" {
		return nil
	}
	// if we get a _target field, use it to indicate which fields were touched
	// if not, assume all fields were touched
	if c.touched == nil {
		c.touched = make(map[string]bool)
	}
	if target := newData.Get("_target"); target != "" {
		c.touched[target] = true
	} else {
		for k := range newData {
			c.touched[k] = true
		}
	}
	s, err := c.Struct()
	if err != nil {
		return err
	}
	errs, err := c.config.Validator.Validate(&s)
	if err != nil {
		return err
	}
	c.Errors = errs
	return nil
}

// Reset resets the changeset to its initial state.
func (c *Changeset[T]) Reset() {
	c.Errors = nil
	c.Values = url.Values{}
	c.action = ""
	c.touched = nil
}

// Value returns the value for the given key.
func (c *Changeset[T]) Value(key string) string {
	return c.Values.Get(key)
}

// Error returns the error for the given key if that field was touched.
func (c *Changeset[T]) Error(key string) error {
	if c == nil || c.action == "" || c.touched == nil || !c.touched[key] {
		return nil
	}
	return c.Errors[key]
}

// HasError returns true if the given key has an error.
func (c *Changeset[T]) HasError(key string) bool {
	return c.Error(key) != nil
}
