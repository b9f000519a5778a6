package changeset

import (
	"errors"
	"net/url"

	"github.com/go-playground/form"

	"github.com/canopyclimate/clay/internal/validate"
)

// GoPlaygroundConfig implements Validator and Decoder with go-playground's
// form decoder and validator.
type GoPlaygroundConfig struct {
	decoder *form.Decoder
}

// NewGoPlaygroundConfig returns a Config backed by go-playground.
func NewGoPlaygroundConfig() *Config {
	gp := GoPlaygroundConfig{decoder: form.NewDecoder()}
	return NewConfig(gp, gp)
}

// Validate runs the `validate` struct tags on s and returns translated
// errors keyed by form field name.
func (a GoPlaygroundConfig) Validate(s any) (map[string]error, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verr *validate.Error
	if !errors.As(err, &verr) {
		return nil, err
	}
	errs := make(map[string]error, len(verr.Fields))
	for k, msg := range verr.Fields {
		errs[k] = errors.New(msg)
	}
	return errs, nil
}

// Decode decodes the URL values to the struct.
func (a GoPlaygroundConfig) Decode(s any, v url.Values) error {
	return a.decoder.Decode(s, v)
}
