// Package validate runs go-playground struct validation with English
// messages. It backs config validation and client mutation checks.
package validate

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	once       sync.Once
	v          *validator.Validate
	translator ut.Translator
)

var dotPathRe = regexp.MustCompile(`^\w+(\.\w+)*$`)

func instance() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their form name, falling back to the Go name.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		v.RegisterValidation("dotpath", func(fl validator.FieldLevel) bool {
			return dotPathRe.MatchString(fl.Field().String())
		})

		en := en.New()
		uni := ut.New(en, en)
		var ok bool
		if translator, ok = uni.GetTranslator("en"); !ok {
			log.Fatal("could not get translator")
		}
		if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
			log.Fatalf("could not register translations: %v", err)
		}

		// translate min tag
		v.RegisterTranslation("min", translator,
			func(ut ut.Translator) error { return nil },
			func(ut ut.Translator, fe validator.FieldError) string {
				min := fe.Param()
				if fe.Kind() != reflect.String {
					return fmt.Sprintf("must be at least %s", min)
				}
				if min == "1" {
					return "must be at least 1 character"
				}
				return fmt.Sprintf("must be at least %s characters", min)
			},
		)
		// translate lte tag
		v.RegisterTranslation("lte", translator,
			func(ut ut.Translator) error { return nil },
			func(ut ut.Translator, fe validator.FieldError) string {
				return fmt.Sprintf("must be at most %v", fe.Param())
			},
		)
		// translate dotpath tag
		v.RegisterTranslation("dotpath", translator,
			func(ut ut.Translator) error { return nil },
			func(ut ut.Translator, fe validator.FieldError) string {
				return "must be a dotted path such as user.name"
			},
		)
	})
	return v, translator
}

// Error holds translated messages keyed by field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := maps.Keys(e.Fields)
	slices.Sort(keys)
	var b strings.Builder
	b.WriteString("validate: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// Struct validates s according to its `validate` struct tags.
// Field failures are reported as an *Error.
func Struct(s any) error {
	v, t := instance()
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(t)
	}
	return &Error{Fields: fields}
}
