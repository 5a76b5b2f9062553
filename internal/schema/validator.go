package schema

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/parisxmas/icpform/internal/models"
)

const invalidOption = "Invalid option"

// FieldErrors maps a field name to its violation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	names := e.Fields()
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+": "+e[n])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (e FieldErrors) Fields() []string {
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Result is the outcome of checking a single field.
type Result struct {
	Field   string
	Valid   bool
	Message string
}

// Validator checks a Profile against the field rules. It is pure and
// safe for concurrent use.
type Validator struct {
	v      *validator.Validate
	strict bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithStrictConditionals makes the conditional free-text fields
// (otherIndustry, otherSeoGoal, specificCountries, specificCities)
// required whenever their sibling selects the sentinel value.
func WithStrictConditionals(strict bool) ValidatorOption {
	return func(v *Validator) { v.strict = strict }
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	out := &Validator{v: v}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Strict reports whether conditional fields are enforced.
func (v *Validator) Strict() bool { return v.strict }

// Validate checks every field. It returns nil when p is acceptable.
func (v *Validator) Validate(p *models.Profile) FieldErrors {
	errs := FieldErrors{}

	var verrs validator.ValidationErrors
	if err := v.v.Struct(p); errors.As(err, &verrs) {
		for _, fe := range verrs {
			name := fe.Field()
			if i := strings.IndexByte(name, '['); i >= 0 {
				name = name[:i]
			}
			if _, seen := errs[name]; seen {
				continue
			}
			errs[name] = message(name, fe.Tag())
		}
	}

	if v.strict {
		for _, f := range catalogue {
			if !f.Conditional() || !triggered(p, f) {
				continue
			}
			val, _ := Get(p, f.Name)
			if s, _ := val.(string); strings.TrimSpace(s) == "" {
				errs[f.Name] = f.Message
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateFields checks only the named fields.
func (v *Validator) ValidateFields(p *models.Profile, names ...string) FieldErrors {
	all := v.Validate(p)
	if all == nil {
		return nil
	}
	errs := FieldErrors{}
	for _, n := range names {
		if msg, ok := all[n]; ok {
			errs[n] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Field checks a single field.
func (v *Validator) Field(p *models.Profile, name string) Result {
	errs := v.ValidateFields(p, name)
	if msg, ok := errs[name]; ok {
		return Result{Field: name, Valid: false, Message: msg}
	}
	return Result{Field: name, Valid: true}
}

// triggered reports whether f's sibling currently selects the sentinel.
func triggered(p *models.Profile, f Field) bool {
	val, err := Get(p, f.DependsOn)
	if err != nil {
		return false
	}
	switch s := val.(type) {
	case string:
		return s == f.Sentinel
	case []string:
		for _, x := range s {
			if x == f.Sentinel {
				return true
			}
		}
	}
	return false
}

func message(field, tag string) string {
	if tag == "oneof" {
		return invalidOption
	}
	if f, ok := Lookup(field); ok && f.Message != "" {
		return f.Message
	}
	return "Invalid value"
}
