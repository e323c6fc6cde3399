// Package inputval validates form input structs using `validate` struct tags.
//
// Supported rules (comma-separated in the tag):
//   - required: the trimmed value must be non-empty
//   - email: the value must be a plausible email address
//   - max=N: the value must be at most N characters
//
// The optional `label` tag names the field in error messages.
//
// Example:
//
//	type createAccountInput struct {
//	    Name string `validate:"required,max=200" label:"Account name"`
//	}
//	if result := inputval.Validate(input); result.HasErrors() {
//	    renderWithError(result.First())
//	}
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Result collects validation failures in field order.
type Result struct {
	errs []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.errs) > 0 }

// First returns the first error message, or "" if validation passed.
func (r Result) First() string {
	if len(r.errs) == 0 {
		return ""
	}
	return r.errs[0]
}

// All returns every error message in field order.
func (r Result) All() []string { return r.errs }

func (r *Result) add(msg string) { r.errs = append(r.errs, msg) }

// Validate checks the string fields of a struct against their `validate` tags.
// Non-struct input or non-string fields are ignored.
func Validate(v any) Result {
	var res Result

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}

		value := rv.Field(i).String()
		trimmed := strings.TrimSpace(value)

		for _, rule := range strings.Split(tag, ",") {
			rule = strings.TrimSpace(rule)
			switch {
			case rule == "required":
				if trimmed == "" {
					res.add(fmt.Sprintf("%s is required.", label))
				}
			case rule == "email":
				if trimmed != "" && !IsValidEmail(trimmed) {
					res.add(fmt.Sprintf("%s must be a valid email address.", label))
				}
			case strings.HasPrefix(rule, "max="):
				n, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
				if err == nil && len(trimmed) > n {
					res.add(fmt.Sprintf("%s must be at most %d characters.", label, n))
				}
			}
		}
	}

	return res
}
