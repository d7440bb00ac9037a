package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fortify/fortify-go/internal/model"
)

// usernamePattern allows letters, digits and @ . + - _ only.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so clients can map errors to inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// ValidationError carries one message per offending request field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// validateRegisterRequest applies the struct tag rules and returns every
// failing field. The map is never nil.
func validateRegisterRequest(req model.RegisterRequest) map[string]string {
	fields := make(map[string]string)

	err := validate.Struct(req)
	if err == nil {
		return fields
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["non_field_errors"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		fields[fe.Field()] = msgForTag(fe)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Failed on '%s' validation.", fe.Tag())
	}
}

func joinMessages(msgs []string) string {
	return strings.Join(msgs, " ")
}
