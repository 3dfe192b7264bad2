package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := time.Parse(time.DateOnly, value)
		return err == nil
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, err := time.Parse("15:04", value)
		return err == nil
	})
	return v
}

// decodeJSON reads the body into dst and runs struct validation. A nil map
// with a nil error means success; field errors are keyed by JSON name.
func decodeJSON(r *http.Request, dst any) (map[string]string, error) {
	if r.Body == nil {
		return nil, errBadRequestBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return validateStruct(dst), nil
}

func validateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldPath(fe)] = validationMessage(fe)
	}
	return fields
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "len":
		return "must contain exactly " + fe.Param() + " items"
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "date":
		return "must be a date formatted as YYYY-MM-DD"
	case "clock":
		return "must be a time formatted as HH:MM"
	}
	return "is invalid (" + fe.Tag() + ")"
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(mux.Vars(r)[name])
}

func weekParam(r *http.Request) (time.Time, error) {
	week, err := time.Parse(time.DateOnly, pathParam(r, "week"))
	if err != nil {
		return time.Time{}, errInvalidWeek
	}
	return week, nil
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}
