// Package validation turns raw event and session payloads into typed, normalized
// values, or reports every field-level violation found.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// StrictLayout is the only accepted format for session times.
const StrictLayout = time.RFC3339

// Event dates are accepted in any of these layouts, tried in order.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const (
	msgRequired    = "field is required"
	msgTimestamp   = "must be a valid date-time"
	msgStrictTime  = "must be an RFC 3339 date-time, e.g. 2006-01-02T15:04:05Z"
	msgNonNegative = "must be zero or greater"
	msgNotBlank    = "must not be blank"
	msgUnknown     = "invalid value"
	msgEndBefore   = "must not be before "
)

var global *validator.Validate

func init() {
	global = New()
}

// New builds a validator that reports json field names and knows the "timestamp" tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("timestamp", validateTimestamp)
	return v
}

func validateTimestamp(fl validator.FieldLevel) bool {
	_, ok := ParseTimestamp(fl.Field().String())
	return ok
}

// ParseTimestamp parses an event date in any accepted layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseStrict parses a session time in StrictLayout.
func ParseStrict(s string) (time.Time, bool) {
	t, err := time.Parse(StrictLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// collect runs struct validation and appends every violation to ve, with field paths
// relative to the payload root (e.g. "sessions[1].endTime").
func collect(ve *model.ValidationError, s any, prefix string) {
	err := global.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.Add(strings.TrimSuffix(prefix, "."), err.Error(), nil)
		return
	}
	for _, fe := range verrs {
		ve.Add(prefix+fieldPath(fe.Namespace()), message(fe), fe.Value())
	}
}

// fieldPath drops the Go type name the validator puts in front of every namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "timestamp":
		return msgTimestamp
	case "datetime":
		return msgStrictTime
	case "gte", "min":
		if fe.Kind() == reflect.String {
			return msgNotBlank
		}
		return msgNonNegative
	default:
		return msgUnknown
	}
}

func endBefore(other string) string {
	return msgEndBefore + other
}
