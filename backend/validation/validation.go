package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/lib/utils"
)

// FieldError names one failing field and why it failed.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is returned when an input fails its schema. It lists every failing
// field, not only the first.
type Error struct {
	Kind   string       `json:"kind"`
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

// UserMessage is the text shown to end users.
func (e *Error) UserMessage() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("Please check the %s field: it %s.", e.Fields[0].Field, e.Fields[0].Reason)
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "Please check these fields: " + strings.Join(names, ", ") + "."
}

var validate = newValidator()

// newValidator reports fields by their JSON names and adds the rules the
// input structs in models rely on:
//
//	date        a YYYY-MM-DD string naming a real calendar day
//	between=a b a number in [a, b]
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "date", func(fl validator.FieldLevel) bool {
		return utils.ValidateDate(fl.Field().String())
	})
	mustRegister(v, "between", func(fl validator.FieldLevel) bool {
		min, max, ok := bounds(fl.Param())
		if !ok {
			return false
		}
		n, ok := number(fl.Field())
		return ok && n >= min && n <= max
	})
	v.RegisterStructValidation(healthMetricRules, models.HealthMetricInput{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func bounds(param string) (float64, float64, bool) {
	parts := strings.Fields(param)
	if len(parts) != 2 {
		return 0, 0, false
	}
	min, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	max, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return min, max, true
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// check validates in and converts any failure into an *Error of kind.
func check(kind string, in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}
	fields := make([]FieldError, 0, len(failures))
	for _, fe := range failures {
		fields = append(fields, FieldError{Field: fieldPath(fe), Reason: reason(fe)})
	}
	return &Error{Kind: kind, Fields: fields}
}

// fieldPath drops the struct name from the namespace, so a failing exercise
// reads "exercises[1].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	tag := fe.ActualTag()
	param := fe.Param()
	switch {
	case tag == "required":
		return "is required"
	case tag == "min" && fe.Kind() == reflect.String:
		if param == "1" {
			return "is required"
		}
		return "must be at least " + param + " characters"
	case tag == "max" && fe.Kind() == reflect.String:
		return "must be at most " + param + " characters"
	case tag == "gt" && param == "0":
		return "must be greater than 0"
	case tag == "gte" && param == "0":
		return "must not be negative"
	case tag == "gt":
		return "must be greater than " + param
	case tag == "gte":
		return "must be at least " + param
	case tag == "between":
		if parts := strings.Fields(param); len(parts) == 2 {
			return "must be between " + parts[0] + " and " + parts[1]
		}
	case tag == "oneof":
		return "must be one of " + strings.Join(strings.Fields(param), ", ")
	case strings.HasPrefix(tag, "date"):
		return "must be a date in YYYY-MM-DD format"
	case strings.HasPrefix(tag, "url"):
		return "must be a valid URL"
	case tag == "email":
		return "must be a valid email address"
	}
	return "is not valid"
}
