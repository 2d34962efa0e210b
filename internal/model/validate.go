package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks a malformed step. It is raised while authoring
// (building, loading or saving steps) and never by the runner.
var ErrValidation = errors.New("invalid step")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("anchor", func(fl validator.FieldLevel) bool {
			_, err := ParseAnchor(fl.Field().String())
			return err == nil
		})
		v.RegisterStructValidation(validateSubStep, SubStepRecord{})
		v.RegisterStructValidation(validateStepRecord, StepRecord{})
		validate = v
	})
	return validate
}

// validateSubStep checks the value against the sub-step type.
func validateSubStep(sl validator.StructLevel) {
	r := sl.Current().Interface().(SubStepRecord)
	switch r.Type {
	case "key":
		if _, err := ParseKey(r.Value); err != nil {
			sl.ReportError(r.Value, "value", "Value", "keyname", "")
		}
	case "scroll":
		if _, err := ParseScrollDirection(r.Value); err != nil {
			sl.ReportError(r.Value, "value", "Value", "oneof", "up down")
		}
	}
}

// validateStepRecord rejects an image path made only of whitespace.
func validateStepRecord(sl validator.StructLevel) {
	r := sl.Current().Interface().(StepRecord)
	if r.ClickType == ClickTypeImage && r.ImagePath != "" && strings.TrimSpace(r.ImagePath) == "" {
		sl.ReportError(r.ImagePath, "ImagePath", "ImagePath", "notblank", "")
	}
}

// ValidateRecord checks a persisted step record.
func ValidateRecord(r StepRecord) error {
	err := getValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// ValidateStep checks a step via its persisted form.
func ValidateStep(s Step) error {
	if s.Target == nil {
		return fmt.Errorf("%w: step %q has no target", ErrValidation, s.Name)
	}
	if s.PreWait < 0 {
		return fmt.Errorf("%w: step %q has a negative pre-wait", ErrValidation, s.Name)
	}
	return ValidateRecord(StepToRecord(s))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "anchor":
		return fmt.Sprintf("%s %q is not a valid anchor", field, fmt.Sprint(fe.Value()))
	case "notblank":
		return field + " must not be blank"
	case "keyname":
		return fmt.Sprintf("%s %q is not a valid key name", field, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
