// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

// Package validation checks API request parameters with
// go-playground/validator v10.
//
// One validator instance is shared process-wide. Besides the built-in tags
// it understands platform, datatype and timerange:
//
//	type TrendsRequest struct {
//	    Platforms []string `validate:"required,min=1,max=5,dive,platform"`
//	    Range     string   `validate:"omitempty,timerange"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/trendscope/internal/models"
)

// CodeValidation is the API error code for rejected parameters.
const CodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator with the domain tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		for tag, valid := range map[string]func(string) bool{
			"platform":  func(s string) bool { return models.PlatformID(s).Valid() },
			"datatype":  func(s string) bool { return models.DataType(s).Valid() },
			"timerange": func(s string) bool { return models.TimeRange(s).Valid() },
		} {
			if err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			}); err != nil {
				panic(fmt.Sprintf("register %s validator: %v", tag, err))
			}
		}
	})
	return validate
}

// FieldError describes one rejected field.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field is the struct field path, e.g. "Platforms[1]".
func (e FieldError) Field() string { return e.field }

// Tag is the failed validation tag.
func (e FieldError) Tag() string { return e.tag }

// Param is the tag parameter, e.g. "100" for max=100.
func (e FieldError) Param() string { return e.param }

// Value is the rejected value.
func (e FieldError) Value() interface{} { return e.value }

func (e FieldError) Error() string { return e.message }

// RequestValidationError lists every field that failed validation.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the field errors in validation order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		msgs[i] = e.message
	}
	return strings.Join(msgs, "; ")
}

// ToAPIError converts the failure to the VALIDATION_ERROR response body.
// A single failure reports its field, tag and value; several are listed
// under details.fields.
func (ve *RequestValidationError) ToAPIError() *models.APIError {
	switch len(ve.errors) {
	case 0:
		return &models.APIError{Code: CodeValidation, Message: "validation failed"}
	case 1:
		e := ve.errors[0]
		return &models.APIError{
			Code:    CodeValidation,
			Message: e.message,
			Details: map[string]interface{}{"field": e.field, "tag": e.tag, "value": e.value},
		}
	}

	fields := make([]map[string]interface{}, len(ve.errors))
	msgs := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		fields[i] = map[string]interface{}{"field": e.field, "tag": e.tag, "message": e.message}
		msgs[i] = e.field + ": " + e.message
	}
	return &models.APIError{
		Code:    CodeValidation,
		Message: strings.Join(msgs, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// ValidateStruct returns nil if s is valid, otherwise every failed field.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: message(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind().String() == "string" {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "platform":
		return fmt.Sprintf("%s: unknown platform %q", field, fe.Value())
	case "datatype":
		return fmt.Sprintf("%s: unknown data type %q", field, fe.Value())
	case "timerange":
		return fmt.Sprintf("%s: invalid time range %q (use 1h, 24h, 7d or 30d)", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
