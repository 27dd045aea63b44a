package utils

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool                       `json:"is_valid"`
	Errors  map[string]ValidationError `json:"errors,omitempty"`
}

// FirstError returns the alphabetically first failing field, or nil.
func (r *ValidationResult) FirstError() *ValidationError {
	if r.IsValid || len(r.Errors) == 0 {
		return nil
	}
	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	first := r.Errors[fields[0]]
	return &first
}

// Validator checks struct fields against `validate:"..."` tags.
// Supported rules: required, url, min, max, oneof.
type Validator struct {
	errors map[string]ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make(map[string]ValidationError),
	}
}

// ValidateStruct validates a struct using reflection and validation tags
func (v *Validator) ValidateStruct(s interface{}) *ValidationResult {
	v.errors = make(map[string]ValidationError)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		v.addError("_root", "Value must be a struct", "")
		return v.result()
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !field.CanInterface() {
			continue
		}

		rules := fieldType.Tag.Get("validate")
		if rules == "" {
			continue
		}

		v.validateField(jsonFieldName(fieldType), field.Interface(), rules)
	}

	return v.result()
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

// validateField applies rules in order and stops at the first failure.
func (v *Validator) validateField(fieldName string, value interface{}, rules string) {
	for _, rule := range strings.Split(rules, ",") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}

		name, param, _ := strings.Cut(rule, "=")
		if !v.applyRule(fieldName, value, name, param) {
			return
		}
	}
}

func (v *Validator) applyRule(fieldName string, value interface{}, ruleName, param string) bool {
	switch ruleName {
	case "required":
		return v.validateRequired(fieldName, value)
	case "url":
		return v.validateURL(fieldName, value)
	case "min":
		return v.validateBound(fieldName, value, param, false)
	case "max":
		return v.validateBound(fieldName, value, param, true)
	case "oneof":
		return v.validateOneOf(fieldName, value, param)
	default:
		return true
	}
}

func (v *Validator) validateRequired(fieldName string, value interface{}) bool {
	if value == nil {
		v.addError(fieldName, "Field is required", "")
		return false
	}

	switch val := value.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			v.addError(fieldName, "Field is required", val)
			return false
		}
		return true
	case time.Time:
		if val.IsZero() {
			v.addError(fieldName, "Field is required", "")
			return false
		}
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			v.addError(fieldName, "Field is required", "")
			return false
		}
	}
	return true
}

func (v *Validator) validateURL(fieldName string, value interface{}) bool {
	str, ok := value.(string)
	if !ok {
		v.addError(fieldName, "Field must be a string", fmt.Sprintf("%v", value))
		return false
	}
	if str == "" {
		return true
	}

	u, err := url.ParseRequestURI(str)
	if err != nil || u.Host == "" {
		v.addError(fieldName, "Field must be a valid URL", str)
		return false
	}
	return true
}

// validateBound enforces min/max on string length and numeric value.
func (v *Validator) validateBound(fieldName string, value interface{}, param string, isMax bool) bool {
	limit, err := strconv.Atoi(param)
	if err != nil {
		return true
	}

	word := "least"
	violates := func(n float64) bool { return n < float64(limit) }
	if isMax {
		word = "most"
		violates = func(n float64) bool { return n > float64(limit) }
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		if violates(float64(len(rv.String()))) {
			v.addError(fieldName, fmt.Sprintf("Field must be at %s %d characters long", word, limit), rv.String())
			return false
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if violates(float64(rv.Int())) {
			v.addError(fieldName, fmt.Sprintf("Field must be at %s %d", word, limit), strconv.FormatInt(rv.Int(), 10))
			return false
		}
	case reflect.Float32, reflect.Float64:
		if violates(rv.Float()) {
			v.addError(fieldName, fmt.Sprintf("Field must be at %s %d", word, limit), fmt.Sprintf("%.2f", rv.Float()))
			return false
		}
	}
	return true
}

func (v *Validator) validateOneOf(fieldName string, value interface{}, param string) bool {
	str, ok := value.(string)
	if !ok {
		v.addError(fieldName, "Field must be a string", fmt.Sprintf("%v", value))
		return false
	}

	options := strings.Fields(param)
	for _, option := range options {
		if str == option {
			return true
		}
	}

	v.addError(fieldName, fmt.Sprintf("Field must be one of: %s", strings.Join(options, ", ")), str)
	return false
}

func (v *Validator) addError(field, message, value string) {
	v.errors[field] = ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

func (v *Validator) result() *ValidationResult {
	return &ValidationResult{
		IsValid: len(v.errors) == 0,
		Errors:  v.errors,
	}
}

// ValidateJSON parses the request body into target and validates it.
func ValidateJSON(c *fiber.Ctx, target interface{}) *ValidationResult {
	if err := c.BodyParser(target); err != nil {
		validator := NewValidator()
		validator.addError("_body", "Invalid JSON format", "")
		return validator.result()
	}

	return NewValidator().ValidateStruct(target)
}

// ValidateQuery validates query parameters against per-field rules.
func ValidateQuery(c *fiber.Ctx, rules map[string]string) *ValidationResult {
	validator := NewValidator()
	for field, rule := range rules {
		value := c.Query(field)
		if value == "" {
			continue
		}
		if n, err := strconv.Atoi(value); err == nil {
			validator.validateField(field, n, rule)
			continue
		}
		validator.validateField(field, value, rule)
	}
	return validator.result()
}

// HandleValidationErrors writes a 400 envelope when result is invalid.
func HandleValidationErrors(c *fiber.Ctx, result *ValidationResult) error {
	if result.IsValid {
		return nil
	}

	details := make(map[string]string, len(result.Errors))
	for field, validationError := range result.Errors {
		details[field] = validationError.Message
	}
	return ValidationErrorResponse(c, details)
}

// ValidateStruct is a convenience function that validates a struct and returns an error
func ValidateStruct(s interface{}) error {
	result := NewValidator().ValidateStruct(s)
	if first := result.FirstError(); first != nil {
		return fmt.Errorf("validation failed for field '%s': %s", first.Field, first.Message)
	}
	return nil
}
