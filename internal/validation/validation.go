// Package validation provides field-level request validation for the API.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MarcoLSC/echo-emergent/internal/types"
)

// MaxTextLength bounds interpretation and interaction text payloads.
const MaxTextLength = 10000

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateInteractionType returns an error unless the value is one of the
// recognized interaction types.
func ValidateInteractionType(field string, value types.InteractionType) *ValidationError {
	if !value.Valid() {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of: %s", joinInteractionTypes()),
		}
	}
	return nil
}

// ValidateCategory returns an error unless the value is one of the fixed
// categories.
func ValidateCategory(field string, value types.Category) *ValidationError {
	if !value.Valid() {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of: %s", joinCategories()),
		}
	}
	return nil
}

// ValidateInteraction checks an interaction request: the type must belong
// to the closed set, and any text payload must pass the shared text checks.
func ValidateInteraction(t types.InteractionType, data *types.InteractionData) []ValidationError {
	var c Collector
	c.Add(ValidateInteractionType("type", t))
	if data != nil && data.Text != nil {
		for _, err := range ValidateText("data.text.text", data.Text.Text) {
			err := err
			c.Add(&err)
		}
		if data.Text.Category != "" {
			c.Add(ValidateCategory("data.text.category", types.Category(data.Text.Category)))
		}
	}
	return c.Errors()
}

// ValidateText runs the shared text payload checks.
func ValidateText(field, value string) []ValidationError {
	var c Collector
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, MaxTextLength))
	return c.Errors()
}

func joinInteractionTypes() string {
	names := make([]string, len(types.InteractionTypes))
	for i, t := range types.InteractionTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func joinCategories() string {
	names := make([]string, len(types.Categories))
	for i, c := range types.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
