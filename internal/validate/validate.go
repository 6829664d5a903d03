// Package validate is the schema-validation boundary for request bodies.
//
// Every endpoint that accepts input runs it through a Checker before touching
// the store. The result is exhaustive: a request is either accepted, or the
// caller gets back EVERY failing field at once — not just the first — so a
// client can render all its form errors in a single round trip.
//
// The output shape is a list of {field, message} pairs, which is exactly what
// the dashboard and the widget expect in a 400 response body.
package validate

import (
	"net/mail"
	"strings"
)

// FieldError describes one invalid field in a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the full set of field errors for a request. It implements error
// so services can return it through normal error plumbing; handlers detect it
// with errors.As and serialize the slice.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Checker accumulates field errors. Zero value is ready to use:
//
//	var c validate.Checker
//	c.Require("message", body.Message, "Message is required")
//	c.Email("email", body.Email)
//	if err := c.Err(); err != nil { ... }
type Checker struct {
	errs Errors
}

// Require records an error when value is empty after trimming whitespace.
func (c *Checker) Require(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, message)
	}
}

// Email records an error when value is neither empty nor a valid address.
// Empty is allowed: optional email fields pass through untouched.
func (c *Checker) Email(field, value string) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		c.add(field, "invalid email format")
	}
}

// OneOf records an error when value is not one of the allowed strings.
func (c *Checker) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.add(field, "must be one of "+strings.Join(allowed, ", "))
}

// MaxLen records an error when value is longer than max bytes.
func (c *Checker) MaxLen(field, value string, max int, message string) {
	if len(value) > max {
		c.add(field, message)
	}
}

// Add records an error directly, for checks the helpers don't cover.
func (c *Checker) Add(field, message string) {
	c.add(field, message)
}

// Err returns the accumulated Errors, or nil when every check passed.
// Returning a typed nil error from a non-nil slice is a classic Go trap,
// so the nil case returns a true untyped nil.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func (c *Checker) add(field, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message})
}
