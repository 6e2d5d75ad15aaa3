// Package validation provides common validation utilities for pool,
// queue and monitor configuration.
//
// Every helper returns a *errors.ValidationError, which matches
// errors.ErrInvalidConfiguration, so constructors can surface uniform
// messages without repeating boilerplate.
package validation
