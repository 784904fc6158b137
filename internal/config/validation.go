package config

import (
	"errors"
	"fmt"
)

// ValidationError collects option failures so a misconfigured startup
// reports every problem at once.
type ValidationError struct {
	Errors []error
}

func (c *ValidationError) Add(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

func (c *ValidationError) Error() string {
	if len(c.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", errors.Join(c.Errors...))
}
