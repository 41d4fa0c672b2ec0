package entities

import (
	"fmt"
	"strings"
)

// SchemaError reports a required column that is absent after header normalization
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("missing required column %q", e.Column)
	}
	return fmt.Sprintf("missing required column %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}
