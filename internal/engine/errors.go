package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plantworks/oee-cli/internal/model"
)

// ValidationError aborts a calculation on fatal validation issues. It
// carries the complete pipeline result so callers can surface every
// finding, not just the first fatal one.
type ValidationError struct {
	Result model.ValidationResult
}

func (e *ValidationError) Error() string {
	fatal := e.Result.Fatal()
	codes := make([]string, len(fatal))
	for i, is := range fatal {
		codes[i] = is.Code
	}
	return fmt.Sprintf("engine: validation failed with %d fatal issue(s): %s",
		len(fatal), strings.Join(codes, ", "))
}

// AsValidationError unwraps err to a *ValidationError if one is in the
// chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsValidationFailure reports whether err (or anything it wraps) is a
// fatal-validation abort.
func IsValidationFailure(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}
