package depreciation

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMethod is the only error the calculator raises.
var ErrUnsupportedMethod = errors.New("unsupported depreciation method")

// UnsupportedMethodError carries the label that failed to resolve.
type UnsupportedMethodError struct {
	Label string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported depreciation method: %q", e.Label)
}

func (e *UnsupportedMethodError) Unwrap() error {
	return ErrUnsupportedMethod
}
