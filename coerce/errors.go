package coerce

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is matched by every *TypeMismatchError via errors.Is.
var ErrTypeMismatch = errors.New("coerce: type mismatch")

// TypeMismatchError reports a value that does not parse as the declared
// kind. Input is the value as it was received, before any coercion.
type TypeMismatchError struct {
	Input any
	Kind  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s is not %s", FormatValue(e.Input), e.Kind.phrase())
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

func mismatch(k Kind, input any) error {
	return &TypeMismatchError{Input: input, Kind: k}
}
