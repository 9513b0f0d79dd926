package validate

import (
	"errors"
	"fmt"

	"github.com/carlodf/tabval/coerce"
)

var (
	// ErrForeignKey is matched by every *ForeignKeyError via errors.Is.
	ErrForeignKey = errors.New("validate: foreign key violation")
	// ErrStreamClosed is returned by Stream.Push after End.
	ErrStreamClosed = errors.New("validate: stream closed")
	// ErrInvalidSchema wraps schema document problems found by LoadSchema.
	ErrInvalidSchema = errors.New("validate: invalid schema")
)

// ForeignKeyError reports a coerced value missing from its field's
// allowed-value set.
type ForeignKeyError struct {
	Field string
	Value any
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("%s is not a valid value according to its foreignkey", coerce.FormatValue(e.Value))
}

func (e *ForeignKeyError) Is(target error) bool {
	return target == ErrForeignKey
}
