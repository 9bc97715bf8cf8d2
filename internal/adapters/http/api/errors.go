package api

import (
	"errors"
	"fmt"
)

// ErrBadRequest is the sentinel kind for malformed requests.
var ErrBadRequest = errors.New("bad request")

// NewKind tags a sentinel kind with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags kind with op and keeps the underlying cause unwrappable.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Wrap tags err with the operation that raised it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
