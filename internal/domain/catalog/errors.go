package catalog

import (
	"errors"
	"fmt"
)

// Catalog errors.
var (
	ErrUnknownCatalogKey = errors.New("unknown catalog key")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)

// UnknownKeyError reports which kind of entry was looked up and the value the
// caller supplied. It unwraps to ErrUnknownCatalogKey.
type UnknownKeyError struct {
	Kind string
	Key  string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Key)
}

func (e *UnknownKeyError) Unwrap() error { return ErrUnknownCatalogKey }

func unknown(kind, key string) error {
	return &UnknownKeyError{Kind: kind, Key: key}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, fmt.Sprintf(format, args...))
}
