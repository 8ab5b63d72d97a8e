package module

import (
	"errors"
	"fmt"
)

// ErrModuleNotFound is the cause of an ImportError for a path that resolves to nothing.
var ErrModuleNotFound = errors.New("no module found")

// ErrCircularImport is the cause of an ImportError for a module imported again while
// its own InitFunc is still running.
var ErrCircularImport = errors.New("circular import")

// NotAPackageError is returned when a path that must be a package is a plain module.
type NotAPackageError struct {
	Path string
}

func (err *NotAPackageError) Error() string {
	return fmt.Sprintf("%q is not a package", err.Path)
}

// ImportError is returned when importing a module fails.
type ImportError struct {
	Err  error
	Path string
}

func (err *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", err.Path, err.Err)
}

func (err *ImportError) Unwrap() error {
	return err.Err
}

// NewImportError wraps err as an ImportError of path, unless it already is one.
func NewImportError(path string, err error) error {
	if err == nil {
		return nil
	}

	var importErr *ImportError
	if errors.As(err, &importErr) {
		return err
	}

	return &ImportError{Path: path, Err: err}
}
