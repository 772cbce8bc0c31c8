package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLoad is matched by every LoadError.
var ErrLoad = errors.New("load failed")

// LoadError reports a source that could not be read or converted.
// Row is the 1-based data row (header excluded), 0 when not row-specific.
type LoadError struct {
	Source string // worker, bonus or title
	Path   string
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Source)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ErrInvalidArgument marks a request parameter outside its allowed values.
var ErrInvalidArgument = errors.New("invalid argument")
