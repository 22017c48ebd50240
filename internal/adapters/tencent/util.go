package tencent

import (
	"errors"
	"fmt"
	"io"
)

// StatusError is a 5xx answer from the gateway
type StatusError struct {
	Status int
}

// Error interface
func (e *StatusError) Error() string { return fmt.Sprintf("ocr server error: HTTP %d", e.Status) }

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

// IsTransient reports whether err carries a 5xx StatusError
func IsTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 500
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
