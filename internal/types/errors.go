package types

import (
	"errors"
	"fmt"
)

// ErrNoCategories is returned when a harvest is started with no
// configured categories.
var ErrNoCategories = errors.New("no categories configured")

// SessionError wraps a failure to start or connect the browser automation
// session. It is fatal to a single category's crawl; the batch records the
// category as failed and continues.
type SessionError struct {
	Category string
	Err      error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session for category %q: %v", e.Category, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// PageError wraps a navigation or extraction failure on a single listing
// page. It is recovered locally: the crawler logs it and moves to the next
// page number.
type PageError struct {
	Category string
	Page     int
	URL      string
	Err      error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("listing page %d for %q (%s): %v", e.Page, e.Category, e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
