// Package document exposes paginated statement files as plain text pages.
package document

import (
	"errors"
	"fmt"
)

var ErrPageOutOfRange = errors.New("page out of range")

// Document is a paginated statement. Pages are numbered from 1.
type Document interface {
	NumPages() int
	PageText(n int) (string, error)
	Close() error
}

// Pages is an in-memory document, one string per page.
type Pages []string

// FromPages builds a document from already extracted page texts.
func FromPages(pages ...string) Pages {
	return Pages(pages)
}

func (p Pages) NumPages() int {
	return len(p)
}

func (p Pages) PageText(n int) (string, error) {
	if n < 1 || n > len(p) {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, len(p))
	}
	return p[n-1], nil
}

func (p Pages) Close() error {
	return nil
}
