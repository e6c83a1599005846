// Package library maps a vendor annotation file to books and errata and
// writes deletions back to it.
//
// Each supported vendor provides a Descriptor whose Open function parses the
// uploaded bytes into a Library. Vendors embed Collection to get the shared
// book bookkeeping and only implement the Persister capability plus Export
// and Close.
package library

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrlokans/erratas/internal/entities"
)

// ErrNotFound is returned when a book or erratum is not part of the library.
var ErrNotFound = entities.ErrNotFound

// ErrUnsupportedFormat is returned when no vendor handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported highlights format")

// ParseError wraps any failure to read an uploaded highlights file.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s highlights: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Library is a loaded highlights file.
type Library interface {
	Format() string
	Vendor() string
	Books() []*entities.Book
	Book(id string) (*entities.Book, error)
	// DeleteErrata removes errata from book and from the underlying file.
	DeleteErrata(book *entities.Book, errata []*entities.Erratum) error
	// Export returns the current highlights file, deletions included.
	Export() ([]byte, error)
	// Close releases the working copy. The library is unusable afterwards.
	Close() error
}

// Persister makes a deletion durable in the vendor file.
type Persister interface {
	PersistDeletion(book *entities.Book, errata []*entities.Erratum) error
}

// OpenOptions are passed to every vendor Open function.
type OpenOptions struct {
	// TempDir is where working copies are created; empty means os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

// OpenFunc parses raw highlights bytes into a Library.
type OpenFunc func(raw []byte, opts OpenOptions) (Library, error)

// Descriptor describes one supported vendor format.
type Descriptor struct {
	Format     string
	Vendor     string
	UploadHelp string
	Open       OpenFunc
}
