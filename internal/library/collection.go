package library

import (
	"fmt"

	"github.com/mrlokans/erratas/internal/entities"
)

// Collection holds the books of a library and implements the deletion
// workflow shared by every vendor.
type Collection struct {
	books     map[string]*entities.Book
	order     []string
	persister Persister
}

func NewCollection(persister Persister) *Collection {
	return &Collection{
		books:     make(map[string]*entities.Book),
		persister: persister,
	}
}

// Add stores book, replacing any book with the same id.
func (c *Collection) Add(book *entities.Book) {
	if _, exists := c.books[book.ID]; !exists {
		c.order = append(c.order, book.ID)
	}
	c.books[book.ID] = book
}

// Books returns a snapshot of the books in load order.
func (c *Collection) Books() []*entities.Book {
	books := make([]*entities.Book, 0, len(c.order))
	for _, id := range c.order {
		books = append(books, c.books[id])
	}
	return books
}

func (c *Collection) Book(id string) (*entities.Book, error) {
	book, ok := c.books[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return book, nil
}

func (c *Collection) Len() int {
	return len(c.books)
}

// DeleteErrata removes errata from book, drops book once it has no errata
// left, and then persists the deletion. Every erratum must belong to book;
// nothing is removed otherwise. A persistence failure is returned but the
// in-memory removal stays in place.
func (c *Collection) DeleteErrata(book *entities.Book, errata []*entities.Erratum) error {
	if len(errata) == 0 {
		return nil
	}
	if book == nil {
		return fmt.Errorf("nil book: %w", ErrNotFound)
	}
	if _, ok := c.books[book.ID]; !ok {
		return fmt.Errorf("book %s not in library: %w", book, ErrNotFound)
	}

	seen := make(map[string]struct{}, len(errata))
	unique := make([]*entities.Erratum, 0, len(errata))
	for _, e := range errata {
		if !book.Contains(e) {
			id := "<nil>"
			if e != nil {
				id = e.ID
			}
			return fmt.Errorf("erratum %s in book %s: %w", id, book.ID, ErrNotFound)
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		unique = append(unique, e)
	}
	errata = unique

	for _, e := range errata {
		if err := book.DeleteErratum(e); err != nil {
			return err
		}
	}

	if book.Len() == 0 {
		c.remove(book.ID)
	}

	if c.persister == nil {
		return nil
	}
	if err := c.persister.PersistDeletion(book, errata); err != nil {
		return fmt.Errorf("persist deletion for book %s: %w", book.ID, err)
	}
	return nil
}

func (c *Collection) remove(id string) {
	delete(c.books, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
