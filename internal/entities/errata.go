package entities

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotFound is returned when a book or erratum id is not currently owned.
var ErrNotFound = errors.New("not found")

// ErrInvalidSortKey is returned by SortErrata for an unknown key.
var ErrInvalidSortKey = errors.New("invalid sort key")

// UnknownPosition marks an erratum whose location in the book is not known.
const UnknownPosition = -1

// Erratum is a single reviewable annotation: the highlighted excerpt and
// the correction the reader wants to report for it.
type Erratum struct {
	ID         string    `json:"id"`
	Highlight  string    `json:"highlight"`
	Correction string    `json:"correction"`
	Date       time.Time `json:"date"`
	Position   int       `json:"position"`
	Section    string    `json:"section"`
}

type ErratumOption func(*Erratum)

func WithPosition(position int) ErratumOption {
	return func(e *Erratum) {
		e.Position = position
	}
}

func WithSection(section string) ErratumOption {
	return func(e *Erratum) {
		e.Section = section
	}
}

// NewErratum builds an erratum. An empty annotation makes the correction
// default to the highlight itself.
func NewErratum(id, highlight, annotation string, date time.Time, opts ...ErratumOption) *Erratum {
	correction := annotation
	if correction == "" {
		correction = highlight
	}

	e := &Erratum{
		ID:         id,
		Highlight:  highlight,
		Correction: correction,
		Date:       date,
		Position:   UnknownPosition,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasCorrection reports whether the erratum carries any correction text.
func (e *Erratum) HasCorrection() bool {
	return e.Correction != ""
}

func (e *Erratum) String() string {
	return fmt.Sprintf("Erratum(highlight=%q, correction=%q, date=%s, position=%d, section=%q)",
		e.Highlight, e.Correction, e.Date.Format(time.RFC3339), e.Position, e.Section)
}

// Book groups the errata of one title. Errata are keyed by id; insertion
// order is remembered so snapshots and default reports are stable.
type Book struct {
	ID     string
	Title  string
	Author string

	errata map[string]*Erratum
	order  []string
}

func NewBook(id, title, author string, errata ...*Erratum) *Book {
	b := &Book{
		ID:     id,
		Title:  title,
		Author: author,
		errata: make(map[string]*Erratum, len(errata)),
	}
	for _, e := range errata {
		b.AddErratum(e)
	}
	return b
}

// Errata returns a snapshot of the owned errata in insertion order.
func (b *Book) Errata() []*Erratum {
	result := make([]*Erratum, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, b.errata[id])
	}
	return result
}

func (b *Book) Erratum(id string) (*Erratum, error) {
	e, ok := b.errata[id]
	if !ok {
		return nil, fmt.Errorf("erratum %s in book %s: %w", id, b.ID, ErrNotFound)
	}
	return e, nil
}

// AddErratum inserts e, replacing any erratum with the same id in place.
func (b *Book) AddErratum(e *Erratum) {
	if b.errata == nil {
		b.errata = make(map[string]*Erratum)
	}
	if _, exists := b.errata[e.ID]; !exists {
		b.order = append(b.order, e.ID)
	}
	b.errata[e.ID] = e
}

func (b *Book) DeleteErratum(e *Erratum) error {
	if e == nil {
		return fmt.Errorf("nil erratum in book %s: %w", b.ID, ErrNotFound)
	}
	if _, ok := b.errata[e.ID]; !ok {
		return fmt.Errorf("erratum %s in book %s: %w", e.ID, b.ID, ErrNotFound)
	}

	delete(b.errata, e.ID)
	for i, id := range b.order {
		if id == e.ID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Book) Contains(e *Erratum) bool {
	if e == nil {
		return false
	}
	_, ok := b.errata[e.ID]
	return ok
}

func (b *Book) Len() int {
	return len(b.errata)
}

// SetCorrection replaces the correction text of an owned erratum.
func (b *Book) SetCorrection(id, correction string) error {
	e, err := b.Erratum(id)
	if err != nil {
		return err
	}
	e.Correction = correction
	return nil
}

// HasCorrections reports whether any owned erratum of subset has a
// non-empty correction. An empty subset means every owned erratum.
func (b *Book) HasCorrections(subset []*Erratum) bool {
	if len(subset) == 0 {
		subset = b.Errata()
	}
	for _, e := range subset {
		if b.Contains(e) && b.errata[e.ID].HasCorrection() {
			return true
		}
	}
	return false
}

func (b *Book) String() string {
	if b.Author == "" {
		return b.Title
	}
	return fmt.Sprintf("%s (%s)", b.Title, b.Author)
}

type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByPosition SortKey = "position"
	SortBySection  SortKey = "section"
)

// ParseSortKey maps a user supplied key to a SortKey. Empty means date.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortByDate:
		return SortByDate, nil
	case SortByPosition, SortBySection:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidSortKey)
	}
}

// SortErrata sorts errata in place by key. Ties are broken by id.
func SortErrata(errata []*Erratum, key SortKey) error {
	var less func(a, b *Erratum) int
	switch key {
	case SortByDate:
		less = func(a, b *Erratum) int { return a.Date.Compare(b.Date) }
	case SortByPosition:
		less = func(a, b *Erratum) int { return a.Position - b.Position }
	case SortBySection:
		less = func(a, b *Erratum) int {
			switch {
			case a.Section < b.Section:
				return -1
			case a.Section > b.Section:
				return 1
			}
			return 0
		}
	default:
		return fmt.Errorf("%q: %w", key, ErrInvalidSortKey)
	}

	sort.SliceStable(errata, func(i, j int) bool {
		if c := less(errata[i], errata[j]); c != 0 {
			return c < 0
		}
		return errata[i].ID < errata[j].ID
	})
	return nil
}
