package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2023, 5, 17, 21, 4, 11, 123000000, time.UTC)

func TestNewErratum(t *testing.T) {
	t.Run("correction defaults to highlight without annotation", func(t *testing.T) {
		e := NewErratum("1", "a typo heer", "", testDate)
		assert.Equal(t, e.Highlight, e.Correction)
		assert.Equal(t, UnknownPosition, e.Position)
		assert.Empty(t, e.Section)
	})

	t.Run("annotation becomes correction", func(t *testing.T) {
		e := NewErratum("1", "a typo heer", "a typo here", testDate, WithPosition(7), WithSection("ch1.xhtml"))
		assert.Equal(t, "a typo here", e.Correction)
		assert.Equal(t, 7, e.Position)
		assert.Equal(t, "ch1.xhtml", e.Section)
	})

	t.Run("empty correction does not count", func(t *testing.T) {
		e := NewErratum("1", "text", "", testDate)
		e.Correction = ""
		assert.False(t, e.HasCorrection())
	})
}

func TestBook_AddErratum(t *testing.T) {
	book := NewBook("b1", "Title", "Author")
	book.AddErratum(NewErratum("1", "first", "", testDate))
	book.AddErratum(NewErratum("2", "second", "", testDate))
	book.AddErratum(NewErratum("1", "replaced", "fix", testDate))

	errata := book.Errata()
	require.Len(t, errata, 2)
	assert.Equal(t, "1", errata[0].ID)
	assert.Equal(t, "replaced", errata[0].Highlight)
	assert.Equal(t, "fix", errata[0].Correction)
	assert.Equal(t, "2", errata[1].ID)
	assert.Equal(t, 2, book.Len())
}

func TestBook_DeleteErratum(t *testing.T) {
	e1 := NewErratum("1", "first", "", testDate)
	e2 := NewErratum("2", "second", "", testDate)
	book := NewBook("b1", "Title", "", e1, e2)

	require.NoError(t, book.DeleteErratum(e1))
	assert.False(t, book.Contains(e1))
	assert.True(t, book.Contains(e2))
	assert.Equal(t, []*Erratum{e2}, book.Errata())

	err := book.DeleteErratum(e1)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(book.DeleteErratum(nil), ErrNotFound))
}

func TestBook_Contains(t *testing.T) {
	e := NewErratum("1", "first", "", testDate)
	book := NewBook("b1", "Title", "", e)

	assert.True(t, book.Contains(e))
	assert.True(t, book.Contains(&Erratum{ID: "1"}))
	assert.False(t, book.Contains(&Erratum{ID: "2"}))
	assert.False(t, book.Contains(nil))
}

func TestBook_SetCorrection(t *testing.T) {
	book := NewBook("b1", "Title", "", NewErratum("1", "first", "", testDate))

	require.NoError(t, book.SetCorrection("1", "primero"))
	e, err := book.Erratum("1")
	require.NoError(t, err)
	assert.Equal(t, "primero", e.Correction)

	assert.ErrorIs(t, book.SetCorrection("missing", "x"), ErrNotFound)
}

func TestBook_HasCorrections(t *testing.T) {
	e1 := NewErratum("1", "first", "", testDate)
	e2 := NewErratum("2", "second", "", testDate)
	book := NewBook("b1", "Title", "", e1, e2)

	assert.True(t, book.HasCorrections(nil))

	e1.Correction = ""
	e2.Correction = ""
	assert.False(t, book.HasCorrections(nil))

	e2.Correction = "fixed"
	assert.False(t, book.HasCorrections([]*Erratum{e1}))
	assert.True(t, book.HasCorrections([]*Erratum{e1, e2}))
	assert.False(t, book.HasCorrections([]*Erratum{{ID: "ghost", Correction: "x"}}))
}

func TestBook_String(t *testing.T) {
	assert.Equal(t, "Title", NewBook("b1", "Title", "").String())
	assert.Equal(t, "Title (Someone)", NewBook("b1", "Title", "Someone").String())
}

func TestSortErrata(t *testing.T) {
	a := NewErratum("a", "x", "", testDate.Add(time.Hour), WithPosition(3), WithSection("c"))
	b := NewErratum("b", "x", "", testDate, WithPosition(1), WithSection("a"))
	c := NewErratum("c", "x", "", testDate.Add(2*time.Hour), WithPosition(2), WithSection("b"))

	tests := []struct {
		key      SortKey
		expected []string
	}{
		{SortByDate, []string{"b", "a", "c"}},
		{SortByPosition, []string{"b", "c", "a"}},
		{SortBySection, []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			errata := []*Erratum{a, b, c}
			require.NoError(t, SortErrata(errata, tt.key))

			ids := make([]string, len(errata))
			for i, e := range errata {
				ids[i] = e.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	assert.ErrorIs(t, SortErrata([]*Erratum{a}, "colour"), ErrInvalidSortKey)
}

func TestParseSortKey(t *testing.T) {
	key, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, key)

	key, err = ParseSortKey("section")
	require.NoError(t, err)
	assert.Equal(t, SortBySection, key)

	_, err = ParseSortKey("title")
	assert.ErrorIs(t, err, ErrInvalidSortKey)
}
