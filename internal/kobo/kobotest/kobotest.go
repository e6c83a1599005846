// Package kobotest builds KoboReader.sqlite files for tests.
package kobotest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// Content is a row of the content table. Nil fields are stored as NULL.
type Content struct {
	ContentID   string
	BookID      any
	BookTitle   any
	Attribution any
}

// Bookmark is a row of the Bookmark table. Nil fields are stored as NULL.
type Bookmark struct {
	BookmarkID  string
	ContentID   string
	Text        any
	Annotation  any
	DateCreated any
}

const schema = `
	CREATE TABLE content (
		ContentID TEXT NOT NULL PRIMARY KEY,
		BookID TEXT,
		BookTitle TEXT,
		Attribution TEXT
	);
	CREATE TABLE Bookmark (
		BookmarkID TEXT NOT NULL PRIMARY KEY,
		VolumeID TEXT,
		ContentID TEXT NOT NULL,
		Text TEXT,
		Annotation TEXT,
		DateCreated TEXT
	);
`

// Build creates a minimal KoboReader.sqlite and returns its bytes.
func Build(t testing.TB, contents []Content, bookmarks []Bookmark) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "KoboReader.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	_, err = db.Exec(schema)
	require.NoError(t, err)

	for _, c := range contents {
		_, err := db.Exec(`INSERT INTO content (ContentID, BookID, BookTitle, Attribution) VALUES (?, ?, ?, ?)`,
			c.ContentID, c.BookID, c.BookTitle, c.Attribution)
		require.NoError(t, err)
	}
	for _, b := range bookmarks {
		_, err := db.Exec(`INSERT INTO Bookmark (BookmarkID, ContentID, Text, Annotation, DateCreated) VALUES (?, ?, ?, ?, ?)`,
			b.BookmarkID, b.ContentID, b.Text, b.Annotation, b.DateCreated)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// Sample book ids.
const (
	QuijoteID   = "file:///mnt/onboard/quijote.epub"
	ChapterID   = QuijoteID + "!OEBPS!Text/cap1.xhtml"
	LazarilloID = "lazarillo"
)

// Sample builds a library with two books: El Quijote (bm-1, bm-2) and
// Lazarillo de Tormes (bm-3). bm-2 has no annotation.
func Sample(t testing.TB) []byte {
	t.Helper()

	return Build(t,
		[]Content{
			{ContentID: ChapterID, BookID: QuijoteID, BookTitle: "El Quijote", Attribution: "Miguel de Cervantes"},
			{ContentID: "lazarillo-ch1", BookID: LazarilloID, BookTitle: "Lazarillo de Tormes"},
		},
		[]Bookmark{
			{BookmarkID: "bm-1", ContentID: ChapterID, Text: "En un lugar de la Mancah", Annotation: "En un lugar de la Mancha", DateCreated: "2023-05-17T21:04:11.123"},
			{BookmarkID: "bm-2", ContentID: ChapterID, Text: "de cuyo nombre", DateCreated: "2023-05-17T21:05:00.000"},
			{BookmarkID: "bm-3", ContentID: "lazarillo-ch1", Text: "Pues sepa vuestra merced", Annotation: "Pues sepa Vuestra Merced", DateCreated: "2022-01-01T00:00:00.0"},
		},
	)
}
