// Package kobo reads and updates the KoboReader.sqlite annotation database
// found on Kobo eReaders.
package kobo

import (
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/erratas/internal/entities"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/logging"
	"github.com/mrlokans/erratas/internal/workspace"
)

const (
	Format = "sqlite"
	Vendor = "Kobo"

	UploadHelp = "Las anotaciones en los lectores Kobo se encuentran en la carpeta `/.kobo` en la raíz del lector.\n\n" +
		"El archivo con las anotaciones se llama `KoboReader.sqlite`."

	workingFileName = "KoboReader.sqlite"

	// Kobo stores DateCreated as local ISO timestamps with fractional seconds.
	dateLayout = "2006-01-02T15:04:05.999999"
)

var sectionPattern = regexp.MustCompile(`[!/]Text/(.+)$`)

const bookmarksQuery = `
	SELECT
		c.BookID,
		c.ContentID,
		c.BookTitle,
		c.Attribution,
		bm.Text,
		bm.Annotation,
		bm.DateCreated,
		bm.BookmarkID
	FROM Bookmark bm
	INNER JOIN content c ON bm.ContentID = c.ContentID
	WHERE c.BookTitle NOT NULL
	ORDER BY c.BookTitle
`

// Descriptor registers the Kobo format with a library.Registry.
func Descriptor() library.Descriptor {
	return library.Descriptor{
		Format:     Format,
		Vendor:     Vendor,
		UploadHelp: UploadHelp,
		Open: func(raw []byte, opts library.OpenOptions) (library.Library, error) {
			return Open(raw, opts)
		},
	}
}

// Library is a Kobo annotation database loaded from an upload. Deletions
// are applied to a private working copy, never to the uploaded bytes.
type Library struct {
	*library.Collection

	ws     *workspace.Workspace
	logger *slog.Logger
}

// bookmarkRow is one Bookmark row joined with its content row.
type bookmarkRow struct {
	BookID      string
	ContentID   string
	Title       string
	Author      string
	Text        string
	Annotation  string
	DateCreated string
	BookmarkID  string
}

// Open copies raw into a workspace and loads every book and bookmark from
// it. Any failure to read the database is returned as a *library.ParseError
// and the workspace is released.
func Open(raw []byte, opts library.OpenOptions) (*Library, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.FieldComponent, "kobo")

	ws, err := workspace.Create(opts.TempDir, workingFileName, raw)
	if err != nil {
		return nil, fmt.Errorf("create kobo working copy: %w", err)
	}

	lib := &Library{ws: ws, logger: logger}
	lib.Collection = library.NewCollection(lib)

	if err := lib.load(); err != nil {
		_ = ws.Close()
		return nil, &library.ParseError{Format: Format, Err: err}
	}

	logger.Info("kobo highlights loaded",
		logging.FieldBooks, lib.Len(),
		logging.FieldBytes, len(raw),
	)
	return lib, nil
}

func (l *Library) Format() string {
	return Format
}

func (l *Library) Vendor() string {
	return Vendor
}

// Export returns the working copy with every persisted deletion applied.
func (l *Library) Export() ([]byte, error) {
	return l.ws.Bytes()
}

// Close removes the working copy.
func (l *Library) Close() error {
	return l.ws.Close()
}

// PersistDeletion removes the bookmarks of errata from the working copy.
func (l *Library) PersistDeletion(book *entities.Book, errata []*entities.Erratum) error {
	if len(errata) == 0 {
		return nil
	}

	placeholders := make([]string, len(errata))
	args := make([]any, len(errata))
	for i, e := range errata {
		placeholders[i] = "?"
		args[i] = e.ID
	}

	db, err := sql.Open("sqlite3", l.ws.Path())
	if err != nil {
		return fmt.Errorf("open kobo database: %w", err)
	}
	defer db.Close()

	query := "DELETE FROM Bookmark WHERE BookmarkID IN (" + strings.Join(placeholders, ",") + ")"
	result, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("delete bookmarks: %w", err)
	}

	affected, _ := result.RowsAffected()
	l.logger.Info("kobo bookmarks deleted",
		logging.FieldBookID, book.ID,
		logging.FieldRequested, len(errata),
		logging.FieldDeleted, affected,
	)
	return nil
}

func (l *Library) load() error {
	rows, err := l.readBookmarks()
	if err != nil {
		return err
	}

	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.DateCreated)
		if err != nil {
			return fmt.Errorf("bookmark %s: invalid DateCreated %q: %w", row.BookmarkID, row.DateCreated, err)
		}

		book, err := l.Book(row.BookID)
		if err != nil {
			book = entities.NewBook(row.BookID, row.Title, row.Author)
			l.Add(book)
		}

		book.AddErratum(entities.NewErratum(
			row.BookmarkID,
			row.Text,
			row.Annotation,
			date,
			entities.WithSection(ExtractSection(row.ContentID)),
		))
	}
	return nil
}

func (l *Library) readBookmarks() ([]bookmarkRow, error) {
	db, err := sql.Open("sqlite3", "file:"+l.ws.Path()+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open kobo database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(bookmarksQuery)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var result []bookmarkRow
	for rows.Next() {
		var row bookmarkRow
		var bookID, author, text, annotation, dateCreated sql.NullString

		if err := rows.Scan(
			&bookID,
			&row.ContentID,
			&row.Title,
			&author,
			&text,
			&annotation,
			&dateCreated,
			&row.BookmarkID,
		); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}

		row.BookID = bookID.String
		row.Author = author.String
		row.Text = text.String
		row.Annotation = annotation.String
		row.DateCreated = dateCreated.String

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return result, nil
}

// ExtractSection returns the part of a content id after "!Text/" or
// "/Text/", or the id unchanged when there is no such part.
func ExtractSection(contentID string) string {
	if match := sectionPattern.FindStringSubmatch(contentID); match != nil {
		return match[1]
	}
	return contentID
}
