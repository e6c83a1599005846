package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/entities"
	"github.com/mrlokans/erratas/internal/sessions"
)

// BookErrataResponse is a book together with its errata.
type BookErrataResponse struct {
	Book   BookSummary        `json:"book"`
	Sort   entities.SortKey   `json:"sort"`
	Errata []entities.Erratum `json:"errata"`
}

type updateErratumRequest struct {
	Correction *string `json:"correction" binding:"required"`
}

type BooksController struct {
	libs sessionLibraries
}

func NewBooksController(cfg RouterConfig) *BooksController {
	return &BooksController{
		libs: sessionLibraries{manager: cfg.SessionManager, store: cfg.Libraries},
	}
}

// List returns the books of the caller's library in load order
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	var books []BookSummary
	err := bc.libs.with(c, func(entry *sessions.Entry) error {
		books = libraryResponse(entry).Books
		return nil
	})
	if err != nil {
		respondLibraryError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, books)
}

// Errata returns the errata of one book, sorted by the sort query parameter
// GET /api/books/:id/errata?sort=date|position|section
func (bc *BooksController) Errata(c *gin.Context) {
	key, err := entities.ParseSortKey(c.Query("sort"))
	if err != nil {
		respondLibraryError(c, err, "parse sort key")
		return
	}

	var resp BookErrataResponse
	err = bc.libs.with(c, func(entry *sessions.Entry) error {
		book, err := entry.Library.Book(c.Param("id"))
		if err != nil {
			return err
		}
		errata := book.Errata()
		if err := entities.SortErrata(errata, key); err != nil {
			return err
		}
		resp = BookErrataResponse{
			Book:   summarize(book),
			Sort:   key,
			Errata: make([]entities.Erratum, 0, len(errata)),
		}
		for _, e := range errata {
			resp.Errata = append(resp.Errata, *e)
		}
		return nil
	})
	if err != nil {
		respondLibraryError(c, err, "list errata")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateErratum edits the correction of an erratum. Only the in-memory
// library changes; the highlights file keeps the original annotation.
// PATCH /api/books/:id/errata/:erratumId
func (bc *BooksController) UpdateErratum(c *gin.Context) {
	var req updateErratumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "correction is required")
		return
	}

	var updated entities.Erratum
	err := bc.libs.with(c, func(entry *sessions.Entry) error {
		book, err := entry.Library.Book(c.Param("id"))
		if err != nil {
			return err
		}
		id := c.Param("erratumId")
		if err := book.SetCorrection(id, strings.TrimSpace(*req.Correction)); err != nil {
			return err
		}
		e, err := book.Erratum(id)
		if err != nil {
			return err
		}
		updated = *e
		return nil
	})
	if err != nil {
		respondLibraryError(c, err, "update erratum")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func summarize(book *entities.Book) BookSummary {
	return BookSummary{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		ErrataCount: book.Len(),
	}
}
