package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/audit"
	"github.com/mrlokans/erratas/internal/entities"
	"github.com/mrlokans/erratas/internal/logging"
	"github.com/mrlokans/erratas/internal/sessions"
	"github.com/mrlokans/erratas/internal/utils"
)

// SkippedHeader lists, comma separated, requested errata that were left out
// of a report because they do not belong to the book.
const SkippedHeader = "X-Erratas-Skipped"

// DeleteResponse reports the state of a book after a deletion.
type DeleteResponse struct {
	Deleted    int  `json:"deleted"`
	Remaining  int  `json:"remaining"`
	BookExists bool `json:"book_exists"`
	Books      int  `json:"books"`
}

type ErrataController struct {
	libs         sessionLibraries
	auditService *audit.Service
	logger       *slog.Logger
}

func NewErrataController(cfg RouterConfig) *ErrataController {
	return &ErrataController{
		libs:         sessionLibraries{manager: cfg.SessionManager, store: cfg.Libraries},
		auditService: cfg.AuditService,
		logger:       cfg.Logger.With(logging.FieldComponent, "http"),
	}
}

// Report renders the errata report of a book. Without ids every erratum of
// the book is reported.
// POST /api/books/:id/report
func (ec *ErrataController) Report(c *gin.Context) {
	ids, ok := bindIDs(c)
	if !ok {
		return
	}

	var (
		report   entities.Report
		title    string
		bookID   = c.Param("id")
		selected int
	)
	err := ec.libs.with(c, func(entry *sessions.Entry) error {
		book, err := entry.Library.Book(bookID)
		if err != nil {
			return err
		}
		subset := selectErrata(book, ids)
		if !book.HasCorrections(subset) {
			return errNoCorrections
		}
		title = book.Title
		report = book.Report(subset)
		selected = len(subset)
		if selected == 0 {
			selected = book.Len()
		}
		return nil
	})
	if errors.Is(err, errNoCorrections) {
		respondError(c, http.StatusUnprocessableEntity, CodeNoCorrections, "none of the selected errata has a correction")
		return
	}
	if err != nil {
		respondLibraryError(c, err, "build report")
		return
	}

	session := ec.libs.key(c)
	for _, id := range report.Skipped {
		ec.logger.Warn("erratum does not belong to book, skipped from report",
			logging.FieldSession, session,
			logging.FieldBookID, bookID,
			logging.FieldErratumID, id,
		)
	}
	if ec.auditService != nil {
		ec.auditService.LogReport(session, bookID, selected-len(report.Skipped), report.Skipped)
	}

	if len(report.Skipped) > 0 {
		c.Header(SkippedHeader, strings.Join(report.Skipped, ","))
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", utils.ReportFilename(title)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report.Text))
}

// Delete removes errata from a book and from the session's working copy.
// Every id must belong to the book; otherwise nothing is deleted.
// POST /api/books/:id/errata/delete
func (ec *ErrataController) Delete(c *gin.Context) {
	ids, ok := bindIDs(c)
	if !ok {
		return
	}
	if len(ids) == 0 {
		respondBadRequest(c, "ids is required")
		return
	}

	bookID := c.Param("id")
	var resp DeleteResponse
	err := ec.libs.with(c, func(entry *sessions.Entry) error {
		book, err := entry.Library.Book(bookID)
		if err != nil {
			return err
		}

		errata := make([]*entities.Erratum, 0, len(ids))
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			e, err := book.Erratum(id)
			if err != nil {
				return err
			}
			errata = append(errata, e)
		}

		if err := entry.Library.DeleteErrata(book, errata); err != nil {
			return err
		}
		entry.Updated = true

		_, bookErr := entry.Library.Book(bookID)
		resp = DeleteResponse{
			Deleted:    len(errata),
			Remaining:  book.Len(),
			BookExists: bookErr == nil,
			Books:      len(entry.Library.Books()),
		}
		return nil
	})

	session := ec.libs.key(c)
	if ec.auditService != nil && !errors.Is(err, sessions.ErrNoLibrary) {
		ec.auditService.LogDelete(session, bookID, resp.Deleted, err)
	}
	if err != nil {
		respondLibraryError(c, err, "delete errata")
		return
	}

	ec.logger.Info("errata deleted",
		logging.FieldSession, session,
		logging.FieldBookID, bookID,
		logging.FieldDeleted, resp.Deleted,
	)
	c.JSON(http.StatusOK, resp)
}

var errNoCorrections = errors.New("no corrections selected")

// selectErrata resolves ids against book. Ids the book does not own are kept
// as bare errata so that the report can list them as skipped.
func selectErrata(book *entities.Book, ids []string) []*entities.Erratum {
	subset := make([]*entities.Erratum, 0, len(ids))
	for _, id := range ids {
		e, err := book.Erratum(id)
		if err != nil {
			e = &entities.Erratum{ID: id}
		}
		subset = append(subset, e)
	}
	return subset
}
