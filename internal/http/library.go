package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/audit"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/logging"
	"github.com/mrlokans/erratas/internal/sessions"
	"github.com/mrlokans/erratas/internal/utils"
)

const uploadFormField = "highlights_file"

// BookSummary is a book without its errata.
type BookSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	ErrataCount int    `json:"errata_count"`
}

// LibraryResponse describes the library loaded for a session.
type LibraryResponse struct {
	Filename string        `json:"filename"`
	Format   string        `json:"format"`
	Vendor   string        `json:"vendor"`
	Updated  bool          `json:"updated"`
	Books    []BookSummary `json:"books"`
}

type LibraryController struct {
	registry     *library.Registry
	libs         sessionLibraries
	auditService *audit.Service
	logger       *slog.Logger
	maxBytes     int64
	workspaceDir string
}

func NewLibraryController(cfg RouterConfig) *LibraryController {
	return &LibraryController{
		registry:     cfg.Registry,
		libs:         sessionLibraries{manager: cfg.SessionManager, store: cfg.Libraries},
		auditService: cfg.AuditService,
		logger:       cfg.Logger.With(logging.FieldComponent, "http"),
		maxBytes:     cfg.MaxUploadBytes,
		workspaceDir: cfg.WorkspaceDir,
	}
}

// Upload loads a highlights file into the caller's session, replacing any
// library uploaded before.
// POST /api/library
func (lc *LibraryController) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile(uploadFormField)
	if err != nil {
		respondBadRequest(c, "highlights file not provided")
		return
	}
	defer file.Close()

	if lc.maxBytes > 0 && header.Size > lc.maxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
			fmt.Sprintf("file too large (max %d MB)", lc.maxBytes/(1024*1024)))
		return
	}

	var reader io.Reader = file
	if lc.maxBytes > 0 {
		reader = io.LimitReader(file, lc.maxBytes+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		respondBadRequest(c, "failed to read highlights file")
		return
	}
	if lc.maxBytes > 0 && int64(len(raw)) > lc.maxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
			fmt.Sprintf("file too large (max %d MB)", lc.maxBytes/(1024*1024)))
		return
	}

	filename := utils.SanitizeFilename(header.Filename, "highlights")
	format := library.FormatFromFilename(filename)
	key := lc.libs.manager.EnsureLibraryKey(c.Request.Context())

	lib, err := lc.registry.Open(filename, raw, library.OpenOptions{
		TempDir: lc.workspaceDir,
		Logger:  lc.logger.With(logging.FieldSession, key),
	})
	if err != nil {
		if lc.auditService != nil && !errors.Is(err, library.ErrUnsupportedFormat) {
			lc.auditService.LogUpload(key, filename, format, 0, 0, err)
		}
		lc.logger.Warn("upload rejected",
			logging.FieldSession, key,
			logging.FieldFilename, filename,
			"error", err,
		)
		respondLibraryError(c, err, "open library")
		return
	}

	entry := lc.libs.store.Put(key, lib, filename)
	resp := libraryResponse(entry)

	if lc.auditService != nil {
		lc.auditService.LogUpload(key, filename, lib.Format(), len(resp.Books), countErrata(resp.Books), nil)
	}
	lc.logger.Info("library uploaded",
		logging.FieldSession, key,
		logging.FieldFilename, filename,
		logging.FieldFormat, lib.Format(),
		logging.FieldBooks, len(resp.Books),
	)

	respondCreated(c, resp)
}

// Show describes the caller's library
// GET /api/library
func (lc *LibraryController) Show(c *gin.Context) {
	var resp LibraryResponse
	err := lc.libs.with(c, func(entry *sessions.Entry) error {
		resp = libraryResponse(entry)
		return nil
	})
	if err != nil {
		respondLibraryError(c, err, "show library")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discard closes the caller's library and removes its working copy.
// DELETE /api/library
func (lc *LibraryController) Discard(c *gin.Context) {
	key := lc.libs.key(c)
	if key == "" {
		respondLibraryError(c, sessions.ErrNoLibrary, "discard library")
		return
	}
	if err := lc.libs.store.Remove(key); err != nil {
		respondLibraryError(c, err, "discard library")
		return
	}
	lc.logger.Info("library discarded", logging.FieldSession, key)
	respondSuccess(c, "Library discarded")
}

// Download sends the highlights file with every deletion applied, under
// the name it was uploaded with.
// GET /api/library/download
func (lc *LibraryController) Download(c *gin.Context) {
	var (
		data     []byte
		filename string
		updated  bool
	)
	err := lc.libs.with(c, func(entry *sessions.Entry) error {
		if !entry.Updated {
			return nil
		}
		updated = true
		filename = entry.Filename
		var err error
		data, err = entry.Library.Export()
		return err
	})
	if err != nil {
		respondLibraryError(c, err, "export library")
		return
	}
	if !updated {
		respondError(c, http.StatusConflict, CodeNotModified, "nothing has been deleted yet")
		return
	}

	if lc.auditService != nil {
		lc.auditService.LogDownload(lc.libs.key(c), filename)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func libraryResponse(entry *sessions.Entry) LibraryResponse {
	books := entry.Library.Books()
	summaries := make([]BookSummary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, summarize(b))
	}
	return LibraryResponse{
		Filename: entry.Filename,
		Format:   entry.Library.Format(),
		Vendor:   entry.Library.Vendor(),
		Updated:  entry.Updated,
		Books:    summaries,
	}
}

func countErrata(books []BookSummary) int {
	total := 0
	for _, b := range books {
		total += b.ErrataCount
	}
	return total
}
