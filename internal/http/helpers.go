package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/entities"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/sessions"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (parse errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Machine-readable error codes.
const (
	CodeParseError        = "parse_error"
	CodeUnsupportedFormat = "unsupported_format"
	CodeNotFound          = "not_found"
	CodeNoLibrary         = "no_library"
	CodeNoCorrections     = "no_corrections"
	CodeNotModified       = "not_modified"
	CodeFileTooLarge      = "file_too_large"
	CodeInvalidSortKey    = "invalid_sort_key"
	CodeTooManyUploads    = "too_many_uploads"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	slog.Error("internal error", "context", context, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondLibraryError maps errors from the library layer to HTTP responses.
func respondLibraryError(c *gin.Context, err error, context string) {
	var parseErr *library.ParseError
	switch {
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "the highlights file could not be read",
			Code:    CodeParseError,
			Details: parseErr.Err.Error(),
		})
	case errors.Is(err, library.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  CodeUnsupportedFormat,
		})
	case errors.Is(err, sessions.ErrNoLibrary):
		respondError(c, http.StatusConflict, CodeNoLibrary, "no highlights file has been uploaded")
	case errors.Is(err, entities.ErrInvalidSortKey):
		respondError(c, http.StatusBadRequest, CodeInvalidSortKey, err.Error())
	case errors.Is(err, library.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// idsRequest is the body of endpoints acting on a selection of errata.
type idsRequest struct {
	IDs []string `json:"ids"`
}

// bindIDs decodes an optional {"ids": [...]} body. An empty body yields no
// ids.
func bindIDs(c *gin.Context) ([]string, bool) {
	var req idsRequest
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return nil, false
	}
	return req.IDs, true
}
