package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/erratas/internal/library"
)

// FormatInfo describes an accepted highlights file format.
type FormatInfo struct {
	Format     string `json:"format"`
	Vendor     string `json:"vendor"`
	Extension  string `json:"extension"`
	UploadHelp string `json:"upload_help"`
}

type FormatsController struct {
	registry *library.Registry
}

func NewFormatsController(registry *library.Registry) *FormatsController {
	return &FormatsController{registry: registry}
}

// List returns every registered format
// GET /api/formats
func (fc *FormatsController) List(c *gin.Context) {
	descriptors := fc.registry.Descriptors()
	formats := make([]FormatInfo, 0, len(descriptors))
	for _, d := range descriptors {
		formats = append(formats, FormatInfo{
			Format:     d.Format,
			Vendor:     d.Vendor,
			Extension:  "." + d.Format,
			UploadHelp: d.UploadHelp,
		})
	}
	c.JSON(http.StatusOK, formats)
}
