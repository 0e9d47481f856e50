package handlers

import (
	"io"
	"net/http"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// UploadHandlers handles image uploads to object storage
type UploadHandlers struct {
	uploadSvc services.UploadService
}

func NewUploadHandlers(uploadSvc services.UploadService) *UploadHandlers {
	return &UploadHandlers{uploadSvc: uploadSvc}
}

func (h *UploadHandlers) Register(g *echo.Group, gate *middleware.RBACMiddleware) {
	g.POST("/uploads", h.UploadImage, gate.Require("upload.create"))
	g.DELETE("/uploads", h.DeleteImage, gate.Require("upload.delete"))
}

// UploadImage stores a multipart "image" file under the requested folder
func (h *UploadHandlers) UploadImage(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, services.MaxUploadSize+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendAppError(c, common.NewValidationError("image", "image file is required"))
	}
	src, err := file.Open()
	if err != nil {
		return common.SendAppError(c, err)
	}
	defer src.Close()

	// Sniff the type from content rather than trusting the client header.
	buffer := make([]byte, 512)
	n, err := io.ReadFull(src, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return common.SendAppError(c, common.NewValidationError("image", "unreadable image file"))
	}
	contentType := http.DetectContentType(buffer[:n])
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return common.SendAppError(c, err)
	}

	url, err := h.uploadSvc.UploadImage(c.Request().Context(), c.FormValue("folder"), contentType, src, file.Size)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, map[string]string{"url": url})
}

func (h *UploadHandlers) DeleteImage(c echo.Context) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	if err := h.uploadSvc.Delete(c.Request().Context(), req.URL); err != nil {
		return common.SendAppError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
