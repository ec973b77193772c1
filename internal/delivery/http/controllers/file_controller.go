package controllers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

type FileController struct {
	Logger *slog.Logger
	Files  domain.FileService
}

func NewFileController(logger *slog.Logger, files domain.FileService) *FileController {
	return &FileController{
		Logger: logger,
		Files:  files,
	}
}

// ServeFile godoc
// @Summary Download an uploaded identity proof
// @Description Serves files stored by the database file sink.
// @Tags files
// @Produce octet-stream
// @Param filename path string true "Stored file name"
// @Success 200 {file} file
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /files/{filename} [get]
func (c *FileController) ServeFile(w http.ResponseWriter, r *http.Request) {
	f, err := c.Files.Get(r.Context(), r.PathValue("filename"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "file not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": f.Filename}))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}
