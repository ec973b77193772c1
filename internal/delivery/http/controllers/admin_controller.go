package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

// ListRegistrationsResponse is the data of GET /admin/registrations.
type ListRegistrationsResponse struct {
	Registrations []*domain.Registration `json:"registrations"`
	Pagination    helpers.PaginationMeta `json:"pagination"`
}

// ListRegistrationsSuccessResponse is the success response envelope for GET /admin/registrations (200).
type ListRegistrationsSuccessResponse struct {
	Data  ListRegistrationsResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// FlushResponse is the data of DELETE /admin/registrations.
type FlushResponse struct {
	Deleted int64 `json:"deleted"`
}

type AdminController struct {
	Logger        *slog.Logger
	Registrations domain.AdminRegistrationService
	Files         domain.FileService
	now           func() time.Time
}

func NewAdminController(logger *slog.Logger, regs domain.AdminRegistrationService, files domain.FileService) *AdminController {
	return &AdminController{
		Logger:        logger,
		Registrations: regs,
		Files:         files,
		now:           time.Now,
	}
}

func (c *AdminController) internalError(w http.ResponseWriter, r *http.Request, err error) {
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}

// ListRegistrations godoc
// @Summary List registrations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventId query string false "Only this event"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} controllers.ListRegistrationsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/registrations [get]
func (c *AdminController) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	regs, total, err := c.Registrations.List(r.Context(), r.URL.Query().Get("eventId"), params)
	if err != nil {
		c.internalError(w, r, err)
		return
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRegistrationsResponse{
		Registrations: regs,
		Pagination:    helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetRegistration godoc
// @Summary Get one registration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 200 {object} helpers.APIResponse "data contains the registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/registrations/{id} [get]
func (c *AdminController) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := c.Registrations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "registration not found")
			return
		}
		c.internalError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// DeleteRegistration godoc
// @Summary Delete one registration
// @Description Idempotent: deleting an absent registration also answers 204.
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/registrations/{id} [delete]
func (c *AdminController) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	if err := c.Registrations.Delete(r.Context(), r.PathValue("id")); err != nil {
		c.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FlushRegistrations godoc
// @Summary Delete registrations in bulk
// @Description Deletes every registration of eventId, or of all events when eventId is omitted.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventId query string false "Only this event"
// @Success 200 {object} helpers.APIResponse "data.deleted holds the number of removed registrations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/registrations [delete]
func (c *AdminController) FlushRegistrations(w http.ResponseWriter, r *http.Request) {
	n, err := c.Registrations.Flush(r.Context(), strings.TrimSpace(r.URL.Query().Get("eventId")))
	if err != nil {
		c.internalError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, FlushResponse{Deleted: n})
}

// ExportRegistrations godoc
// @Summary Export registrations as CSV
// @Tags admin
// @Produce text/csv
// @Security BearerAuth
// @Param eventId query string false "Only this event"
// @Success 200 {file} file
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/registrations/export.csv [get]
func (c *AdminController) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))
	var buf bytes.Buffer
	if err := c.Registrations.ExportCSV(r.Context(), eventID, &buf); err != nil {
		c.internalError(w, r, err)
		return
	}
	scope := eventID
	if scope == "" {
		scope = "all"
	}
	filename := fmt.Sprintf("registrations-%s-%s.csv", scope, c.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// DeleteFile godoc
// @Summary Delete a stored identity proof
// @Description Removes a database-stored file. Idempotent.
// @Tags admin
// @Security BearerAuth
// @Param filename path string true "Stored file name"
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/files/{filename} [delete]
func (c *AdminController) DeleteFile(w http.ResponseWriter, r *http.Request) {
	err := c.Files.Delete(r.Context(), r.PathValue("filename"))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.internalError(w, r, err)
		return
	}
	if err == nil {
		c.Logger.InfoContext(r.Context(), "file deleted", "filename", r.PathValue("filename"))
	}
	w.WriteHeader(http.StatusNoContent)
}
