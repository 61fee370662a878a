package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/service"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
	"github.com/aku-labs/academy-api/pkg/response"
)

// ClassLogHandler exposes class log, activity and module endpoints.
type ClassLogHandler struct {
	logs *service.ClassLogService
}

// NewClassLogHandler constructs ClassLogHandler.
func NewClassLogHandler(logs *service.ClassLogService) *ClassLogHandler {
	return &ClassLogHandler{logs: logs}
}

// List godoc
// @Summary List class logs
// @Tags ClassLogs
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-logs [get]
func (h *ClassLogHandler) List(c *gin.Context) {
	var filter models.ClassLogFilter
	filter.StudentID = c.Query("studentId")
	filter.DateFrom = queryDate(c, "dateFrom")
	filter.DateTo = queryDate(c, "dateTo")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	logs, pagination, err := h.logs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Create godoc
// @Summary Create a class log entry
// @Tags ClassLogs
// @Accept json
// @Produce json
// @Param payload body service.ClassLogRequest true "Class log payload"
// @Success 201 {object} response.Envelope
// @Router /class-logs [post]
func (h *ClassLogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ClassLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.logs.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// Update godoc
// @Summary Update a class log entry
// @Tags ClassLogs
// @Accept json
// @Produce json
// @Param id path string true "Class log ID"
// @Param payload body service.ClassLogRequest true "Class log payload"
// @Success 200 {object} response.Envelope
// @Router /class-logs/{id} [put]
func (h *ClassLogHandler) Update(c *gin.Context) {
	var req service.ClassLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.logs.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a class log entry
// @Tags ClassLogs
// @Produce json
// @Param id path string true "Class log ID"
// @Success 204
// @Router /class-logs/{id} [delete]
func (h *ClassLogHandler) Delete(c *gin.Context) {
	if err := h.logs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListActivities godoc
// @Summary List catalogue activities
// @Tags ClassLogs
// @Produce json
// @Param area query string false "Filter by area"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ClassLogHandler) ListActivities(c *gin.Context) {
	activities, err := h.logs.ListActivities(c.Request.Context(), c.Query("area"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// CreateActivity godoc
// @Summary Create a catalogue activity
// @Tags ClassLogs
// @Accept json
// @Produce json
// @Param payload body service.ActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ClassLogHandler) CreateActivity(c *gin.Context) {
	var req service.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.logs.CreateActivity(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// UpdateActivity godoc
// @Summary Update a catalogue activity
// @Tags ClassLogs
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body service.ActivityRequest true "Activity payload"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ClassLogHandler) UpdateActivity(c *gin.Context) {
	var req service.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.logs.UpdateActivity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// ListModules godoc
// @Summary List curriculum modules
// @Tags ClassLogs
// @Produce json
// @Param active query bool false "Only active modules"
// @Success 200 {object} response.Envelope
// @Router /modules [get]
func (h *ClassLogHandler) ListModules(c *gin.Context) {
	modules, err := h.logs.ListModules(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// CreateModule godoc
// @Summary Create a curriculum module
// @Tags ClassLogs
// @Accept json
// @Produce json
// @Param payload body service.ModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /modules [post]
func (h *ClassLogHandler) CreateModule(c *gin.Context) {
	var req service.ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.logs.CreateModule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// UpdateModule godoc
// @Summary Update a curriculum module
// @Tags ClassLogs
// @Accept json
// @Produce json
// @Param id path string true "Module ID"
// @Param payload body service.ModuleRequest true "Module payload"
// @Success 200 {object} response.Envelope
// @Router /modules/{id} [put]
func (h *ClassLogHandler) UpdateModule(c *gin.Context) {
	var req service.ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.logs.UpdateModule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}
