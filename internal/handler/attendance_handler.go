package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/service"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
	"github.com/aku-labs/academy-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param sessionId query string false "Filter by course session"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var filter models.AttendanceFilter
	filter.StudentID = c.Query("studentId")
	filter.CourseSessionID = c.Query("sessionId")
	filter.DateFrom = queryDate(c, "dateFrom")
	filter.DateTo = queryDate(c, "dateTo")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	records, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Mark godoc
// @Summary Mark attendance for a student
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Correct an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance record ID"
// @Param payload body service.UpdateAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req service.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete an attendance record and restore the class credit
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance record ID"
// @Success 204
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	if err := h.attendance.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkSession godoc
// @Summary Mark attendance for every enrolled student in a session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Course session ID"
// @Param payload body service.SessionAttendanceRequest true "Session attendance payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance [post]
func (h *AttendanceHandler) MarkSession(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SessionAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	marked, err := h.attendance.MarkSession(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"marked": marked}, nil)
}
