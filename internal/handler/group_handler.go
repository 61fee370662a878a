package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/service"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
	"github.com/aku-labs/academy-api/pkg/response"
)

// GroupHandler exposes course group and enrollment endpoints.
type GroupHandler struct {
	groups *service.CourseGroupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups *service.CourseGroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List godoc
// @Summary List course groups
// @Tags Groups
// @Produce json
// @Param status query string false "Filter by group status"
// @Param courseId query string false "Filter by virtual course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	var filter models.CourseGroupFilter
	if status := c.Query("status"); status != "" {
		s := models.GroupStatus(status)
		filter.Status = &s
	}
	filter.CourseID = c.Query("courseId")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	groups, pagination, err := h.groups.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, pagination)
}

// Get godoc
// @Summary Get a group with sessions and enrollments
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create a course group with its session plan
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body service.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Update a course group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body service.UpdateGroupRequest true "Group payload"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.groups.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// RescheduleSession godoc
// @Summary Reschedule a group session
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.RescheduleSessionRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *GroupHandler) RescheduleSession(c *gin.Context) {
	var req service.RescheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.groups.RescheduleSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Enroll godoc
// @Summary Enroll a student in a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body service.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /groups/{id}/enrollments [post]
func (h *GroupHandler) Enroll(c *gin.Context) {
	var req service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.groups.Enroll(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// UpdateEnrollment godoc
// @Summary Update an enrollment's payment plan
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [put]
func (h *GroupHandler) UpdateEnrollment(c *gin.Context) {
	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.groups.UpdateEnrollment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// RemoveEnrollment godoc
// @Summary Remove a student from a group
// @Tags Groups
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *GroupHandler) RemoveEnrollment(c *gin.Context) {
	if err := h.groups.RemoveEnrollment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
