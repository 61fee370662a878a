package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/service"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
	"github.com/aku-labs/academy-api/pkg/response"
)

// LeadHandler exposes trial class lead endpoints.
type LeadHandler struct {
	leads *service.TrialLeadService
}

// NewLeadHandler constructs LeadHandler.
func NewLeadHandler(leads *service.TrialLeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

type leadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// List godoc
// @Summary List trial leads
// @Tags Leads
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by parent or child name"
// @Param dateFrom query string false "Trial date from (YYYY-MM-DD)"
// @Param dateTo query string false "Trial date to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	var filter models.TrialLeadFilter
	if status := c.Query("status"); status != "" {
		s := models.TrialLeadStatus(status)
		filter.Status = &s
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.DateFrom = queryDate(c, "dateFrom")
	filter.DateTo = queryDate(c, "dateTo")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	leads, pagination, err := h.leads.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leads, pagination)
}

// Get godoc
// @Summary Get a trial lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// Create godoc
// @Summary Create a trial lead manually
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body service.CreateLeadRequest true "Lead payload"
// @Success 201 {object} response.Envelope
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lead, err := h.leads.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lead)
}

// Update godoc
// @Summary Update a trial lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body service.UpdateLeadRequest true "Lead payload"
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	var req service.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lead, err := h.leads.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// UpdateStatus godoc
// @Summary Transition a trial lead status
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body leadStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /leads/{id}/status [put]
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req leadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lead, err := h.leads.UpdateStatus(c.Request.Context(), c.Param("id"), models.TrialLeadStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// Convert godoc
// @Summary Convert a trial lead into an enrolled student
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body service.ConvertLeadRequest true "Conversion payload"
// @Success 201 {object} response.Envelope
// @Router /leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	var req service.ConvertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.leads.Convert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Delete godoc
// @Summary Delete a trial lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 204
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	if err := h.leads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
