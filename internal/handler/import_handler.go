package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/service"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
	"github.com/aku-labs/academy-api/pkg/response"
)

// ImportHandler exposes the spreadsheet student import endpoint.
type ImportHandler struct {
	imports      *service.ImportService
	maxBatchSize int
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService, maxBatchSize int) *ImportHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = 200
	}
	return &ImportHandler{imports: imports, maxBatchSize: maxBatchSize}
}

type importRowsRequest struct {
	Rows []service.ImportRow `json:"rows" binding:"required"`
}

// Students godoc
// @Summary Import students from a CSV upload or JSON rows
// @Tags Imports
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "CSV export of the enrollment form"
// @Success 200 {object} response.Envelope
// @Router /imports/students [post]
func (h *ImportHandler) Students(c *gin.Context) {
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file upload"))
			return
		}
		defer file.Close()

		summary, err := h.imports.ImportCSV(c.Request.Context(), file)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, summary, nil)
		return
	}

	var req importRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if len(req.Rows) > h.maxBatchSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batch exceeds the allowed size"))
		return
	}

	summary, err := h.imports.ImportRows(c.Request.Context(), req.Rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
