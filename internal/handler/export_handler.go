package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/internal/service"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

type assessorExporter interface {
	AssessorSheet(ctx context.Context, actor models.Actor, gradebookID string, format service.ExportFormat) (*service.AssessorSheet, error)
}

// ExportHandler serves assessor sheet downloads.
type ExportHandler struct {
	exports assessorExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports assessorExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// AssessorSheet godoc
// @Summary Download the blank assessor sheet
// @Description Available to the assessment coordinator once the gradebook is hot_approved.
// @Tags Export
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Gradebook ID"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gradebooks/{id}/assessor-sheet [get]
func (h *ExportHandler) AssessorSheet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sheet, err := h.exports.AssessorSheet(c.Request.Context(), actor, c.Param("id"), service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, sheet.Filename, sheet.ContentType, sheet.Payload)
}
