package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/service"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/response"
)

// AuditHandler exposes the audit trail read endpoints.
type AuditHandler struct {
	audits *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// ListForRecord handles GET /attendance/records/:id/audit.
func (h *AuditHandler) ListForRecord(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.audits.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
