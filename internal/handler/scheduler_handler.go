package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/dto"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/service"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/response"
)

// SchedulerHandler exposes administrative backfill triggers.
type SchedulerHandler struct {
	backfill *service.BackfillService
}

// NewSchedulerHandler constructs SchedulerHandler.
func NewSchedulerHandler(backfill *service.BackfillService) *SchedulerHandler {
	return &SchedulerHandler{backfill: backfill}
}

// RunRange handles POST /scheduler/backfill.
func (h *SchedulerHandler) RunRange(c *gin.Context) {
	var req dto.BackfillRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.backfill.RunRange(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RunDaily handles POST /scheduler/backfill/daily, forcing the pass the
// cadence loop would run after midnight.
func (h *SchedulerHandler) RunDaily(c *gin.Context) {
	summary, err := h.backfill.RunDaily(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
