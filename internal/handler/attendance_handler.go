package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/dto"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/service"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/response"
)

// AttendanceHandler exposes the attendance endpoints.
type AttendanceHandler struct {
	reconciliation *service.ReconciliationService
	corrections    *service.CorrectionService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(reconciliation *service.ReconciliationService, corrections *service.CorrectionService) *AttendanceHandler {
	return &AttendanceHandler{reconciliation: reconciliation, corrections: corrections}
}

// CheckIn handles POST /attendance/check-in.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.reconciliation.RecordCheckIn(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// CheckOut handles POST /attendance/check-out.
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.reconciliation.RecordCheckOut(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// EditCheckIn handles PATCH /attendance/check-in.
func (h *AttendanceHandler) EditCheckIn(c *gin.Context) {
	var req dto.EditCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.corrections.EditCheckIn(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// EditCheckOut handles PATCH /attendance/check-out.
func (h *AttendanceHandler) EditCheckOut(c *gin.Context) {
	var req dto.EditCheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.corrections.EditCheckOut(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// EditBreak handles PATCH /attendance/break.
func (h *AttendanceHandler) EditBreak(c *gin.Context) {
	var req dto.EditBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.corrections.EditBreak(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// AddBreak handles POST /attendance/break.
func (h *AttendanceHandler) AddBreak(c *gin.Context) {
	var req dto.AddBreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.corrections.AddBreak(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SetOvertime handles PATCH /attendance/overtime.
func (h *AttendanceHandler) SetOvertime(c *gin.Context) {
	var req dto.SetOvertimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.corrections.SetOvertime(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Update handles PATCH /attendance/records/:id.
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	id := c.Param("id")
	req.RecordID = &id
	record, err := h.corrections.UpdateRecord(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete handles DELETE /attendance/records/:id.
func (h *AttendanceHandler) Delete(c *gin.Context) {
	var req dto.DeleteRecordRequest
	// Body is optional; only a reason may be supplied.
	_ = c.ShouldBindJSON(&req)
	id := c.Param("id")
	req.RecordID = &id
	if err := h.corrections.DeleteRecord(c.Request.Context(), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAbsent handles POST /attendance/mark-absent.
func (h *AttendanceHandler) MarkAbsent(c *gin.Context) {
	var req dto.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.corrections.MarkAbsent(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Get handles GET /attendance/records/:id.
func (h *AttendanceHandler) Get(c *gin.Context) {
	id := c.Param("id")
	record, err := h.corrections.GetRecord(c.Request.Context(), dto.RecordRef{RecordID: &id})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List handles GET /attendance/records.
func (h *AttendanceHandler) List(c *gin.Context) {
	var req dto.ListAttendanceRequest
	req.EmployeeID = c.Query("employeeId")
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	if from, ok := parseDateQuery(c, "dateFrom"); ok {
		req.DateFrom = from
	} else {
		return
	}
	if to, ok := parseDateQuery(c, "dateTo"); ok {
		req.DateTo = to
	} else {
		return
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}
	req.SortBy = c.Query("sort")
	req.SortOrder = c.Query("order")

	records, pagination, err := h.corrections.ListRecords(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter. On a bad
// value it writes the error response and reports false.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be formatted as YYYY-MM-DD"))
		return nil, false
	}
	return &t, true
}
