package dto

import "time"

// CheckInRequest is the payload for recording a live check-in.
type CheckInRequest struct {
	EmployeeID          string     `json:"employeeId" validate:"required"`
	CheckInTime         time.Time  `json:"checkInTime" validate:"required"`
	ExpectedCheckInTime *time.Time `json:"expectedCheckInTime"`
	Date                *time.Time `json:"date"`
	Location            *string    `json:"location"`
	Latitude            *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude           *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Notes               *string    `json:"notes"`
}

// CheckOutRequest is the payload for recording a live check-out.
type CheckOutRequest struct {
	EmployeeID           string     `json:"employeeId" validate:"required"`
	CheckOutTime         time.Time  `json:"checkOutTime" validate:"required"`
	ExpectedCheckOutTime *time.Time `json:"expectedCheckOutTime"`
	Date                 *time.Time `json:"date"`
	Location             *string    `json:"location"`
	Latitude             *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude            *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Notes                *string    `json:"notes"`
}

// RecordRef resolves a target attendance record either by id or by the
// (employee, date) pair.
type RecordRef struct {
	RecordID   *string    `json:"recordId"`
	EmployeeID *string    `json:"employeeId"`
	Date       *time.Time `json:"date"`
}

// EditCheckInRequest replaces the stored check-in time.
type EditCheckInRequest struct {
	RecordRef
	CheckInTime         time.Time  `json:"checkInTime" validate:"required"`
	ExpectedCheckInTime *time.Time `json:"expectedCheckInTime"`
	Reason              *string    `json:"reason"`
}

// EditCheckOutRequest replaces the stored check-out time.
type EditCheckOutRequest struct {
	RecordRef
	CheckOutTime         time.Time  `json:"checkOutTime" validate:"required"`
	ExpectedCheckOutTime *time.Time `json:"expectedCheckOutTime"`
	Reason               *string    `json:"reason"`
}

// EditBreakRequest overwrites the accumulated break duration.
type EditBreakRequest struct {
	RecordRef
	BreakHours float64 `json:"breakHours"`
	Reason     *string `json:"reason"`
}

// AddBreakRequest appends a single break to an open work session.
type AddBreakRequest struct {
	RecordRef
	DurationHours float64 `json:"durationHours" validate:"required,gt=0"`
	BreakType     string  `json:"breakType" validate:"required"`
	Reason        *string `json:"reason"`
}

// SetOvertimeRequest sets the overtime duration directly.
type SetOvertimeRequest struct {
	RecordRef
	OvertimeHours float64 `json:"overtimeHours" validate:"min=0"`
	Reason        *string `json:"reason"`
}

// UpdateRecordRequest is the comprehensive partial update. It touches
// times, break, status and notes only; late/early/overtime derivations are
// left to the dedicated edit operations.
type UpdateRecordRequest struct {
	RecordRef
	CheckIn    *time.Time `json:"checkIn"`
	CheckOut   *time.Time `json:"checkOut"`
	BreakHours *float64   `json:"breakHours"`
	Status     *string    `json:"status"`
	Notes      *string    `json:"notes"`
	Reason     *string    `json:"reason"`
}

// DeleteRecordRequest removes a record and its dependent rows.
type DeleteRecordRequest struct {
	RecordRef
	Reason *string `json:"reason"`
}

// MarkAbsentRequest upserts an absent record for the employee and date.
type MarkAbsentRequest struct {
	EmployeeID string    `json:"employeeId" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	Reason     *string   `json:"reason"`
}

// ListAttendanceRequest filters the attendance list read path.
type ListAttendanceRequest struct {
	EmployeeID string     `json:"employeeId"`
	Status     *string    `json:"status" validate:"omitempty,attendance_status"`
	DateFrom   *time.Time `json:"dateFrom"`
	DateTo     *time.Time `json:"dateTo"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	SortBy     string     `json:"sortBy"`
	SortOrder  string     `json:"sortOrder"`
}
