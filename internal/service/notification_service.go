package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/jobs"
)

// AlertSeverity grades emitted alerts.
type AlertSeverity string

const (
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// Alert types emitted by the reconciliation engine.
const (
	AlertTypeLateArrival      = "late_arrival"
	AlertTypeEarlyDeparture   = "early_departure"
	AlertTypeContinuousAbsent = "continuous_absent"
)

// AlertPayload is the queued alert message.
type AlertPayload struct {
	EmployeeID string        `json:"employee_id"`
	AlertType  string        `json:"alert_type"`
	Severity   AlertSeverity `json:"severity"`
	Message    string        `json:"message"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type alertDispatcher interface {
	Enqueue(job jobs.Job) error
}

// NotificationService is the fire-and-forget alert sink. Delivery failures
// never propagate to the mutation that raised the alert.
type NotificationService struct {
	queue   alertDispatcher
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the notification sink.
func NewNotificationService(queue alertDispatcher, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, metrics: metrics, logger: logger}
}

// Alert enqueues an alert for asynchronous delivery. It deliberately has no
// error return: failures are logged and counted, nothing more.
func (s *NotificationService) Alert(employeeID, alertType string, severity AlertSeverity, message string) {
	if s == nil {
		return
	}
	s.metrics.RecordAlert(alertType, string(severity))

	if s.queue == nil {
		s.logger.Sugar().Infow("alert", "employee_id", employeeID, "type", alertType, "severity", severity, "message", message)
		return
	}
	payload := AlertPayload{
		EmployeeID: employeeID,
		AlertType:  alertType,
		Severity:   severity,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
	job := jobs.Job{ID: uuid.NewString(), Type: alertType, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue alert", "employee_id", employeeID, "type", alertType, "error", err)
	}
}

// Deliver is the queue handler for alert jobs. Actual transport (mail,
// chat, push) hangs off this hook; the default implementation records the
// delivery in the log.
func (s *NotificationService) Deliver(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(AlertPayload)
	if !ok {
		return fmt.Errorf("unexpected alert payload type %T", job.Payload)
	}
	s.logger.Sugar().Infow("alert delivered",
		"employee_id", payload.EmployeeID,
		"type", payload.AlertType,
		"severity", payload.Severity,
		"message", payload.Message,
	)
	return nil
}
