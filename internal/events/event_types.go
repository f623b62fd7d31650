package events

import (
	"time"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventReportMerged         EventType = "report_merged"
	EventMaintenanceStarted   EventType = "asset_maintenance_started"
	EventMaintenanceCompleted EventType = "asset_maintenance_completed"
	EventSweepCompleted       EventType = "health_sweep_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AssetID   string      `json:"asset_id,omitempty"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketKey string                `json:"ticket_key"`
	Category  string                `json:"category"`
	Priority  domain.TicketPriority `json:"priority"`
	Title     string                `json:"title"`
}

// ReportMergedPayload payload.
type ReportMergedPayload struct {
	TicketKey   string `json:"ticket_key"`
	Category    string `json:"category"`
	ReportCount int    `json:"report_count"`
}

// MaintenanceStartedPayload payload.
type MaintenanceStartedPayload struct {
	Condition domain.AssetCondition `json:"condition"`
	Reason    string                `json:"reason"`
}

// MaintenanceCompletedPayload payload.
type MaintenanceCompletedPayload struct {
	Condition            domain.AssetCondition `json:"condition"`
	DaysUnderMaintenance int                   `json:"days_under_maintenance"`
}

// SweepCompletedPayload payload.
type SweepCompletedPayload struct {
	Updated     int `json:"updated"`
	Maintenance int `json:"maintenance"`
	Critical    int `json:"critical"`
}
