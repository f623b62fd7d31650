package dto

import (
	"time"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

// CreateIssueRequest is a public (QR-originated) or authenticated problem
// report submission.
type CreateIssueRequest struct {
	AssetID           string   `json:"asset_id"`
	ReporterName      string   `json:"reporter_name"`
	ReporterEmail     string   `json:"reporter_email"`
	ReporterPhone     *string  `json:"reporter_phone,omitempty"`
	Description       string   `json:"description"`
	Category          string   `json:"category,omitempty"`
	Photos            []string `json:"photos,omitempty"`
	DeviceFingerprint string   `json:"device_fingerprint,omitempty"`
}

// CreateIssueResponse reports the ticket a submission landed in.
type CreateIssueResponse struct {
	TicketID  string `json:"ticket_id"`
	TicketKey string `json:"ticket_key"`
	Merged    bool   `json:"merged"`
}

// ReportEntryResponse is one report within a ticket.
type ReportEntryResponse struct {
	Position     int       `json:"position"`
	ReporterName string    `json:"reporter_name"`
	Description  string    `json:"description"`
	Photos       []string  `json:"photos,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	TicketKey   string                `json:"ticket_key"`
	AssetID     string                `json:"asset_id"`
	Category    string                `json:"category"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	Reports     []ReportEntryResponse `json:"reports"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
