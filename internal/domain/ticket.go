package domain

import "time"

// TicketStatus enumerates lifecycle states for issue tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// IsTerminal reports whether the status accepts no further report merges.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Well-known issue categories. The set is open: unrecognized categories are
// normalized and stored as submitted.
const (
	CategoryNotWorking  = "not_working"
	CategoryDamaged     = "damaged"
	CategoryPerformance = "performance"
	CategoryOther       = "other"
)

// Ticket aggregates one or more reports about the same problem on one asset.
type Ticket struct {
	ID          string
	ExternalKey string
	AssetID     string
	Category    string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	MergedFrom  []string
	Reports     []ReportEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// ReportEntry is one individual submission folded into a ticket. Entries are
// owned by their ticket and ordered by Position; they have no lifecycle of
// their own.
type ReportEntry struct {
	ID                string
	TicketID          string
	Position          int
	ReporterName      string
	ReporterEmail     string
	ReporterPhone     *string
	Description       string
	Photos            []string
	DeviceFingerprint string
	IPAddress         string
	UserAgent         string
	CreatedAt         time.Time
}
