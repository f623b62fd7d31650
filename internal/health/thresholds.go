package health

import "github.com/spec-kit/asset-health-service/internal/config"

// Thresholds is the immutable policy driving health evaluation. A value is
// built once at startup and passed into every evaluation, so tests and
// future per-tenant overrides can supply their own.
type Thresholds struct {
	AgeCriticalYears       int
	AgeMaintenanceYears    int
	OpenIssuesWarning      int
	OpenIssuesCritical     int
	OpenIssuesMaintenance  int
	WarrantyExpiryDays     int
	MaintenanceOverdueDays int
}

// FromConfig builds Thresholds from the loaded configuration.
func FromConfig(cfg config.ThresholdConfig) Thresholds {
	return Thresholds{
		AgeCriticalYears:       cfg.AgeCriticalYears,
		AgeMaintenanceYears:    cfg.AgeMaintenanceYears,
		OpenIssuesWarning:      cfg.OpenIssuesWarning,
		OpenIssuesCritical:     cfg.OpenIssuesCritical,
		OpenIssuesMaintenance:  cfg.OpenIssuesMaintenance,
		WarrantyExpiryDays:     cfg.WarrantyExpiryDays,
		MaintenanceOverdueDays: cfg.MaintenanceOverdueDays,
	}
}

// DefaultThresholds returns the stock policy used when no overrides are set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AgeCriticalYears:       7,
		AgeMaintenanceYears:    5,
		OpenIssuesWarning:      2,
		OpenIssuesCritical:     5,
		OpenIssuesMaintenance:  3,
		WarrantyExpiryDays:     30,
		MaintenanceOverdueDays: 14,
	}
}
