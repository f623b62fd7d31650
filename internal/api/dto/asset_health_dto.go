package dto

import (
	"time"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

// ThresholdsResponse echoes the active health policy.
type ThresholdsResponse struct {
	AgeCriticalYears       int `json:"age_critical_years"`
	AgeMaintenanceYears    int `json:"age_maintenance_years"`
	OpenIssuesWarning      int `json:"open_issues_warning"`
	OpenIssuesCritical     int `json:"open_issues_critical"`
	OpenIssuesMaintenance  int `json:"open_issues_maintenance"`
	WarrantyExpiryDays     int `json:"warranty_expiry_days"`
	MaintenanceOverdueDays int `json:"maintenance_overdue_days"`
}

// HealthSummaryResponse reports fleet condition counts.
type HealthSummaryResponse struct {
	Conditions map[string]int     `json:"conditions"`
	Thresholds ThresholdsResponse `json:"thresholds"`
}

// SweepResponse reports one check-all run.
type SweepResponse struct {
	Updated     int `json:"updated"`
	Maintenance int `json:"maintenance"`
	Critical    int `json:"critical"`
}

// AssetHealthResponse is the health view of one asset.
type AssetHealthResponse struct {
	ID                       string                `json:"id"`
	AssetTag                 string                `json:"asset_tag"`
	Name                     string                `json:"name"`
	Category                 string                `json:"category"`
	Status                   domain.AssetStatus    `json:"status"`
	Condition                domain.AssetCondition `json:"condition"`
	LastHealthCheck          *time.Time            `json:"last_health_check,omitempty"`
	MaintenanceReason        *string               `json:"maintenance_reason,omitempty"`
	MaintenanceStartDate     *time.Time            `json:"maintenance_start_date,omitempty"`
	MaintenanceCompletedDate *time.Time            `json:"maintenance_completed_date,omitempty"`
}

// MaintenanceAssetResponse lists one asset under maintenance.
type MaintenanceAssetResponse struct {
	AssetHealthResponse
	DaysUnderMaintenance int  `json:"days_under_maintenance"`
	IsOverdue            bool `json:"is_overdue"`
}

// CompleteMaintenanceRequest is the operator action payload.
type CompleteMaintenanceRequest struct {
	Status string `json:"status"`
}
