package domain

import "time"

// AssetStatus enumerates operational states for assets.
type AssetStatus string

const (
	AssetStatusAvailable        AssetStatus = "AVAILABLE"
	AssetStatusInUse            AssetStatus = "IN_USE"
	AssetStatusWorking          AssetStatus = "WORKING"
	AssetStatusNeedsRepair      AssetStatus = "NEEDS_REPAIR"
	AssetStatusOutOfService     AssetStatus = "OUT_OF_SERVICE"
	AssetStatusUnderMaintenance AssetStatus = "UNDER_MAINTENANCE"
	AssetStatusRetired          AssetStatus = "RETIRED"
)

// AssetCondition grades asset health, distinct from operational status.
type AssetCondition string

const (
	ConditionExcellent        AssetCondition = "EXCELLENT"
	ConditionGood             AssetCondition = "GOOD"
	ConditionFair             AssetCondition = "FAIR"
	ConditionPoor             AssetCondition = "POOR"
	ConditionCritical         AssetCondition = "CRITICAL"
	ConditionUnderMaintenance AssetCondition = "UNDER_MAINTENANCE"
)

// Asset is the tracked physical item. Identity and procurement fields are
// owned by the asset-management collaborator; this service mutates only the
// health and maintenance fields.
type Asset struct {
	ID                       string
	AssetTag                 string
	Name                     string
	Category                 string
	PurchaseDate             time.Time
	WarrantyExpiry           *time.Time
	AMCExpiry                *time.Time
	Status                   AssetStatus
	Condition                AssetCondition
	LastHealthCheck          *time.Time
	MaintenanceReason        *string
	MaintenanceStartDate     *time.Time
	MaintenanceCompletedDate *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// IsRetired reports whether the asset is permanently out of circulation.
func (a *Asset) IsRetired() bool {
	return a.Status == AssetStatusRetired
}

// IsUnderMaintenance reports whether the asset is currently being serviced.
func (a *Asset) IsUnderMaintenance() bool {
	return a.Status == AssetStatusUnderMaintenance
}
