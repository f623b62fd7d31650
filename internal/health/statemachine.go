package health

import (
	"strings"
	"time"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

// The maintenance state machine owns the asset's operational status. The
// only states it moves between are the normal operating statuses and
// UNDER_MAINTENANCE; RETIRED is terminal and never entered or exited here.

// MaintenanceInfo describes an asset currently being serviced.
type MaintenanceInfo struct {
	DaysUnderMaintenance int
	IsOverdue            bool
}

// CanAcceptReport is the single intake gate: assets being serviced or
// retired accept no new reports.
func CanAcceptReport(asset *domain.Asset) bool {
	return asset.Status != domain.AssetStatusUnderMaintenance && asset.Status != domain.AssetStatusRetired
}

// EnterMaintenance transitions a normally operating asset into maintenance
// using the evaluator's findings. Stale completion dates from a previous
// cycle are cleared.
func EnterMaintenance(asset *domain.Asset, ev Evaluation, now time.Time) error {
	if asset.IsRetired() {
		return domain.ErrAssetRetired
	}
	if asset.IsUnderMaintenance() {
		return domain.ErrAssetUnderMaintenance
	}
	reason := strings.Join(ev.Reasons, "; ")
	asset.Status = domain.AssetStatusUnderMaintenance
	asset.Condition = ev.Condition
	asset.MaintenanceReason = &reason
	asset.MaintenanceStartDate = &now
	asset.MaintenanceCompletedDate = nil
	asset.LastHealthCheck = &now
	return nil
}

// CompleteMaintenance is the explicit operator transition back to normal
// operation. The caller must re-evaluate the asset afterwards so the
// condition never stays at its pre-maintenance grade.
func CompleteMaintenance(asset *domain.Asset, now time.Time) error {
	if !asset.IsUnderMaintenance() {
		return domain.ErrNotUnderMaintenance
	}
	asset.Status = domain.AssetStatusWorking
	asset.MaintenanceCompletedDate = &now
	asset.MaintenanceReason = nil
	asset.MaintenanceStartDate = nil
	asset.LastHealthCheck = &now
	return nil
}

// Refresh re-checks an asset that is already under maintenance. The status
// is left alone; only the health-check timestamp moves. The returned info
// flags services that have run past the overdue window.
func Refresh(asset *domain.Asset, now time.Time, th Thresholds) MaintenanceInfo {
	asset.LastHealthCheck = &now
	return MaintenanceStatus(asset, now, th)
}

// MaintenanceStatus computes how long an asset has been under maintenance
// without mutating it.
func MaintenanceStatus(asset *domain.Asset, now time.Time, th Thresholds) MaintenanceInfo {
	if asset.MaintenanceStartDate == nil {
		return MaintenanceInfo{}
	}
	days := int(now.Sub(*asset.MaintenanceStartDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return MaintenanceInfo{
		DaysUnderMaintenance: days,
		IsOverdue:            days > th.MaintenanceOverdueDays,
	}
}
