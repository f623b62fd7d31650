package health

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

func TestCanAcceptReport(t *testing.T) {
	is := is.New(t)

	for _, status := range []domain.AssetStatus{
		domain.AssetStatusAvailable,
		domain.AssetStatusInUse,
		domain.AssetStatusWorking,
		domain.AssetStatusNeedsRepair,
		domain.AssetStatusOutOfService,
	} {
		is.True(CanAcceptReport(&domain.Asset{Status: status}))
	}

	is.True(!CanAcceptReport(&domain.Asset{Status: domain.AssetStatusUnderMaintenance}))
	is.True(!CanAcceptReport(&domain.Asset{Status: domain.AssetStatusRetired}))
}

func TestEnterMaintenanceSetsFields(t *testing.T) {
	is := is.New(t)
	completed := testNow.AddDate(0, -2, 0)
	asset := testAsset(5, nil)
	asset.MaintenanceCompletedDate = &completed

	ev := Evaluate(asset, 0, testNow, DefaultThresholds())
	is.True(ev.RecommendsMaintenance())

	err := EnterMaintenance(asset, ev, testNow)
	is.NoErr(err)

	is.Equal(asset.Status, domain.AssetStatusUnderMaintenance)
	is.Equal(asset.Condition, domain.ConditionPoor)
	is.True(asset.MaintenanceReason != nil)
	is.True(*asset.MaintenanceReason != "")
	is.Equal(*asset.MaintenanceStartDate, testNow)
	is.Equal(asset.MaintenanceCompletedDate, (*time.Time)(nil))
	is.Equal(*asset.LastHealthCheck, testNow)
}

func TestEnterMaintenanceRejectsRetired(t *testing.T) {
	is := is.New(t)
	asset := testAsset(5, nil)
	asset.Status = domain.AssetStatusRetired

	err := EnterMaintenance(asset, Evaluation{}, testNow)
	is.Equal(err, domain.ErrAssetRetired)
	is.Equal(asset.Status, domain.AssetStatusRetired)
}

func TestEnterMaintenanceRejectsAlreadyUnderMaintenance(t *testing.T) {
	is := is.New(t)
	asset := testAsset(5, nil)
	asset.Status = domain.AssetStatusUnderMaintenance

	err := EnterMaintenance(asset, Evaluation{}, testNow)
	is.Equal(err, domain.ErrAssetUnderMaintenance)
}

func TestCompleteMaintenanceRestoresWorking(t *testing.T) {
	is := is.New(t)
	asset := testAsset(5, nil)
	is.NoErr(EnterMaintenance(asset, Evaluate(asset, 0, testNow, DefaultThresholds()), testNow))

	done := testNow.AddDate(0, 0, 3)
	err := CompleteMaintenance(asset, done)
	is.NoErr(err)

	is.Equal(asset.Status, domain.AssetStatusWorking)
	is.Equal(*asset.MaintenanceCompletedDate, done)
	is.Equal(asset.MaintenanceReason, (*string)(nil))
	is.Equal(asset.MaintenanceStartDate, (*time.Time)(nil))
	is.Equal(*asset.LastHealthCheck, done)
}

func TestCompleteMaintenanceRejectsNormalAsset(t *testing.T) {
	is := is.New(t)
	asset := testAsset(1, nil)

	err := CompleteMaintenance(asset, testNow)
	is.Equal(err, domain.ErrNotUnderMaintenance)
	is.Equal(asset.Status, domain.AssetStatusInUse)
}

func TestRefreshTouchesOnlyHealthCheck(t *testing.T) {
	is := is.New(t)
	asset := testAsset(5, nil)
	is.NoErr(EnterMaintenance(asset, Evaluate(asset, 0, testNow, DefaultThresholds()), testNow))

	later := testNow.AddDate(0, 0, 20)
	info := Refresh(asset, later, DefaultThresholds())

	is.Equal(asset.Status, domain.AssetStatusUnderMaintenance)
	is.Equal(*asset.LastHealthCheck, later)
	is.Equal(info.DaysUnderMaintenance, 20)
	is.True(info.IsOverdue)
}

func TestMaintenanceStatusWithinOverdueWindow(t *testing.T) {
	is := is.New(t)
	asset := testAsset(5, nil)
	start := testNow.AddDate(0, 0, -5)
	asset.Status = domain.AssetStatusUnderMaintenance
	asset.MaintenanceStartDate = &start

	info := MaintenanceStatus(asset, testNow, DefaultThresholds())
	is.Equal(info.DaysUnderMaintenance, 5)
	is.True(!info.IsOverdue)
}

func TestMaintenanceStatusWithoutStartDate(t *testing.T) {
	is := is.New(t)

	info := MaintenanceStatus(testAsset(1, nil), testNow, DefaultThresholds())
	is.Equal(info, MaintenanceInfo{})
}
