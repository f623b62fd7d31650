package health

import (
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func testAsset(ageYears int, warranty *time.Time) *domain.Asset {
	return &domain.Asset{
		ID:             "asset-1",
		Name:           "Lab Projector",
		Category:       "projector",
		PurchaseDate:   testNow.AddDate(-ageYears, 0, 0),
		WarrantyExpiry: warranty,
		Status:         domain.AssetStatusInUse,
		Condition:      domain.ConditionGood,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluateCriticalByOpenIssues(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()

	ev := Evaluate(testAsset(1, nil), th.OpenIssuesCritical, testNow, th)

	is.Equal(ev.Condition, domain.ConditionCritical)
	is.Equal(ev.RecommendedStatus, domain.AssetStatusUnderMaintenance)
	is.True(len(ev.Reasons) == 1)
	is.True(strings.Contains(ev.Reasons[0], "critical"))
}

func TestEvaluateCriticalByAge(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()

	ev := Evaluate(testAsset(th.AgeCriticalYears, nil), 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionCritical)
	is.Equal(ev.RecommendedStatus, domain.AssetStatusUnderMaintenance)
}

func TestEvaluatePoorByOpenIssues(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()

	ev := Evaluate(testAsset(1, nil), th.OpenIssuesMaintenance, testNow, th)

	is.Equal(ev.Condition, domain.ConditionPoor)
	is.Equal(ev.RecommendedStatus, domain.AssetStatusUnderMaintenance)
}

func TestEvaluatePoorByAge(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()

	ev := Evaluate(testAsset(th.AgeMaintenanceYears, nil), 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionPoor)
	is.Equal(ev.RecommendedStatus, domain.AssetStatusUnderMaintenance)
}

func TestEvaluateFairWarningDoesNotForceMaintenance(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()
	asset := testAsset(2, nil)

	ev := Evaluate(asset, th.OpenIssuesWarning, testNow, th)

	is.Equal(ev.Condition, domain.ConditionFair)
	is.Equal(ev.RecommendedStatus, asset.Status)
	is.True(strings.Contains(ev.Reasons[0], "warning"))
}

func TestEvaluateFairWhenWarrantyNearExpiry(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()
	asset := testAsset(2, timePtr(testNow.AddDate(0, 0, th.WarrantyExpiryDays-5)))

	ev := Evaluate(asset, 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionFair)
	is.Equal(ev.RecommendedStatus, asset.Status)
}

func TestEvaluateExpiredWarrantyTreatedAsWithinWindow(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()
	asset := testAsset(2, timePtr(testNow.AddDate(0, -6, 0)))

	ev := Evaluate(asset, 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionFair)
}

func TestEvaluateAMCExpiryAlsoTriggersWarning(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()
	asset := testAsset(2, timePtr(testNow.AddDate(2, 0, 0)))
	asset.AMCExpiry = timePtr(testNow.AddDate(0, 0, 10))

	ev := Evaluate(asset, 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionFair)
}

func TestEvaluateExcellentForYoungCoveredAsset(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()
	asset := testAsset(0, timePtr(testNow.AddDate(3, 0, 0)))

	ev := Evaluate(asset, 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionExcellent)
	is.Equal(ev.RecommendedStatus, asset.Status)
}

func TestEvaluateGoodOtherwise(t *testing.T) {
	is := is.New(t)
	th := DefaultThresholds()
	asset := testAsset(2, timePtr(testNow.AddDate(3, 0, 0)))

	ev := Evaluate(asset, 0, testNow, th)

	is.Equal(ev.Condition, domain.ConditionGood)
	is.Equal(ev.RecommendedStatus, asset.Status)
}

func TestAgeInYearsFloorsPartialYears(t *testing.T) {
	is := is.New(t)

	is.Equal(ageInYears(testNow.AddDate(-3, 0, 1), testNow), 2)
	is.Equal(ageInYears(testNow.AddDate(-3, 0, 0), testNow), 3)
	is.Equal(ageInYears(testNow.AddDate(0, -8, 0), testNow), 0)
	is.Equal(ageInYears(testNow.AddDate(0, 1, 0), testNow), 0)
}
