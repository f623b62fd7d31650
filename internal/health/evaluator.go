package health

import (
	"fmt"
	"time"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

// Evaluation is the outcome of one health check for one asset.
type Evaluation struct {
	Condition         domain.AssetCondition
	RecommendedStatus domain.AssetStatus
	Reasons           []string
}

// RecommendsMaintenance reports whether the evaluation asks for the asset
// to be placed under maintenance.
func (e Evaluation) RecommendsMaintenance() bool {
	return e.RecommendedStatus == domain.AssetStatusUnderMaintenance
}

// Evaluate grades an asset from its attributes and the number of currently
// open issues. Rules are checked most-severe first; the first match wins.
// Assets already under maintenance are not graded here: their exit is an
// explicit operator action handled by the state machine.
func Evaluate(asset *domain.Asset, openIssues int, now time.Time, th Thresholds) Evaluation {
	age := ageInYears(asset.PurchaseDate, now)

	switch {
	case openIssues >= th.OpenIssuesCritical || age >= th.AgeCriticalYears:
		ev := Evaluation{
			Condition:         domain.ConditionCritical,
			RecommendedStatus: domain.AssetStatusUnderMaintenance,
		}
		if openIssues >= th.OpenIssuesCritical {
			ev.Reasons = append(ev.Reasons, fmt.Sprintf("open issues %d reached critical threshold %d", openIssues, th.OpenIssuesCritical))
		}
		if age >= th.AgeCriticalYears {
			ev.Reasons = append(ev.Reasons, fmt.Sprintf("asset age %d years reached critical threshold %d", age, th.AgeCriticalYears))
		}
		return ev

	case openIssues >= th.OpenIssuesMaintenance || age >= th.AgeMaintenanceYears:
		ev := Evaluation{
			Condition:         domain.ConditionPoor,
			RecommendedStatus: domain.AssetStatusUnderMaintenance,
		}
		if openIssues >= th.OpenIssuesMaintenance {
			ev.Reasons = append(ev.Reasons, fmt.Sprintf("open issues %d reached maintenance threshold %d", openIssues, th.OpenIssuesMaintenance))
		}
		if age >= th.AgeMaintenanceYears {
			ev.Reasons = append(ev.Reasons, fmt.Sprintf("asset age %d years reached maintenance threshold %d", age, th.AgeMaintenanceYears))
		}
		return ev

	case openIssues >= th.OpenIssuesWarning || expiryWithinWindow(asset, now, th.WarrantyExpiryDays):
		// Warning only: condition degrades but no maintenance is forced.
		ev := Evaluation{
			Condition:         domain.ConditionFair,
			RecommendedStatus: asset.Status,
		}
		if openIssues >= th.OpenIssuesWarning {
			ev.Reasons = append(ev.Reasons, fmt.Sprintf("warning: open issues %d reached threshold %d", openIssues, th.OpenIssuesWarning))
		}
		if expiryWithinWindow(asset, now, th.WarrantyExpiryDays) {
			ev.Reasons = append(ev.Reasons, fmt.Sprintf("warning: warranty expires within %d days (%d days remaining)", th.WarrantyExpiryDays, daysUntilExpiry(asset, now)))
		}
		return ev

	case openIssues == 0 && age < 1 && underWarranty(asset, now):
		return Evaluation{
			Condition:         domain.ConditionExcellent,
			RecommendedStatus: asset.Status,
		}

	default:
		return Evaluation{
			Condition:         domain.ConditionGood,
			RecommendedStatus: asset.Status,
		}
	}
}

// ageInYears returns whole elapsed years between purchase and now.
func ageInYears(purchase, now time.Time) int {
	if now.Before(purchase) {
		return 0
	}
	years := now.Year() - purchase.Year()
	anniversary := purchase.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// nearestExpiry picks the earlier of warranty and AMC expiry, nil when the
// asset carries neither.
func nearestExpiry(asset *domain.Asset) *time.Time {
	switch {
	case asset.WarrantyExpiry == nil:
		return asset.AMCExpiry
	case asset.AMCExpiry == nil:
		return asset.WarrantyExpiry
	case asset.AMCExpiry.Before(*asset.WarrantyExpiry):
		return asset.AMCExpiry
	default:
		return asset.WarrantyExpiry
	}
}

// daysUntilExpiry is negative once the cover has already lapsed.
func daysUntilExpiry(asset *domain.Asset, now time.Time) int {
	expiry := nearestExpiry(asset)
	if expiry == nil {
		return 0
	}
	return int(expiry.Sub(now).Hours() / 24)
}

// expiryWithinWindow treats an already expired cover the same as one about
// to expire.
func expiryWithinWindow(asset *domain.Asset, now time.Time, windowDays int) bool {
	if nearestExpiry(asset) == nil {
		return false
	}
	return daysUntilExpiry(asset, now) <= windowDays
}

func underWarranty(asset *domain.Asset, now time.Time) bool {
	expiry := nearestExpiry(asset)
	return expiry != nil && expiry.After(now)
}
