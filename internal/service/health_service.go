package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/events"
	"github.com/spec-kit/asset-health-service/internal/health"
	"github.com/spec-kit/asset-health-service/internal/observability"
	"github.com/spec-kit/asset-health-service/internal/repository"
	"github.com/spec-kit/asset-health-service/pkg/util/errorutil"
)

// SweepResult summarizes one fleet-wide health sweep.
type SweepResult struct {
	Updated     int `json:"updated"`
	Maintenance int `json:"maintenance"`
	Critical    int `json:"critical"`
}

// MaintenanceAsset pairs an asset under maintenance with its service-time
// accounting.
type MaintenanceAsset struct {
	Asset                domain.Asset
	DaysUnderMaintenance int
	IsOverdue            bool
}

// HealthSummary reports fleet condition counts and the active policy.
type HealthSummary struct {
	Counts     map[domain.AssetCondition]int
	Thresholds health.Thresholds
}

// HealthService evaluates asset health and drives the maintenance state
// machine, both per asset and fleet-wide.
type HealthService struct {
	assets     repository.AssetRepository
	thresholds health.Thresholds
	workers    int
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// HealthDependencies bundles collaborators for the health service.
type HealthDependencies struct {
	AssetRepo  repository.AssetRepository
	Thresholds health.Thresholds
	Workers    int
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewHealthService constructs the service.
func NewHealthService(deps HealthDependencies) *HealthService {
	workers := deps.Workers
	if workers <= 0 {
		workers = 8
	}
	return &HealthService{
		assets:     deps.AssetRepo,
		thresholds: deps.Thresholds,
		workers:    workers,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// RunAll re-evaluates every non-retired asset and applies maintenance
// transitions. Assets are processed in parallel up to the worker bound;
// the per-asset row lock serializes against live intake and concurrent
// sweeps, which also makes back-to-back runs idempotent.
func (s *HealthService) RunAll(ctx context.Context) (SweepResult, error) {
	ids, err := s.assets.ListActiveIDs(ctx)
	if err != nil {
		return SweepResult{}, errorutil.NewStoreUnavailable(err)
	}
	now := s.now()

	var (
		mu     sync.Mutex
		result SweepResult
		failed int
	)
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(assetID string) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, err := s.sweepOne(ctx, assetID, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.logger.Warn("health sweep failed for asset", zap.String("asset_id", assetID), zap.Error(err))
				return
			}
			if outcome.changed {
				result.Updated++
			}
			if outcome.enteredMaintenance {
				result.Maintenance++
			}
			if outcome.critical {
				result.Critical++
			}
		}(id)
	}
	wg.Wait()

	s.metrics.RecordSweep(result.Updated)
	s.publish(ctx, events.Event{
		Type: events.EventSweepCompleted,
		Payload: events.SweepCompletedPayload{
			Updated:     result.Updated,
			Maintenance: result.Maintenance,
			Critical:    result.Critical,
		},
	})
	s.logger.Info("health sweep completed",
		zap.Int("assets", len(ids)),
		zap.Int("updated", result.Updated),
		zap.Int("maintenance", result.Maintenance),
		zap.Int("critical", result.Critical),
		zap.Int("failed", failed),
	)
	return result, nil
}

type sweepOutcome struct {
	changed            bool
	enteredMaintenance bool
	critical           bool
}

func (s *HealthService) sweepOne(ctx context.Context, assetID string, now time.Time) (sweepOutcome, error) {
	var outcome sweepOutcome
	var started *events.MaintenanceStartedPayload

	err := s.assets.UpdateLocked(ctx, assetID, func(asset *domain.Asset, openIssues int) error {
		if asset.IsRetired() {
			return nil
		}
		prevStatus, prevCondition := asset.Status, asset.Condition

		if asset.IsUnderMaintenance() {
			info := health.Refresh(asset, now, s.thresholds)
			if info.IsOverdue {
				s.logger.Warn("maintenance overdue",
					zap.String("asset_id", asset.ID),
					zap.Int("days", info.DaysUnderMaintenance),
				)
			}
		} else {
			ev := health.Evaluate(asset, openIssues, now, s.thresholds)
			if ev.RecommendsMaintenance() {
				if err := health.EnterMaintenance(asset, ev, now); err != nil {
					return err
				}
				outcome.enteredMaintenance = true
				started = &events.MaintenanceStartedPayload{
					Condition: asset.Condition,
					Reason:    derefString(asset.MaintenanceReason),
				}
			} else {
				asset.Condition = ev.Condition
				asset.LastHealthCheck = &now
			}
		}

		outcome.changed = asset.Status != prevStatus || asset.Condition != prevCondition
		outcome.critical = asset.Condition == domain.ConditionCritical
		return nil
	})
	if err != nil {
		return sweepOutcome{}, err
	}

	if started != nil {
		s.publish(ctx, events.Event{
			Type:    events.EventMaintenanceStarted,
			AssetID: assetID,
			Payload: *started,
		})
	}
	return outcome, nil
}

// CompleteMaintenance is the explicit operator transition back to normal
// operation. The asset is re-evaluated inside the same transaction so its
// condition never stays at the pre-maintenance grade.
func (s *HealthService) CompleteMaintenance(ctx context.Context, assetID string) (*domain.Asset, error) {
	now := s.now()
	var (
		updated *domain.Asset
		served  int
	)

	err := s.assets.UpdateLocked(ctx, assetID, func(asset *domain.Asset, openIssues int) error {
		info := health.MaintenanceStatus(asset, now, s.thresholds)
		if err := health.CompleteMaintenance(asset, now); err != nil {
			return err
		}
		ev := health.Evaluate(asset, openIssues, now, s.thresholds)
		asset.Condition = ev.Condition
		served = info.DaysUnderMaintenance

		snapshot := *asset
		updated = &snapshot
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, errorutil.NewNotFound("asset", map[string]any{"asset_id": assetID})
	case errors.Is(err, domain.ErrNotUnderMaintenance):
		return nil, errorutil.NewConflict("asset is not under maintenance", map[string]any{"asset_id": assetID})
	case err != nil:
		return nil, errorutil.NewStoreUnavailable(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventMaintenanceCompleted,
		AssetID: assetID,
		Payload: events.MaintenanceCompletedPayload{
			Condition:            updated.Condition,
			DaysUnderMaintenance: served,
		},
	})
	return updated, nil
}

// Summary returns fleet condition counts plus the active thresholds.
func (s *HealthService) Summary(ctx context.Context) (*HealthSummary, error) {
	counts, err := s.assets.ConditionCounts(ctx)
	if err != nil {
		return nil, errorutil.NewStoreUnavailable(err)
	}
	return &HealthSummary{Counts: counts, Thresholds: s.thresholds}, nil
}

// ListUnderMaintenance returns assets currently being serviced with their
// day counts and overdue flags.
func (s *HealthService) ListUnderMaintenance(ctx context.Context) ([]MaintenanceAsset, error) {
	assets, err := s.assets.ListUnderMaintenance(ctx)
	if err != nil {
		return nil, errorutil.NewStoreUnavailable(err)
	}
	now := s.now()
	result := make([]MaintenanceAsset, 0, len(assets))
	for i := range assets {
		info := health.MaintenanceStatus(&assets[i], now, s.thresholds)
		result = append(result, MaintenanceAsset{
			Asset:                assets[i],
			DaysUnderMaintenance: info.DaysUnderMaintenance,
			IsOverdue:            info.IsOverdue,
		})
	}
	return result, nil
}

func (s *HealthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
