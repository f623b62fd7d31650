package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/events"
	"github.com/spec-kit/asset-health-service/internal/health"
	"github.com/spec-kit/asset-health-service/internal/observability"
	"github.com/spec-kit/asset-health-service/internal/ratelimit"
	"github.com/spec-kit/asset-health-service/internal/repository"
	"github.com/spec-kit/asset-health-service/pkg/util/errorutil"
)

// RateLimiter gates intake per (device fingerprint, asset) pair.
type RateLimiter interface {
	CheckAndRecord(ctx context.Context, fingerprint, assetID string, now time.Time, meta ratelimit.Metadata) (ratelimit.Result, error)
}

// ReportInput is one submitted problem report, authenticated or QR-originated.
type ReportInput struct {
	AssetID           string
	ReporterName      string
	ReporterEmail     string
	ReporterPhone     *string
	Description       string
	Category          string
	Photos            []string
	DeviceFingerprint string
	IPAddress         string
	UserAgent         string
}

// IntakeResult is a successful submission outcome.
type IntakeResult struct {
	Ticket *domain.Ticket
	// Merged is true when the report was folded into an existing ticket
	// rather than opening a new one.
	Merged bool
}

// IntakeService runs the report intake pipeline: asset gate, rate limit,
// deduplication, persistence.
type IntakeService struct {
	assets     repository.AssetRepository
	tickets    repository.TicketRepository
	dedup      *Deduplicator
	limiter    RateLimiter
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	AssetRepo  repository.AssetRepository
	TicketRepo repository.TicketRepository
	Limiter    RateLimiter
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		assets:     deps.AssetRepo,
		tickets:    deps.TicketRepo,
		dedup:      NewDeduplicator(deps.TicketRepo),
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// HandleReport runs the intake pipeline for one report. Checks fail fast in
// a fixed order: payload validity, asset existence, retirement, maintenance
// gate, rate limit, then deduplicated persistence.
func (s *IntakeService) HandleReport(ctx context.Context, input ReportInput) (*IntakeResult, error) {
	if err := validateReport(input); err != nil {
		return nil, err
	}
	now := s.now()

	asset, err := s.assets.GetByID(ctx, input.AssetID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errorutil.NewNotFound("asset", map[string]any{"asset_id": input.AssetID})
	}
	if err != nil {
		return nil, errorutil.NewStoreUnavailable(err)
	}
	if asset.IsRetired() {
		s.metrics.RecordIntake(observability.IntakeGateBlocked)
		return nil, errorutil.NewAssetRetired(asset.ID)
	}
	if !health.CanAcceptReport(asset) {
		s.metrics.RecordIntake(observability.IntakeGateBlocked)
		return nil, errorutil.NewAssetUnderMaintenance(asset.ID)
	}

	limit, err := s.limiter.CheckAndRecord(ctx, input.DeviceFingerprint, asset.ID, now, ratelimit.Metadata{
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, errorutil.NewStoreUnavailable(err)
	}
	if !limit.Allowed {
		s.metrics.RecordIntake(observability.IntakeThrottled)
		return nil, errorutil.NewRateLimited(int(limit.RetryAfter.Seconds()))
	}

	// The rate-limit record is written; a client disconnect must not lose
	// the submission now, so the rest of the pipeline ignores cancellation.
	ctx = context.WithoutCancel(ctx)

	entry := &domain.ReportEntry{
		ReporterName:      strings.TrimSpace(input.ReporterName),
		ReporterEmail:     strings.TrimSpace(input.ReporterEmail),
		ReporterPhone:     input.ReporterPhone,
		Description:       strings.TrimSpace(input.Description),
		Photos:            input.Photos,
		DeviceFingerprint: input.DeviceFingerprint,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
	}
	if entry.Photos == nil {
		entry.Photos = []string{}
	}

	category := NormalizeCategory(input.Category)
	ticket, merged, err := s.dedup.Submit(ctx, asset, category, entry)
	if err != nil {
		s.metrics.RecordIntake(observability.IntakeRejected)
		return nil, mapSubmitError(err, asset.ID)
	}

	if merged {
		s.metrics.RecordIntake(observability.IntakeMerged)
		s.publish(ctx, events.Event{
			Type:     events.EventReportMerged,
			AssetID:  asset.ID,
			TicketID: ticket.ID,
			Payload: events.ReportMergedPayload{
				TicketKey:   ticket.ExternalKey,
				Category:    ticket.Category,
				ReportCount: len(ticket.Reports),
			},
		})
	} else {
		s.metrics.RecordIntake(observability.IntakeCreated)
		s.publish(ctx, events.Event{
			Type:     events.EventTicketCreated,
			AssetID:  asset.ID,
			TicketID: ticket.ID,
			Payload: events.TicketCreatedPayload{
				TicketKey: ticket.ExternalKey,
				Category:  ticket.Category,
				Priority:  ticket.Priority,
				Title:     ticket.Title,
			},
		})
	}

	return &IntakeResult{Ticket: ticket, Merged: merged}, nil
}

// TicketByKey returns a ticket with its full report sequence.
func (s *IntakeService) TicketByKey(ctx context.Context, key string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByExternalKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errorutil.NewNotFound("ticket", map[string]any{"ticket_key": key})
	}
	return ticket, err
}

// OpenTicketsForAsset lists non-terminal tickets for one asset, reports
// included.
func (s *IntakeService) OpenTicketsForAsset(ctx context.Context, assetID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListOpenByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		reports, err := s.tickets.ListReports(ctx, tickets[i].ID)
		if err != nil {
			return nil, err
		}
		tickets[i].Reports = reports
	}
	return tickets, nil
}

func validateReport(input ReportInput) error {
	missing := map[string]any{}
	if _, err := uuid.Parse(input.AssetID); err != nil {
		return errorutil.NewValidationError("asset_id must be a valid id", nil)
	}
	if strings.TrimSpace(input.ReporterName) == "" {
		missing["reporter_name"] = "required"
	}
	email := strings.TrimSpace(input.ReporterEmail)
	if email == "" {
		missing["reporter_email"] = "required"
	} else if !strings.Contains(email, "@") {
		missing["reporter_email"] = "invalid"
	}
	if strings.TrimSpace(input.Description) == "" {
		missing["description"] = "required"
	}
	if strings.TrimSpace(input.DeviceFingerprint) == "" {
		missing["device_fingerprint"] = "required"
	}
	if len(missing) > 0 {
		return errorutil.NewValidationError("invalid report payload", missing)
	}
	return nil
}

func mapSubmitError(err error, assetID string) error {
	switch {
	case errors.Is(err, domain.ErrAssetUnderMaintenance):
		// Lost the race against a sweep transition; the gate answer at
		// write time wins.
		return errorutil.NewAssetUnderMaintenance(assetID)
	case errors.Is(err, domain.ErrAssetRetired):
		return errorutil.NewAssetRetired(assetID)
	case errors.Is(err, domain.ErrNotFound):
		return errorutil.NewNotFound("asset", map[string]any{"asset_id": assetID})
	case errors.Is(err, domain.ErrDuplicateOpenTicket):
		return errorutil.NewConflict("concurrent submissions collided, retry the report", nil)
	default:
		return errorutil.NewStoreUnavailable(err)
	}
}

func (s *IntakeService) publish(ctx context.Context, event events.Event) {
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
