package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/events"
	"github.com/spec-kit/asset-health-service/internal/observability"
	"github.com/spec-kit/asset-health-service/pkg/util/errorutil"
)

const intakeAssetID = "c2a8f3de-6b41-4f6e-9a57-2d8e01b4c9aa"

var serviceNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type intakeFixture struct {
	svc     *IntakeService
	assets  *fakeAssetRepo
	tickets *fakeTicketRepo
	limiter *fakeLimiter
	metrics *observability.Metrics
	events  *recordedEvents
}

type recordedEvents struct {
	mu    sync.Mutex
	types []events.EventType
}

func (r *recordedEvents) record(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.Type)
	return nil
}

func (r *recordedEvents) count(t events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rt := range r.types {
		if rt == t {
			n++
		}
	}
	return n
}

func newIntakeFixture(t *testing.T, assets ...*domain.Asset) *intakeFixture {
	t.Helper()
	if len(assets) == 0 {
		assets = []*domain.Asset{{
			ID:           intakeAssetID,
			Name:         "Lecture Hall Projector",
			Category:     "projector",
			PurchaseDate: serviceNow.AddDate(-2, 0, 0),
			Status:       domain.AssetStatusInUse,
			Condition:    domain.ConditionGood,
		}}
	}

	tickets := newFakeTicketRepo()
	assetRepo := newFakeAssetRepo(tickets, assets...)
	limiter := newFakeLimiter(3)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	dispatcher.Subscribe(events.EventTicketCreated, recorded.record)
	dispatcher.Subscribe(events.EventReportMerged, recorded.record)

	svc := NewIntakeService(IntakeDependencies{
		AssetRepo:  assetRepo,
		TicketRepo: tickets,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     zap.NewNop(),
	})
	svc.now = func() time.Time { return serviceNow }

	return &intakeFixture{
		svc:     svc,
		assets:  assetRepo,
		tickets: tickets,
		limiter: limiter,
		metrics: metrics,
		events:  recorded,
	}
}

func validInput(reporter, fingerprint string) ReportInput {
	return ReportInput{
		AssetID:           intakeAssetID,
		ReporterName:      reporter,
		ReporterEmail:     reporter + "@example.com",
		Description:       "projector will not power on",
		Category:          "Not Working",
		DeviceFingerprint: fingerprint,
		IPAddress:         "10.0.0.8",
		UserAgent:         "test-agent",
	}
}

func domainCode(t *testing.T, err error) *errorutil.DomainError {
	t.Helper()
	var de *errorutil.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return de
}

func TestHandleReportCreatesTicket(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	res, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	is.NoErr(err)
	is.True(!res.Merged)
	is.Equal(res.Ticket.AssetID, intakeAssetID)
	is.Equal(res.Ticket.Category, domain.CategoryNotWorking)
	is.Equal(res.Ticket.Priority, domain.TicketPriorityHigh)

	is.Equal(fx.events.count(events.EventTicketCreated), 1)
	is.Equal(fx.metrics.IntakeSnapshot()[observability.IntakeCreated], int64(1))
}

func TestHandleReportMergesSameCategory(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	first, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	is.NoErr(err)

	second, err := fx.svc.HandleReport(context.Background(), validInput("bob", "fp-2"))
	is.NoErr(err)
	is.True(second.Merged)
	is.Equal(second.Ticket.ID, first.Ticket.ID)

	reports, err := fx.tickets.ListReports(context.Background(), first.Ticket.ID)
	is.NoErr(err)
	is.Equal(len(reports), 2)
	is.Equal(fx.events.count(events.EventReportMerged), 1)
	is.Equal(fx.metrics.IntakeSnapshot()[observability.IntakeMerged], int64(1))
}

func TestHandleReportValidation(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	input := validInput("alice", "fp-1")
	input.ReporterEmail = "not-an-email"
	_, err := fx.svc.HandleReport(context.Background(), input)
	de := domainCode(t, err)
	is.Equal(de.Code, "VALIDATION_FAILED")
	is.Equal(de.Details["reporter_email"], "invalid")

	input = validInput("alice", "fp-1")
	input.AssetID = "not-a-uuid"
	_, err = fx.svc.HandleReport(context.Background(), input)
	is.Equal(domainCode(t, err).Code, "VALIDATION_FAILED")

	is.Equal(fx.limiter.calls(), int64(0))
}

func TestHandleReportUnknownAsset(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	input := validInput("alice", "fp-1")
	input.AssetID = "7e0d2c4b-911f-4a3c-bb08-5f6a7c8d9e0f"
	_, err := fx.svc.HandleReport(context.Background(), input)
	is.Equal(domainCode(t, err).Code, "NOT_FOUND")
}

func TestHandleReportRetiredAsset(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t, &domain.Asset{
		ID:           intakeAssetID,
		Name:         "Old Printer",
		PurchaseDate: serviceNow.AddDate(-9, 0, 0),
		Status:       domain.AssetStatusRetired,
	})

	_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	de := domainCode(t, err)
	is.Equal(de.Code, "ASSET_RETIRED")
	is.Equal(de.HTTPStatus, 410)

	is.Equal(fx.limiter.calls(), int64(0))
	is.Equal(fx.metrics.IntakeSnapshot()[observability.IntakeGateBlocked], int64(1))
}

func TestHandleReportMaintenanceGate(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t, &domain.Asset{
		ID:           intakeAssetID,
		Name:         "Lecture Hall Projector",
		PurchaseDate: serviceNow.AddDate(-2, 0, 0),
		Status:       domain.AssetStatusUnderMaintenance,
		Condition:    domain.ConditionUnderMaintenance,
	})

	_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	de := domainCode(t, err)
	is.Equal(de.Code, "ASSET_UNDER_MAINTENANCE")
	is.Equal(de.HTTPStatus, 409)

	// Blocked before the rate limiter: the gate must not burn quota.
	is.Equal(fx.limiter.calls(), int64(0))
}

func TestHandleReportRateLimited(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	for i := 0; i < 3; i++ {
		_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
		is.NoErr(err)
	}

	_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	de := domainCode(t, err)
	is.Equal(de.Code, "RATE_LIMITED")
	is.Equal(de.HTTPStatus, 429)
	is.Equal(de.Details["retry_after_seconds"], 90)

	// The throttled submission never reached persistence.
	ticket, err := fx.tickets.FindLatestOpen(context.Background(), intakeAssetID, domain.CategoryNotWorking)
	is.NoErr(err)
	reports, err := fx.tickets.ListReports(context.Background(), ticket.ID)
	is.NoErr(err)
	is.Equal(len(reports), 3)
	is.Equal(fx.metrics.IntakeSnapshot()[observability.IntakeThrottled], int64(1))
}

func TestHandleReportRateLimitIsPerDevice(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	for i := 0; i < 3; i++ {
		_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
		is.NoErr(err)
	}

	res, err := fx.svc.HandleReport(context.Background(), validInput("bob", "fp-2"))
	is.NoErr(err)
	is.True(res.Merged)
}

func TestHandleReportLimiterOutage(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)
	fx.limiter.err = errors.New("connection refused")

	_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	de := domainCode(t, err)
	is.Equal(de.Code, "STORE_UNAVAILABLE")
	is.Equal(de.HTTPStatus, 503)
}

func TestTicketByKey(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	res, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	is.NoErr(err)

	found, err := fx.svc.TicketByKey(context.Background(), res.Ticket.ExternalKey)
	is.NoErr(err)
	is.Equal(found.ID, res.Ticket.ID)

	_, err = fx.svc.TicketByKey(context.Background(), "AST-MISSING1")
	is.Equal(domainCode(t, err).Code, "NOT_FOUND")
}

func TestOpenTicketsForAssetHydratesReports(t *testing.T) {
	is := is.New(t)
	fx := newIntakeFixture(t)

	_, err := fx.svc.HandleReport(context.Background(), validInput("alice", "fp-1"))
	is.NoErr(err)
	input := validInput("bob", "fp-2")
	input.Category = "damaged"
	_, err = fx.svc.HandleReport(context.Background(), input)
	is.NoErr(err)

	tickets, err := fx.svc.OpenTicketsForAsset(context.Background(), intakeAssetID)
	is.NoErr(err)
	is.Equal(len(tickets), 2)
	for _, ticket := range tickets {
		is.Equal(len(ticket.Reports), 1)
	}
}
