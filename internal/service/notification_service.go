package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-health-service/internal/config"
	"github.com/spec-kit/asset-health-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Actual delivery is owned by an external collaborator; the handlers here
// log and forward to the configured webhook stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventReportMerged, n.handleReportMerged)
	n.dispatcher.Subscribe(events.EventMaintenanceStarted, n.handleMaintenanceStarted)
	n.dispatcher.Subscribe(events.EventMaintenanceCompleted, n.handleMaintenanceCompleted)
	n.dispatcher.Subscribe(events.EventSweepCompleted, n.handleSweepCompleted)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated",
		zap.String("ticket_id", event.TicketID),
		zap.String("asset_id", event.AssetID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReportMerged(ctx context.Context, event events.Event) error {
	n.logger.Info("ReportMerged",
		zap.String("ticket_id", event.TicketID),
		zap.String("asset_id", event.AssetID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleMaintenanceStarted(ctx context.Context, event events.Event) error {
	n.logger.Info("MaintenanceStarted",
		zap.String("asset_id", event.AssetID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMaintenanceCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("MaintenanceCompleted",
		zap.String("asset_id", event.AssetID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSweepCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SweepCompleted", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("asset_id", event.AssetID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("asset_id", event.AssetID),
		zap.String("event_type", string(event.Type)))
}
