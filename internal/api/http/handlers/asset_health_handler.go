package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-health-service/internal/api/dto"
	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/service"
	"github.com/spec-kit/asset-health-service/pkg/util/errorutil"
)

// AssetHealthHandler exposes the health sweep and maintenance endpoints.
type AssetHealthHandler struct {
	health *service.HealthService
	intake *service.IntakeService
}

// NewAssetHealthHandler constructs the handler.
func NewAssetHealthHandler(healthService *service.HealthService, intakeService *service.IntakeService) *AssetHealthHandler {
	return &AssetHealthHandler{health: healthService, intake: intakeService}
}

// Summary GET /asset-health/summary.
func (h *AssetHealthHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.health.Summary(c.UserContext())
	if err != nil {
		return err
	}
	conditions := make(map[string]int, len(summary.Counts))
	for condition, count := range summary.Counts {
		conditions[string(condition)] = count
	}
	return c.JSON(fiber.Map{"data": dto.HealthSummaryResponse{
		Conditions: conditions,
		Thresholds: dto.ThresholdsResponse{
			AgeCriticalYears:       summary.Thresholds.AgeCriticalYears,
			AgeMaintenanceYears:    summary.Thresholds.AgeMaintenanceYears,
			OpenIssuesWarning:      summary.Thresholds.OpenIssuesWarning,
			OpenIssuesCritical:     summary.Thresholds.OpenIssuesCritical,
			OpenIssuesMaintenance:  summary.Thresholds.OpenIssuesMaintenance,
			WarrantyExpiryDays:     summary.Thresholds.WarrantyExpiryDays,
			MaintenanceOverdueDays: summary.Thresholds.MaintenanceOverdueDays,
		},
	}})
}

// CheckAll POST /asset-health/check-all. Operator-triggered fleet sweep.
func (h *AssetHealthHandler) CheckAll(c *fiber.Ctx) error {
	result, err := h.health.RunAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{
		Updated:     result.Updated,
		Maintenance: result.Maintenance,
		Critical:    result.Critical,
	}})
}

// MaintenanceList GET /asset-health/maintenance.
func (h *AssetHealthHandler) MaintenanceList(c *fiber.Ctx) error {
	assets, err := h.health.ListUnderMaintenance(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.MaintenanceAssetResponse, 0, len(assets))
	for _, entry := range assets {
		items = append(items, dto.MaintenanceAssetResponse{
			AssetHealthResponse:  assetHealthResponse(&entry.Asset),
			DaysUnderMaintenance: entry.DaysUnderMaintenance,
			IsOverdue:            entry.IsOverdue,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CompleteMaintenance PATCH /asset-health/:assetID/maintenance.
func (h *AssetHealthHandler) CompleteMaintenance(c *fiber.Ctx) error {
	var req dto.CompleteMaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if !strings.EqualFold(strings.TrimSpace(req.Status), "complete") {
		return errorutil.NewValidationError(`status must be "complete"`, nil)
	}

	asset, err := h.health.CompleteMaintenance(c.UserContext(), c.Params("assetID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": assetHealthResponse(asset)})
}

// AssetIssues GET /asset-health/:assetID/issues. Operator listing of open
// tickets for one asset.
func (h *AssetHealthHandler) AssetIssues(c *fiber.Ctx) error {
	tickets, err := h.intake.OpenTicketsForAsset(c.UserContext(), c.Params("assetID"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func assetHealthResponse(asset *domain.Asset) dto.AssetHealthResponse {
	return dto.AssetHealthResponse{
		ID:                       asset.ID,
		AssetTag:                 asset.AssetTag,
		Name:                     asset.Name,
		Category:                 asset.Category,
		Status:                   asset.Status,
		Condition:                asset.Condition,
		LastHealthCheck:          asset.LastHealthCheck,
		MaintenanceReason:        asset.MaintenanceReason,
		MaintenanceStartDate:     asset.MaintenanceStartDate,
		MaintenanceCompletedDate: asset.MaintenanceCompletedDate,
	}
}
