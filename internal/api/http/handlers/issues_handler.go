package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-health-service/internal/api/dto"
	"github.com/spec-kit/asset-health-service/internal/domain"
	"github.com/spec-kit/asset-health-service/internal/service"
	"github.com/spec-kit/asset-health-service/pkg/util/errorutil"
)

// IssuesHandler manages public issue submission and lookup.
type IssuesHandler struct {
	intake *service.IntakeService
}

// NewIssuesHandler constructs the handler.
func NewIssuesHandler(intake *service.IntakeService) *IssuesHandler {
	return &IssuesHandler{intake: intake}
}

// CreateIssue POST /issues. Unauthenticated: anyone with the asset's QR
// code can report a problem.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	input := service.ReportInput{
		AssetID:           req.AssetID,
		ReporterName:      req.ReporterName,
		ReporterEmail:     req.ReporterEmail,
		ReporterPhone:     req.ReporterPhone,
		Description:       req.Description,
		Category:          req.Category,
		Photos:            req.Photos,
		DeviceFingerprint: deviceFingerprint(c, req.DeviceFingerprint),
		IPAddress:         c.IP(),
		UserAgent:         c.Get("User-Agent"),
	}

	result, err := h.intake.HandleReport(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateIssueResponse{
		TicketID:  result.Ticket.ID,
		TicketKey: result.Ticket.ExternalKey,
		Merged:    result.Merged,
	}})
}

// GetIssue GET /issues/:key. Lets a reporter check what happened to their
// submission.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	ticket, err := h.intake.TicketByKey(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// deviceFingerprint prefers the client-supplied value and falls back to a
// digest of the caller's address and user agent.
func deviceFingerprint(c *fiber.Ctx, supplied string) string {
	if trimmed := strings.TrimSpace(supplied); trimmed != "" {
		return trimmed
	}
	sum := sha256.Sum256([]byte(c.IP() + "|" + c.Get("User-Agent")))
	return hex.EncodeToString(sum[:16])
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	reports := make([]dto.ReportEntryResponse, 0, len(ticket.Reports))
	for _, entry := range ticket.Reports {
		reports = append(reports, dto.ReportEntryResponse{
			Position:     entry.Position,
			ReporterName: entry.ReporterName,
			Description:  entry.Description,
			Photos:       entry.Photos,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return dto.TicketResponse{
		TicketKey:   ticket.ExternalKey,
		AssetID:     ticket.AssetID,
		Category:    ticket.Category,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		Reports:     reports,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}
