package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-health-service/internal/api/dto"
	"github.com/spec-kit/asset-health-service/internal/auth"
	"github.com/spec-kit/asset-health-service/internal/config"
	"github.com/spec-kit/asset-health-service/pkg/util/errorutil"
)

// AuthHandler issues operator tokens.
type AuthHandler struct {
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(tokens *auth.TokenManager, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{tokens: tokens, cfg: cfg}
}

// OperatorLogin POST /auth/operator/login.
func (h *AuthHandler) OperatorLogin(c *fiber.Ctx) error {
	var req dto.OperatorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return errorutil.NewValidationError("api_key required", nil)
	}

	if err := auth.VerifyOperatorKey(h.cfg.OperatorKeyHash, req.APIKey); err != nil {
		if errors.Is(err, auth.ErrOperatorLoginDisabled) {
			return errorutil.NewUnauthorized("operator login disabled")
		}
		return errorutil.NewUnauthorized("invalid api key")
	}

	token, expiresAt, err := h.tokens.GenerateOperatorToken()
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.OperatorLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}})
}
