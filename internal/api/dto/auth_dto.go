package dto

import "time"

// OperatorLoginRequest carries the shared operator API key.
type OperatorLoginRequest struct {
	APIKey string `json:"api_key"`
}

// OperatorLoginResponse returns the issued token.
type OperatorLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
