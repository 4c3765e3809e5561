package server

import (
	"encoding/json"

	"github.com/mohammad-safakhou/packlint/internal/engine"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// DocumentPayload is one JSON file of a submitted package. Content stays raw
// so decoding failures surface as package diagnostics, not request errors.
type DocumentPayload struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
}

// ValidateRequest represents an inline package submission.
type ValidateRequest struct {
	PackageName string            `json:"package_name"`
	Documents   []DocumentPayload `json:"documents"`
	Media       []string          `json:"media"`
	Timeline    *bool             `json:"timeline,omitempty"`
}

// ValidateResponse is the stored run id plus the full report.
type ValidateResponse struct {
	RunID  string        `json:"run_id,omitempty"`
	Cached bool          `json:"cached,omitempty"`
	Report engine.Report `json:"report"`
}

// RunListItem is one row of a user's run history.
type RunListItem struct {
	ID           string `json:"id"`
	PackageName  string `json:"package_name"`
	Valid        bool   `json:"valid"`
	ErrorCount   int    `json:"error_count"`
	WarningCount int    `json:"warning_count"`
	CreatedAt    string `json:"created_at"`
}

// RunDetailResponse is one stored run with its report.
type RunDetailResponse struct {
	RunListItem
	Report json.RawMessage `json:"report"`
}
