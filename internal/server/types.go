package server

import (
	"time"

	"github.com/rezonia/fiscal-br/internal/processor"
	"github.com/rezonia/fiscal-br/internal/signature"
	"github.com/rezonia/fiscal-br/internal/tools"
)

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status    string `json:"status"`
	Server    string `json:"server"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ToolListResponse is the response for the tool catalogue endpoint
type ToolListResponse struct {
	Tools []*tools.Tool `json:"tools"`
}

// ValidationResponse is the response for validate endpoint
type ValidationResponse struct {
	Valid     bool                          `json:"valid"`
	AccessKey string                        `json:"access_key,omitempty"`
	Layout    string                        `json:"layout,omitempty"`
	Summary   *NFeSummary                   `json:"summary,omitempty"`
	Signature *signature.VerificationResult `json:"signature,omitempty"`
	Errors    []string                      `json:"errors,omitempty"`
	Warnings  []string                      `json:"warnings,omitempty"`
}

// NFeSummary holds the identifying fields of a validated NF-e
type NFeSummary struct {
	Model      string     `json:"model"`
	Series     string     `json:"series"`
	Number     string     `json:"number"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	Issuer     string     `json:"issuer"`
	Recipient  string     `json:"recipient,omitempty"`
	Items      int        `json:"items"`
	Total      string     `json:"total"`
	Authorized bool       `json:"authorized"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

func newValidationResponse(result *processor.Result) ValidationResponse {
	inv := result.Invoice

	summary := &NFeSummary{
		Model:      inv.Model,
		Series:     inv.Series,
		Number:     inv.Number,
		Issuer:     inv.Issuer.Document(),
		Recipient:  inv.Recipient.Document(),
		Items:      len(inv.Items),
		Total:      inv.Totals.Invoice.StringFixed(2),
		Authorized: inv.Authorized(),
	}
	if !inv.IssuedAt.IsZero() {
		issued := inv.IssuedAt
		summary.IssuedAt = &issued
	}

	return ValidationResponse{
		Valid:     result.Report.Valid,
		AccessKey: inv.AccessKey,
		Layout:    string(result.Layout),
		Summary:   summary,
		Signature: result.Signature,
		Errors:    result.Report.Errors,
		Warnings:  result.Report.Warnings,
	}
}
