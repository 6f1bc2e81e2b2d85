package insights

import (
	"bytes"
	"encoding/json"
	"fmt"

	"journal-insights/domain/insight"
	apperrors "journal-insights/pkg/errors"
	"journal-insights/pkg/utils"
)

// MaxEntries is the largest batch accepted in one request. It must match
// the max tag on InsightRequest.Entries.
const MaxEntries = 20

// InsightRequest is the validated request body.
type InsightRequest struct {
	Entries      []insight.JournalEntry `json:"entries" validate:"min=1,max=20,dive"`
	ForceRefresh bool                   `json:"force_refresh"`
}

// RequestGate validates the shape and bounds of an insight request body.
// Credential checks happen before it in the auth middleware.
type RequestGate struct{}

// NewRequestGate creates a request gate
func NewRequestGate() *RequestGate {
	return &RequestGate{}
}

// Parse decodes and validates body. Checks run in a fixed order so the
// first violated rule decides the error code.
func (g *RequestGate) Parse(body []byte) (*InsightRequest, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidJSON, "Invalid JSON in request body")
	}

	rawEntries, ok := envelope["entries"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(rawEntries), []byte("[")) {
		return nil, apperrors.NewValidationError(apperrors.CodeMissingEntries, "entries array is required")
	}

	var req InsightRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidJSON, "Invalid JSON in request body")
	}

	fieldErrs, err := utils.FieldErrors(req)
	if err != nil {
		return nil, apperrors.NewInternalError("request validation failed").WithCause(err)
	}

	for _, fe := range fieldErrs {
		if fe.Field() != "entries" {
			continue
		}
		switch fe.Tag() {
		case "min":
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidEntries, "At least one entry is required")
		case "max":
			return nil, apperrors.NewValidationError(apperrors.CodeTooManyEntries, fmt.Sprintf("Maximum %d entries allowed", MaxEntries))
		}
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeEmptyContent, "All entries must have content")
	}

	return &req, nil
}
