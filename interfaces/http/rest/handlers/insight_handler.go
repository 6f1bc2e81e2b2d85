package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"journal-insights/application/insights"
	"journal-insights/domain/insight"
	"journal-insights/pkg/auth"
	apperrors "journal-insights/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds the request body. Twenty entries of long-form
// journal text fit comfortably.
const maxBodyBytes = 1 << 20

// InsightGenerator runs the insight pipeline
type InsightGenerator interface {
	Generate(ctx context.Context, userID string, req *insights.InsightRequest) (*insight.Insight, error)
}

// InsightHandler handles insight HTTP requests
type InsightHandler struct {
	gate         *insights.RequestGate
	generator    InsightGenerator
	errorHandler *apperrors.ErrorHandler
	logger       *zap.Logger
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(
	gate *insights.RequestGate,
	generator InsightGenerator,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *InsightHandler {
	return &InsightHandler{
		gate:         gate,
		generator:    generator,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// GenerateInsights handles POST /insights
func (h *InsightHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError(apperrors.CodeInvalidJSON, "Invalid request body").WithCause(err))
		return
	}

	req, err := h.gate.Parse(body)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.generator.Generate(r.Context(), user.UserID, req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *InsightHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
