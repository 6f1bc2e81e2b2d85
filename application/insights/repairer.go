package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"journal-insights/domain/insight"
	apperrors "journal-insights/pkg/errors"

	"go.uber.org/zap"
)

const (
	minThemes = 4
	maxThemes = 5

	// diagnosticPreviewRunes bounds how much raw provider output is logged
	diagnosticPreviewRunes = 200
)

var errNoObject = errors.New("no JSON object found in completion")

// payload mirrors insight.Content with pointers so absent fields can be
// told apart from empty ones.
type payload struct {
	Summary     *string              `json:"summary"`
	Description *string              `json:"description"`
	Annotations []insight.Annotation `json:"annotations"`
	Themes      []insight.Theme      `json:"themes"`
}

// Repairer parses provider output into insight content, recovering JSON
// that arrives wrapped in prose or markdown fences.
type Repairer struct {
	logger *zap.Logger
}

// NewRepairer creates a repairer
func NewRepairer(logger *zap.Logger) *Repairer {
	return &Repairer{logger: logger}
}

// Repair decodes raw strictly, falls back to the outermost braces, then
// validates the required fields.
func (r *Repairer) Repair(raw string) (*insight.Content, error) {
	p, err := decodeStrict(raw)
	if err != nil {
		extracted, extractErr := extractObject(raw)
		if extractErr == nil {
			p, err = decodeStrict(extracted)
		} else {
			err = extractErr
		}
		if err != nil {
			r.logger.Error("Failed to parse completion",
				zap.Error(err),
				zap.Int("length", len(raw)),
				zap.String("preview", truncateRunes(raw, diagnosticPreviewRunes)),
			)
			return nil, apperrors.NewInvalidResponseError("Failed to parse AI response").WithCause(err)
		}
		r.logger.Info("Recovered completion JSON from surrounding text")
	}

	return r.validate(p)
}

// decodeStrict requires text to be exactly one JSON object.
func decodeStrict(text string) (*payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// extractObject returns the text between the first '{' and the last '}'.
func extractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", errNoObject
	}
	return text[start : end+1], nil
}

func (r *Repairer) validate(p *payload) (*insight.Content, error) {
	var missing []string
	if p.Summary == nil || strings.TrimSpace(*p.Summary) == "" {
		missing = append(missing, "summary")
	}
	if p.Description == nil || strings.TrimSpace(*p.Description) == "" {
		missing = append(missing, "description")
	}
	if len(p.Themes) == 0 {
		missing = append(missing, "themes")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewInvalidResponseError("AI response is missing required fields").
			WithDetails(map[string]interface{}{"missing": missing}).
			WithCause(fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")))
	}

	if n := len(p.Themes); n < minThemes || n > maxThemes {
		r.logger.Warn("Unexpected theme count in completion",
			zap.Int("themes", n),
			zap.Int("min", minThemes),
			zap.Int("max", maxThemes),
		)
	}

	content := &insight.Content{
		Summary:     *p.Summary,
		Description: *p.Description,
		Annotations: p.Annotations,
		Themes:      p.Themes,
	}
	content.Normalize()

	return content, nil
}
