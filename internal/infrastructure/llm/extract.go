package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"EmotionalDiary/internal/domain"
)

// Failure stages of a provider call. Public methods wrap every one of them
// in domain.ErrExternalService; errors.Is still tells them apart.
var (
	ErrMisconfigured = errors.New("gemini client misconfigured")
	ErrTransport     = errors.New("gemini transport failure")
	ErrNilResponse   = errors.New("gemini response is null")
	ErrNoCandidates  = errors.New("gemini response has no candidates")
	ErrNoContent     = errors.New("gemini candidate has no content")
	ErrNoParts       = errors.New("gemini content has no parts")
	ErrBlankText     = errors.New("gemini part text is blank")
	ErrMalformedJSON = errors.New("gemini payload is not valid JSON")
	ErrIncomplete    = errors.New("gemini payload is missing required fields")
)

const (
	maxKeywords   = 2
	maxSummaryLen = 500
	minIntensity  = 1
	maxIntensity  = 10
)

// extractText walks the response down to the first part's text, failing at
// the first missing level.
func (c *GeminiClient) extractText(resp *generateResponse) (string, error) {
	if resp == nil {
		c.logger.Error("gemini response is null")
		return "", ErrNilResponse
	}

	if len(resp.Candidates) == 0 {
		blockReason := "N/A"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			blockReason = resp.PromptFeedback.BlockReason
		}
		c.logger.Error("gemini returned no candidates", "block_reason", blockReason)
		return "", ErrNoCandidates
	}

	first := resp.Candidates[0]
	if first.Content == nil {
		c.logger.Error("gemini candidate has no content", "finish_reason", first.FinishReason)
		return "", ErrNoContent
	}

	if len(first.Content.Parts) == 0 {
		c.logger.Error("gemini content has no parts", "finish_reason", first.FinishReason)
		return "", ErrNoParts
	}

	text := first.Content.Parts[0].Text
	if text == nil || strings.TrimSpace(*text) == "" {
		c.logger.Error("gemini part text is blank", "finish_reason", first.FinishReason)
		return "", ErrBlankText
	}

	c.logger.Debug("gemini raw text", "text", *text)
	return *text, nil
}

// stripCodeFences removes Markdown code-fence markers the model tends to add.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

type analysisPayload struct {
	Emotion   string   `json:"emotion"`
	Intensity *int     `json:"intensity"`
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords"`
}

func (c *GeminiClient) parseAnalysis(payload string) (domain.AnalysisResult, error) {
	var parsed analysisPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		c.logger.Error("cannot parse analysis payload", "error", err)
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if strings.TrimSpace(parsed.Emotion) == "" || parsed.Intensity == nil {
		c.logger.Error("analysis payload incomplete", "payload", payload)
		return domain.AnalysisResult{}, fmt.Errorf("%w: emotion and intensity are required", ErrIncomplete)
	}

	return domain.AnalysisResult{
		Emotion:   strings.TrimSpace(parsed.Emotion),
		Intensity: clamp(*parsed.Intensity, minIntensity, maxIntensity),
		Summary:   truncateRunes(strings.TrimSpace(parsed.Summary), maxSummaryLen),
		Keywords:  firstKeywords(parsed.Keywords, maxKeywords),
	}, nil
}

type recommendationPayload struct {
	Recommendations []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
	} `json:"recommendations"`
}

func (c *GeminiClient) parseRecommendations(payload string) ([]domain.RecommendationItem, error) {
	var parsed recommendationPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		c.logger.Error("cannot parse recommendation payload", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if len(parsed.Recommendations) == 0 {
		c.logger.Error("recommendation payload incomplete", "payload", payload)
		return nil, fmt.Errorf("%w: recommendations list is empty", ErrIncomplete)
	}

	items := make([]domain.RecommendationItem, 0, len(parsed.Recommendations))
	for _, rec := range parsed.Recommendations {
		items = append(items, domain.RecommendationItem{
			Title:       strings.TrimSpace(rec.Title),
			Description: strings.TrimSpace(rec.Description),
			Category:    strings.TrimSpace(rec.Category),
			Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(rec.Priority))),
		})
	}
	return items, nil
}

// outcome labels a call result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMisconfigured):
		return "misconfigured"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrNilResponse):
		return "nil_response"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrNoContent):
		return "no_content"
	case errors.Is(err, ErrNoParts):
		return "no_parts"
	case errors.Is(err, ErrBlankText):
		return "blank_text"
	case errors.Is(err, ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	default:
		return "error"
	}
}

func firstKeywords(raw []string, limit int) []string {
	keywords := make([]string, 0, limit)
	for _, kw := range raw {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
		if len(keywords) == limit {
			break
		}
	}
	return keywords
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
