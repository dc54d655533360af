package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EmotionalDiary/internal/config"
	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/metrics"
	"EmotionalDiary/internal/ports"
)

// Sampling configuration shared by every request.
const (
	temperature     = 0.5
	topP            = 0.8
	topK            = 40
	maxOutputTokens = 2048
)

// GeminiClient implements the analysis ports on top of the Gemini
// generateContent API. Each call issues exactly one request.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

var (
	_ ports.SentimentAnalyzer       = (*GeminiClient)(nil)
	_ ports.RecommendationGenerator = (*GeminiClient)(nil)
)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig, logger *slog.Logger, m *metrics.Metrics) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// Analyze classifies the sentiment of a journal text.
func (c *GeminiClient) Analyze(ctx context.Context, text string) (domain.AnalysisResult, error) {
	start := time.Now()
	result, err := c.analyze(ctx, text)
	c.metrics.ObserveAnalysis("analyze", outcome(err), time.Since(start))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: analyze: %w", domain.ErrExternalService, err)
	}
	c.logger.Info("analysis completed", "emotion", result.Emotion, "intensity", result.Intensity)
	return result, nil
}

// Recommend asks for wellness suggestions given a digest of the user's week.
func (c *GeminiClient) Recommend(ctx context.Context, contextText string) ([]domain.RecommendationItem, error) {
	start := time.Now()
	items, err := c.recommend(ctx, contextText)
	c.metrics.ObserveAnalysis("recommend", outcome(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: recommend: %w", domain.ErrExternalService, err)
	}
	c.logger.Info("recommendations generated", "count", len(items))
	return items, nil
}

func (c *GeminiClient) analyze(ctx context.Context, text string) (domain.AnalysisResult, error) {
	resp, err := c.generate(ctx, buildAnalysisPrompt(visibleText(text)))
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	raw, err := c.extractText(resp)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	return c.parseAnalysis(stripCodeFences(raw))
}

func (c *GeminiClient) recommend(ctx context.Context, contextText string) ([]domain.RecommendationItem, error) {
	resp, err := c.generate(ctx, buildRecommendationPrompt(contextText))
	if err != nil {
		return nil, err
	}

	raw, err := c.extractText(resp)
	if err != nil {
		return nil, err
	}

	return c.parseRecommendations(stripCodeFences(raw))
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
}

type candidate struct {
	Content      *responseContent `json:"content"`
	FinishReason string           `json:"finishReason"`
}

type responseContent struct {
	Parts []responsePart `json:"parts"`
}

type responsePart struct {
	Text *string `json:"text"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

func newGenerateRequest(prompt string) generateRequest {
	return generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
			TopP:            topP,
			TopK:            topK,
		},
	}
}

// generate posts one prompt and decodes the raw response. A literal JSON
// null body yields a nil response, which extraction reports on its own.
func (c *GeminiClient) generate(ctx context.Context, prompt string) (*generateResponse, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, ErrMisconfigured
	}

	body, err := json.Marshal(newGenerateRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: new request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gemini request failed", "error", redact(err.Error(), c.apiKey))
		return nil, fmt.Errorf("%w: %s", ErrTransport, redact(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("gemini returned error status", "status", resp.Status)
		return nil, fmt.Errorf("%w: gemini error %s: %s", ErrTransport, resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded *generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return decoded, nil
}

func (c *GeminiClient) requestURL() string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return c.endpoint + "/v1/models/" + url.PathEscape(c.model) + ":generateContent?" + q.Encode()
}

// redact keeps the API key out of logs; net/http embeds the URL in errors.
func redact(msg, secret string) string {
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, url.QueryEscape(secret), "REDACTED")
}
