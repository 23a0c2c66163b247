package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/urlassay/urlassay/internal/domain/port"
	"github.com/urlassay/urlassay/internal/domain/signal"
)

const judgeSystemPrompt = `You assess the risk that a domain hosts phishing, malware or scam content.
Reply with a single JSON object: {"risk_score": <0..1>, "summary": "<one sentence>"}.
Base your judgment only on the domain name itself.`

// AIJudgeSource asks an OpenAI-compatible chat completions endpoint for a
// risk verdict on the domain name.
type AIJudgeSource struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ port.SignalSource = (*AIJudgeSource)(nil)

// NewAIJudgeSource builds a judge client from endpoint configuration.
func NewAIJudgeSource(endpoint, model, apiKey string, logger *slog.Logger) *AIJudgeSource {
	return &AIJudgeSource{
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (s *AIJudgeSource) ID() string { return signal.SourceAIJudgment }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// verdict is the JSON object the model is instructed to reply with.
type verdict struct {
	RiskScore float64 `json:"risk_score"`
	Summary   string  `json:"summary"`
}

// Lookup posts the domain to the chat completions endpoint and parses the
// model's JSON verdict.
func (s *AIJudgeSource) Lookup(ctx context.Context, domain string) (*signal.Payload, error) {
	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		return nil, fmt.Errorf("ai judge is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: domain},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("judge request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("judge error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices")
	}

	v, err := parseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &signal.Payload{
		RiskScore: clampUnit(v.RiskScore),
		Summary:   v.Summary,
		Details:   map[string]string{"model": s.model},
	}, nil
}

// parseVerdict extracts the verdict object, tolerating models that wrap the
// JSON in prose or code fences.
func parseVerdict(content string) (verdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return verdict{}, fmt.Errorf("judge reply contains no JSON object")
	}

	var v verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return verdict{}, fmt.Errorf("parse judge verdict: %w", err)
	}
	if v.Summary == "" {
		v.Summary = "model returned no summary"
	}
	return v, nil
}
