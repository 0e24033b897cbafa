package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prizma-app/prizma-backend/internal/pkg/errs"
	"github.com/prizma-app/prizma-backend/internal/pkg/httpx"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
)

const (
	// maxAttempts is fixed: the pacing of a 63-page run already absorbs
	// most rate pressure, so a longer retry tail only delays failure.
	maxAttempts = 3

	maxTokensPremium = 12000
	maxTokensFree    = 4000

	userAgent = "PRIZMA-AI-Psychologist/1.0"
)

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is one generated exchange: the assistant content plus the
// upstream token accounting.
type Completion struct {
	Content string
	Usage   Usage
}

// Client is the chat-completion generator used by the report pipeline.
type Client interface {
	Complete(ctx context.Context, messages []report.Message, premium bool) (Completion, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	// backoffUnit scales the retry schedule; production uses one second.
	backoffUnit time.Duration
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("PERPLEXITY_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing PERPLEXITY_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("PERPLEXITY_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("PERPLEXITY_MODEL"))
	if model == "" {
		model = "sonar-pro"
	}

	timeoutSec := 120
	if v := os.Getenv("PERPLEXITY_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:         log.With("service", "PerplexityClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		backoffUnit: time.Second,
	}, nil
}

// APIError is a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("perplexity http %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []report.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
	Stream      bool             `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (c *client) doOnce(ctx context.Context, body chatRequest) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// Complete runs one chat-completion exchange. Rate limits back off at
// 10·2^attempt, transient network failures at 5·2^attempt; any other
// upstream error is fatal immediately. When every attempt was consumed by
// rate limiting the returned error wraps errs.ErrRetriesExhausted so the
// caller can tell exhaustion apart from upstream rejection.
func (c *client) Complete(ctx context.Context, messages []report.Message, premium bool) (Completion, error) {
	maxTokens := maxTokensFree
	if premium {
		maxTokens = maxTokensPremium
	}
	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.6,
		Stream:      false,
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Completion{}, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			var parsed chatResponse
			if uErr := json.Unmarshal(raw, &parsed); uErr != nil {
				return Completion{}, fmt.Errorf("perplexity decode error: %w; raw=%s", uErr, string(raw))
			}
			if len(parsed.Choices) == 0 {
				return Completion{}, fmt.Errorf("perplexity: response has no choices; raw=%s", string(raw))
			}
			return Completion{Content: parsed.Choices[0].Message.Content, Usage: parsed.Usage}, nil
		}

		switch {
		case httpx.IsRateLimited(err):
			wait := httpx.RetryAfterDuration(resp, time.Duration(10*(1<<attempt))*c.backoffUnit, 2*time.Minute)
			c.log.Warn("Perplexity rate limited",
				"attempt", attempt+1,
				"max_attempts", maxAttempts,
				"sleep", wait.String(),
			)
			time.Sleep(wait)

		case httpx.IsTransient(err):
			if attempt == maxAttempts-1 {
				return Completion{}, err
			}
			wait := time.Duration(5*(1<<attempt)) * c.backoffUnit
			c.log.Warn("Perplexity request failed",
				"attempt", attempt+1,
				"max_attempts", maxAttempts,
				"sleep", wait.String(),
				"error", err.Error(),
			)
			time.Sleep(wait)

		default:
			return Completion{}, err
		}
	}

	return Completion{}, fmt.Errorf("perplexity: %w", errs.ErrRetriesExhausted)
}
