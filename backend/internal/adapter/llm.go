package adapter

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"memgraph/backend/internal/observe"
	apperrors "memgraph/backend/pkg/errors"
	"memgraph/backend/pkg/logger"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Texts returned in place of an answer when no answer could be obtained
const (
	NoResult           = "no result returned"
	MaxRetriesExceeded = "max retries reached, request still failing"
	FailurePrefix      = "request failed: "
)

const (
	defaultTemperature = 0.5
	defaultMaxAttempts = 3
	defaultBaseWait    = 15 * time.Second
)

// Outcome classifies how a completion ended
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeNoResult   Outcome = "no_result"
	OutcomeFailed     Outcome = "failed"
	OutcomeMaxRetries Outcome = "max_retries"
)

// Completion is the result of one Complete call. Content always holds the
// text Generate would return, sentinel included.
type Completion struct {
	Content   string
	Reasoning string
	Outcome   Outcome
	Attempts  int
	Err       error // set for OutcomeFailed and OutcomeMaxRetries
}

// OK reports whether Content is a real answer
func (c *Completion) OK() bool {
	return c.Outcome == OutcomeSuccess
}

// Params are optional sampling parameters sent with every request
type Params struct {
	MaxTokens        int
	TopP             float32
	Stop             []string
	PresencePenalty  float32
	FrequencyPenalty float32
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TextClient sends single-prompt chat completions to an OpenAI-compatible
// endpoint, retrying with exponential backoff
type TextClient struct {
	client      *openai.Client
	model       string
	mu          sync.RWMutex // Protects model field for concurrent access
	temperature float32
	params      Params
	maxAttempts int
	baseWait    time.Duration
	httpClient  *http.Client
	sleep       Sleeper
	metrics     *observe.Metrics
	logger      *zap.Logger
}

// Option configures a TextClient
type Option func(*TextClient)

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) Option {
	return func(c *TextClient) { c.temperature = t }
}

// WithParams sets additional sampling parameters
func WithParams(p Params) Option {
	return func(c *TextClient) { c.params = p }
}

// WithMaxAttempts sets the total attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *TextClient) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithBaseWait sets the first backoff wait; later waits double
func WithBaseWait(d time.Duration) Option {
	return func(c *TextClient) { c.baseWait = d }
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *TextClient) { c.httpClient = hc }
}

// WithSleeper replaces the backoff clock
func WithSleeper(s Sleeper) Option {
	return func(c *TextClient) { c.sleep = s }
}

// WithMetrics overrides the default metrics instance
func WithMetrics(m *observe.Metrics) Option {
	return func(c *TextClient) { c.metrics = m }
}

// WithLogger overrides the component logger
func WithLogger(l *zap.Logger) Option {
	return func(c *TextClient) { c.logger = l }
}

// NewTextClient creates a client for the endpoint at baseURL, which must
// include any version prefix (for example http://localhost:4000/v1)
func NewTextClient(baseURL, apiKey, model string, opts ...Option) *TextClient {
	c := &TextClient{
		model:       model,
		temperature: defaultTemperature,
		maxAttempts: defaultMaxAttempts,
		baseWait:    defaultBaseWait,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	if c.logger == nil {
		c.logger = logger.For(logger.Remote)
	}

	// LiteLLM style proxies accept any key
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	if c.httpClient != nil {
		config.HTTPClient = c.httpClient
	}
	c.client = openai.NewClientWithConfig(config)

	return c
}

// SetModel updates the model used by later requests
func (c *TextClient) SetModel(model string) {
	if model != "" {
		c.mu.Lock()
		c.model = model
		c.mu.Unlock()
		c.logger.Debug("Text client model updated", zap.String("model", model))
	}
}

// Model returns the current model
func (c *TextClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Generate returns the answer text and reasoning text for prompt. It never
// fails: when no answer can be obtained the content is NoResult,
// MaxRetriesExceeded or FailurePrefix followed by the last error.
func (c *TextClient) Generate(ctx context.Context, prompt string) (content, reasoning string) {
	res := c.Complete(ctx, prompt)
	return res.Content, res.Reasoning
}

// Complete runs the retry loop and reports how it ended
func (c *TextClient) Complete(ctx context.Context, prompt string) *Completion {
	model := c.Model()
	start := time.Now()

	res := c.complete(ctx, model, prompt)

	c.metrics.RecordRequest(ctx, model, string(res.Outcome), time.Since(start))
	return res
}

func (c *TextClient) complete(ctx context.Context, model, prompt string) *Completion {
	req := c.buildRequest(model, prompt)

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		last := attempt == c.maxAttempts-1
		wait := c.baseWait * time.Duration(1<<uint(attempt))

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			c.metrics.RecordAttempt(ctx, model, observe.AttemptOK)
			if len(resp.Choices) == 0 {
				c.logger.Warn("Remote response carried no choices", zap.String("model", model))
				return &Completion{Content: NoResult, Outcome: OutcomeNoResult, Attempts: attempt + 1}
			}
			msg := resp.Choices[0].Message
			c.logger.Debug("Remote response received",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Bool("has_reasoning", msg.ReasoningContent != ""),
			)
			return &Completion{
				Content:   msg.Content,
				Reasoning: msg.ReasoningContent,
				Outcome:   OutcomeSuccess,
				Attempts:  attempt + 1,
			}
		}
		lastErr = err

		if isRateLimited(err) {
			c.metrics.RecordAttempt(ctx, model, observe.AttemptRateLimited)
			if last {
				// No wait after the final attempt, 429 or not
				break
			}
			c.logger.Warn("Rate limited by remote endpoint, backing off",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
			)
		} else {
			c.metrics.RecordAttempt(ctx, model, observe.AttemptFailed)
			c.logger.Error("Remote request failed",
				zap.Error(err),
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
			)
			if last || ctx.Err() != nil {
				return c.failed(model, attempt+1, err)
			}
		}

		c.metrics.RecordBackoff(ctx, attemptReason(err), wait)
		if err := c.sleep(ctx, wait); err != nil {
			return c.failed(model, attempt+1, err)
		}
	}

	c.logger.Error("Remote request still failing after all attempts",
		zap.String("model", model),
		zap.Int("attempts", c.maxAttempts),
	)
	return &Completion{
		Content:  MaxRetriesExceeded,
		Outcome:  OutcomeMaxRetries,
		Attempts: c.maxAttempts,
		Err:      apperrors.NewRemoteCallFailed(model, c.maxAttempts, true, lastErr),
	}
}

func (c *TextClient) failed(model string, attempts int, err error) *Completion {
	return &Completion{
		Content:  FailurePrefix + err.Error(),
		Outcome:  OutcomeFailed,
		Attempts: attempts,
		Err:      apperrors.NewRemoteCallFailed(model, attempts, false, err),
	}
}

func (c *TextClient) buildRequest(model, prompt string) openai.ChatCompletionRequest {
	temperature := c.temperature
	if temperature == 0 {
		// go-openai omits a zero temperature; the smallest float32 keeps it on the wire
		temperature = math.SmallestNonzeroFloat32
	}
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature:      temperature,
		MaxTokens:        c.params.MaxTokens,
		TopP:             c.params.TopP,
		Stop:             c.params.Stop,
		PresencePenalty:  c.params.PresencePenalty,
		FrequencyPenalty: c.params.FrequencyPenalty,
	}
}

// isRateLimited reports whether err carries HTTP 429
func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

func attemptReason(err error) string {
	if isRateLimited(err) {
		return observe.AttemptRateLimited
	}
	return observe.AttemptFailed
}
