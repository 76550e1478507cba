// Package enhance rewrites short timeline texts through an OpenAI-compatible
// chat completion endpoint. It has a server side (Service, Handler) that
// holds the provider credential, and an editor side (Client) that never
// lets a failed rewrite get in the way of saving.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
	"github.com/timelinekit/timeline/internal/utils"
)

const (
	DefaultEndpoint    = "https://api.tokenfactory.nebius.com/v1/chat/completions"
	DefaultModel       = "google/gemma-3-27b-it-fast"
	DefaultMaxTokens   = 256
	DefaultTemperature = 0.7
	DefaultCacheSize   = 128

	defaultLanguage = "Japanese"
	defaultTimeout  = 30 * time.Second

	// placeholderAPIKey is what the sample configuration ships with.
	placeholderAPIKey = "your_api_key_here"
	// upstreamErrorPreview bounds how much of a failing upstream body is echoed.
	upstreamErrorPreview = 100
	maxUpstreamBody      = 1 << 20
)

// Config controls how the service talks to the provider.
type Config struct {
	APIKey    string
	Endpoint  string
	Model     string
	Language  string
	MaxTokens int
	// Temperature is sent as given, 0 included; nil means DefaultTemperature.
	Temperature *float64
	// Retries is the number of extra attempts on transport errors, 429 and
	// 5xx responses. The last response is passed through either way.
	Retries   int
	RetryWait time.Duration
	// CacheSize bounds the memo of successful rewrites; 0 disables it.
	CacheSize  int
	HTTPClient *http.Client
	Metrics    *Metrics
}

type Service struct {
	apiKey      string
	endpoint    string
	model       string
	language    string
	maxTokens   int
	temperature float64
	client      *retryablehttp.Client
	cache       *lru.Cache[string, string]
	metrics     *Metrics
}

func NewService(cfg Config) (*Service, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	rc := retryablehttp.NewClient()
	rc.Logger = retryLogger{}
	rc.RetryMax = cfg.Retries
	if rc.RetryMax < 0 {
		rc.RetryMax = 0
	}
	if cfg.RetryWait > 0 {
		rc.RetryWaitMin = cfg.RetryWait
		rc.RetryWaitMax = 4 * cfg.RetryWait
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.HTTPClient != nil {
		rc.HTTPClient = cfg.HTTPClient
	} else {
		rc.HTTPClient.Timeout = defaultTimeout
	}

	s := &Service{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		endpoint:    endpoint,
		model:       model,
		language:    cfg.Language,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      rc,
		metrics:     cfg.Metrics,
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, string](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Configured reports the configuration error every request would hit, if any.
func (s *Service) Configured() error {
	if s.apiKey == "" || s.apiKey == placeholderAPIKey {
		return internalError("API key not configured. Please set enhance.api_key in the config file or the NEBIUS_API_KEY environment variable.")
	}
	return nil
}

// Enhance returns the rewritten text. Failures are *Error values carrying
// the status to report.
func (s *Service) Enhance(ctx context.Context, req Request) (string, error) {
	if err := s.Configured(); err != nil {
		utils.Log.Error("[enhance] API key is not configured")
		s.metrics.observe(outcomeConfig)
		return "", err
	}
	if strings.TrimSpace(req.Text) == "" {
		s.metrics.observe(outcomeBad)
		return "", badRequest("Text is required")
	}

	key := cacheKey(req)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.observe(outcomeCached)
			return v, nil
		}
	}

	out, err := s.complete(ctx, req)
	if err != nil {
		if e, ok := err.(*Error); ok && e.Status != http.StatusInternalServerError {
			s.metrics.observe(outcomeUpstream)
		} else {
			s.metrics.observe(outcomeError)
		}
		return "", err
	}

	if s.cache != nil {
		s.cache.Add(key, out)
	}
	s.metrics.observe(outcomeOK)
	return out, nil
}

func (s *Service) complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(s.language)},
			{Role: "user", Content: []chatContentPart{{Type: "text", Text: userMessage(req)}}},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", internalError(err.Error())
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return "", internalError(err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	utils.Log.Debugf("[enhance] calling %s (%s, type=%s)", s.endpoint, s.model, req.Type)
	start := time.Now()
	resp, err := s.client.Do(httpReq)
	s.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		utils.Log.Errorf("[enhance] upstream request failed: %v", err)
		return "", internalError(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", internalError(err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.Log.Errorf("[enhance] upstream error: %d %s", resp.StatusCode, utils.FirstN(string(raw), upstreamErrorPreview))
		return "", &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("API error: %d - %s", resp.StatusCode, utils.FirstN(string(raw), upstreamErrorPreview)),
		}
	}

	if !gjson.ValidBytes(raw) {
		utils.Log.Errorf("[enhance] failed to parse upstream response: %s", utils.FirstN(string(raw), upstreamErrorPreview))
		return "", internalError("Failed to parse API response")
	}

	enhanced := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if enhanced == "" {
		enhanced = req.Text
	}
	utils.Log.Debugf("[enhance] enhanced text: %s", enhanced)
	return enhanced, nil
}

func cacheKey(req Request) string {
	data, _ := json.Marshal(req)
	return string(data)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is a plain string or a list of content parts.
	Content interface{} `json:"content"`
}

type chatContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
