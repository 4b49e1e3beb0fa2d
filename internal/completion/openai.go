// Package completion sends prompts to an OpenAI-style text completion
// endpoint and hands back the provider's JSON response untouched.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/valpere/lingolink/internal/remote"
)

const (
	DefaultEndpoint  = "https://api.openai.com/v1/engines/davinci/completions"
	DefaultMaxTokens = 100
)

// ErrNoAPIKey is returned before any request is made when no key is known.
var ErrNoAPIKey = errors.New("completion API key required")

type Config struct {
	Endpoint  string        `mapstructure:"endpoint" json:"endpoint"`
	APIKey    string        `mapstructure:"api_key" json:"-"`
	MaxTokens int           `mapstructure:"max_tokens" json:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`
}

type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type OpenAIService struct {
	endpoint  string
	apiKey    string
	maxTokens int
	client    remote.Doer
	logger    *log.Logger
}

func NewOpenAIService(cfg Config) *OpenAIService {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIService{
		endpoint:  endpoint,
		apiKey:    cfg.APIKey,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
		logger:    log.New(os.Stderr, "completion: ", log.LstdFlags),
	}
}

func (s *OpenAIService) Name() string {
	return "openai"
}

func (s *OpenAIService) SetClient(client remote.Doer) {
	if client != nil {
		s.client = client
	}
}

func (s *OpenAIService) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func (s *OpenAIService) MaxTokens() int {
	return s.maxTokens
}

// Complete runs prompt through the model and returns the decoded response
// object. apiKey overrides the configured key when non-empty.
func (s *OpenAIService) Complete(ctx context.Context, prompt, apiKey string) (map[string]any, error) {
	if apiKey == "" {
		apiKey = s.apiKey
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	jsonData, err := json.Marshal(completionRequest{Prompt: prompt, MaxTokens: s.maxTokens})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return s.post(ctx, apiKey, jsonData)
}

// CompleteOrNil logs transport failures and returns a nil object for them.
// Decode and configuration errors are still returned.
func (s *OpenAIService) CompleteOrNil(ctx context.Context, prompt, apiKey string) (map[string]any, error) {
	resp, err := s.Complete(ctx, prompt, apiKey)
	if absent, fatal := remote.Degrade(s.logger, err); absent || fatal != nil {
		return nil, fatal
	}
	return resp, nil
}

// Call sends payload as the JSON body, filling in max_tokens when absent.
func (s *OpenAIService) Call(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	if _, ok := body["max_tokens"]; !ok {
		body["max_tokens"] = s.maxTokens
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return s.post(ctx, s.apiKey, jsonData)
}

func (s *OpenAIService) post(ctx context.Context, apiKey string, jsonData []byte) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	respBody, err := remote.Send(s.client, httpReq)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := remote.DecodeJSON(respBody, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FirstText pulls choices[0].text out of a completion response.
func FirstText(resp map[string]any) (string, bool) {
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := first["text"].(string)
	return text, ok
}
