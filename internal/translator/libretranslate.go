package translator

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/valpere/lingolink/internal/remote"
)

const (
	DefaultLibreTranslateEndpoint = "https://translate.astian.org/translate"
	DefaultSourceLang             = "en"
	DefaultTargetLang             = "es"
)

// LibreTranslateService talks to a LibreTranslate-compatible /translate
// endpoint. It keeps no state between calls.
type LibreTranslateService struct {
	endpoint string
	client   remote.Doer
	logger   *log.Logger
}

func NewLibreTranslateService(cfg ServiceConfig) *LibreTranslateService {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultLibreTranslateEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LibreTranslateService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log.New(os.Stderr, "libretranslate: ", log.LstdFlags),
	}
}

func (s *LibreTranslateService) Name() string {
	return "libretranslate"
}

// SetClient replaces the transport, mainly for tests.
func (s *LibreTranslateService) SetClient(client remote.Doer) {
	if client != nil {
		s.client = client
	}
}

func (s *LibreTranslateService) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func (s *LibreTranslateService) Endpoint() string {
	return s.endpoint
}

func (s *LibreTranslateService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}
	targetLang := req.TargetLang
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}

	form := url.Values{}
	form.Set("q", req.Text)
	form.Set("source", sourceLang)
	form.Set("target", targetLang)

	body, err := s.post(ctx, form)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	var libreResp struct {
		TranslatedText *string `json:"translatedText"`
	}
	if err := remote.DecodeJSON(body, &libreResp); err != nil {
		result.Error = err.Error()
		return result, err
	}
	if libreResp.TranslatedText == nil {
		err := &remote.DecodeError{Field: "translatedText"}
		result.Error = err.Error()
		return result, err
	}

	result.TranslatedText = *libreResp.TranslatedText
	result.Metadata = map[string]string{
		"source": sourceLang,
		"target": targetLang,
	}

	return result, nil
}

// TranslateOrNil logs transport failures and reports them as ok == false
// with a nil error. Decode failures are still returned.
func (s *LibreTranslateService) TranslateOrNil(ctx context.Context, req TranslateRequest) (string, bool, error) {
	result, err := s.Translate(ctx, req)
	if absent, fatal := remote.Degrade(s.logger, err); absent || fatal != nil {
		return "", false, fatal
	}
	return result.TranslatedText, true, nil
}

// Hypotheses returns the translation of text with the default language
// pair. Only n == 1 is supported, so the result is the same string
// Translate would return.
func (s *LibreTranslateService) Hypotheses(ctx context.Context, text string, n int) (string, error) {
	if n != 1 {
		return "", fmt.Errorf("%w: %d hypotheses requested, only 1 is available", remote.ErrUsage, n)
	}

	result, err := s.Translate(ctx, TranslateRequest{Text: text})
	if err != nil {
		return "", err
	}
	return result.TranslatedText, nil
}

// Call posts payload as form fields and returns the whole decoded response.
func (s *LibreTranslateService) Call(ctx context.Context, payload map[string]any) (map[string]any, error) {
	form := url.Values{}
	for k, v := range payload {
		form.Set(k, fmt.Sprint(v))
	}
	if form.Get("source") == "" {
		form.Set("source", DefaultSourceLang)
	}
	if form.Get("target") == "" {
		form.Set("target", DefaultTargetLang)
	}

	body, err := s.post(ctx, form)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := remote.DecodeJSON(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LibreTranslateService) IsAvailable(ctx context.Context) error {
	if _, err := s.languages(ctx); err != nil {
		return fmt.Errorf("LibreTranslate not available: %w", err)
	}
	return nil
}

func (s *LibreTranslateService) SupportedLanguages(ctx context.Context) ([]string, error) {
	langs, err := s.languages(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Code)
	}
	return codes, nil
}

type libreLanguage struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Targets []string `json:"targets"`
}

func (s *LibreTranslateService) languages(ctx context.Context) ([]libreLanguage, error) {
	languagesURL, err := siblingURL(s.endpoint, "languages")
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, languagesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := remote.Send(s.client, httpReq)
	if err != nil {
		return nil, err
	}

	var langs []libreLanguage
	if err := remote.DecodeJSON(body, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

func (s *LibreTranslateService) post(ctx context.Context, form url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return remote.Send(s.client, httpReq)
}

// siblingURL swaps the trailing /translate segment of endpoint for name.
func siblingURL(endpoint, name string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	base := strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/translate")
	u.Path = base + "/" + name
	u.RawQuery = ""
	return u.String(), nil
}
