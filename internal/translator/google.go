package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through Cloud Translation v2. A client is opened
// per call and closed before returning.
type GoogleService struct {
	credentials string
	projectID   string
}

func NewGoogleService(cfg ServiceConfig) *GoogleService {
	return &GoogleService{
		credentials: cfg.Credentials,
		projectID:   cfg.ProjectID,
	}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) newClient(ctx context.Context) (*translate.Client, error) {
	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	if s.projectID != "" {
		opts = append(opts, option.WithQuotaProject(s.projectID))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (s *GoogleService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetTag, err := language.Parse(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language %q: %w", req.TargetLang, err)
	}

	opts, err := textOptions(req.SourceLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid source language: %v", err)
		return result, fmt.Errorf("invalid source language %q: %w", req.SourceLang, err)
	}

	client, err := s.newClient(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	defer client.Close()

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, opts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = translations[0].Text
	if translations[0].Source != language.Und {
		result.Metadata = map[string]string{"source": translations[0].Source.String()}
	}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	client, err := s.newClient(ctx)
	if err != nil {
		return err
	}
	return client.Close()
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	client, err := s.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	langs, err := client.SupportedLanguages(ctx, language.English)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Tag.String())
	}
	return codes, nil
}

// textOptions always requests plain-text format so the API does not return
// HTML-escaped output. An empty or "auto" source leaves detection to Google.
func textOptions(sourceLang string) (*translate.Options, error) {
	opts := &translate.Options{Format: translate.Text}
	if sourceLang == "" || sourceLang == "auto" {
		return opts, nil
	}
	sourceTag, err := language.Parse(sourceLang)
	if err != nil {
		return nil, err
	}
	opts.Source = sourceTag
	return opts, nil
}
