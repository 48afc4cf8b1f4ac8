package translation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"eduglobe/internal/language"
	"eduglobe/pkg/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

var ErrEmptyTranslation = errors.New("сервис перевода вернул пустой результат")

// Translator never fails: on any upstream error the input comes back unchanged.
type Translator interface {
	Translate(ctx context.Context, text string, target language.Language) string
	ToPivot(ctx context.Context, text string, source language.Language) string
}

type Service struct {
	svc *translate.Service
}

// NewService builds the relay from config. An API key wins; otherwise the
// service-account JSON in GoogleCredentials is used. Extra options are
// appended last, which is how tests point the client at a fake endpoint.
func NewService(ctx context.Context, cfg *config.Config, extra ...option.ClientOption) (*Service, error) {
	var opts []option.ClientOption

	switch {
	case cfg.TranslateAPIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.TranslateAPIKey))
	case cfg.GoogleCredentials != "":
		b, err := os.ReadFile(cfg.GoogleCredentials)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать файл с учетными данными: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, b, translate.CloudTranslationScope)
		if err != nil {
			return nil, fmt.Errorf("не удалось разобрать учетные данные: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	if cfg.TranslateEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.TranslateEndpoint))
	}
	opts = append(opts, extra...)

	svc, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать сервис перевода: %w", err)
	}

	return &Service{svc: svc}, nil
}

func (s *Service) Translate(ctx context.Context, text string, target language.Language) string {
	if target.IsPivot() || text == "" {
		return text
	}

	translated, err := s.call(ctx, text, "", target.Code())
	if err != nil {
		logrus.Errorf("Ошибка перевода на %s: %v", target.Code(), err)
		return text
	}
	return translated
}

func (s *Service) ToPivot(ctx context.Context, text string, source language.Language) string {
	if source.IsPivot() || text == "" {
		return text
	}

	translated, err := s.call(ctx, text, source.Code(), language.PivotCode)
	if err != nil {
		logrus.Errorf("Ошибка перевода с %s на %s: %v", source.Code(), language.PivotCode, err)
		return text
	}
	return translated
}

func (s *Service) call(ctx context.Context, text, source, target string) (string, error) {
	req := &translate.TranslateTextRequest{
		Q:	[]string{text},
		Target:	target,
		Source:	source,
		Format:	"text",
	}

	resp, err := s.svc.Translations.Translate(req).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Translations) == 0 || resp.Translations[0].TranslatedText == "" {
		return "", ErrEmptyTranslation
	}
	return resp.Translations[0].TranslatedText, nil
}

// Identity is a Translator that returns every text unchanged.
type Identity struct{}

func (Identity) Translate(_ context.Context, text string, _ language.Language) string {
	return text
}

func (Identity) ToPivot(_ context.Context, text string, _ language.Language) string {
	return text
}
