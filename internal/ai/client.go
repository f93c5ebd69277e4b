package ai

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Options настройки генеративного провайдера
type Options struct {
	Provider string // "openai", "anthropic" или "yandex"
	APIKey   string
	Model    string
	BaseURL  string
	FolderID string // только для YandexGPT
	Timeout  time.Duration
}

// New создает провайдера по имени. Отсутствие ключа - ошибка запуска, а не запроса.
func New(opts Options, log *zap.Logger) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "openai":
		p, err = NewOpenAIProvider(opts, log)
	case "anthropic":
		p, err = NewAnthropicProvider(opts, log)
	case "yandex", "yandexgpt":
		p, err = NewYandexGPTProvider(opts, log)
	default:
		return nil, errors.Errorf("неизвестный LLM провайдер %q", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TestConnection проверяет соединение с провайдером коротким запросом
func TestConnection(ctx context.Context, p Provider) error {
	resp, err := p.Chat(ctx, ChatRequest{
		Messages:  []Message{UserMessage("Ответь одним словом: 'работает'")},
		MaxTokens: 10,
	})
	if err != nil {
		return errors.Wrapf(err, "ошибка подключения к %s", p.Name())
	}
	if strings.TrimSpace(resp.Content) == "" {
		return errors.Errorf("%s вернул пустой ответ", p.Name())
	}
	return nil
}
