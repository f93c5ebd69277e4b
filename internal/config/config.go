package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Транспорты Telegram
const (
	TransportBotAPI  = "botapi"
	TransportMTProto = "mtproto"
)

// Config конфигурация приложения
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	News     NewsConfig     `yaml:"news"`
	LLM      LLMConfig      `yaml:"llm"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig настройки транспорта Telegram
type TelegramConfig struct {
	Transport  string `yaml:"transport"`
	Token      string `yaml:"token"`
	APIID      int    `yaml:"api_id"`
	APIHash    string `yaml:"api_hash"`
	SessionDir string `yaml:"session_dir"`
}

// NewsConfig провайдеры новостей и их ключи
type NewsConfig struct {
	Provider       string   `yaml:"provider"`
	Fallback       []string `yaml:"fallback"`
	Language       string   `yaml:"language"`
	Country        string   `yaml:"country"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxRetries     int      `yaml:"max_retries"`
	GNewsAPIKey    string   `yaml:"gnews_api_key"`
	NewsAPIKey     string   `yaml:"newsapi_key"`
}

// LLMConfig генеративный провайдер и его ключи
type LLMConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	TestConnection  bool   `yaml:"test_connection"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	YandexAPIKey    string `yaml:"yandex_api_key"`
	YandexFolderID  string `yaml:"yandex_folder_id"`
}

// HTTPConfig HTTP API, пустой Addr отключает сервер
type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// LoggingConfig уровень и файл логов
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			Transport:  TransportBotAPI,
			SessionDir: "tdsession",
		},
		News: NewsConfig{
			Provider:       "gnews",
			Language:       "ru",
			TimeoutSeconds: 15,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			TimeoutSeconds: 30,
		},
		HTTP: HTTPConfig{
			AllowOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs.txt",
		},
	}
}

// Load читает YAML поверх значений по умолчанию, затем .env и переменные окружения.
// Отсутствие файла конфигурации или .env не считается ошибкой.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "разбор %s", path)
		}
	case os.IsNotExist(err):
	default:
		return cfg, errors.Wrapf(err, "чтение %s", path)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, errors.Wrap(err, "загрузка .env")
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv переопределяет значения из окружения. Непустая переменная побеждает файл.
func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Telegram.Token, "TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	set(&c.Telegram.APIHash, "API_HASH")
	set(&c.Telegram.Transport, "TELEGRAM_TRANSPORT")
	set(&c.News.Provider, "NEWS_PROVIDER")
	set(&c.News.GNewsAPIKey, "GNEWS_API_KEY")
	set(&c.News.NewsAPIKey, "NEWS_API_KEY")
	set(&c.LLM.Provider, "LLM_PROVIDER")
	set(&c.LLM.Model, "LLM_MODEL")
	set(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY", "OPENAI_APIKEY")
	set(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&c.LLM.YandexAPIKey, "YANDEX_GPT_API_KEY")
	set(&c.LLM.YandexFolderID, "YANDEX_FOLDER_ID")
	set(&c.HTTP.Addr, "HTTP_ADDR")
	set(&c.Logging.Level, "LOG_LEVEL")

	if v := strings.TrimSpace(getenv("API_ID")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "неверный API_ID")
		}
		c.Telegram.APIID = id
	}
	return nil
}

// Validate проверяет, что для выбранных провайдеров есть все необходимое
func (c Config) Validate() error {
	var err error

	switch c.Telegram.Transport {
	case TransportBotAPI:
	case TransportMTProto:
		if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" {
			err = multierr.Append(err, errors.New("API_ID и API_HASH обязательны для mtproto"))
		}
	default:
		err = multierr.Append(err, errors.Errorf("неизвестный транспорт %q", c.Telegram.Transport))
	}
	if c.Telegram.Token == "" {
		err = multierr.Append(err, errors.New("TELEGRAM_TOKEN не задан"))
	}

	for _, p := range c.News.Providers() {
		switch p {
		case "gnews", "newsapi", "rss":
		default:
			err = multierr.Append(err, errors.Errorf("неизвестный провайдер новостей %q", p))
		}
	}

	switch c.LLM.Provider {
	case "openai", "anthropic", "yandex":
	default:
		err = multierr.Append(err, errors.Errorf("неизвестный LLM провайдер %q", c.LLM.Provider))
	}

	return err
}

// Providers основной провайдер новостей и резервные, без повторов
func (n NewsConfig) Providers() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 1+len(n.Fallback))
	for _, p := range append([]string{n.Provider}, n.Fallback...) {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// APIKey ключ для провайдера новостей name
func (n NewsConfig) APIKey(name string) string {
	switch name {
	case "gnews":
		return n.GNewsAPIKey
	case "newsapi":
		return n.NewsAPIKey
	default:
		return ""
	}
}

func (n NewsConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// APIKey ключ выбранного LLM провайдера
func (l LLMConfig) APIKey() string {
	switch l.Provider {
	case "anthropic":
		return l.AnthropicAPIKey
	case "yandex":
		return l.YandexAPIKey
	default:
		return l.OpenAIAPIKey
	}
}

func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}
