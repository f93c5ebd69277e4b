package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const yandexBaseURL = "https://llm.api.cloud.yandex.net/v1/chat/completions"

// YandexGPTProvider работает с OpenAI-совместимым chat/completions API YandexGPT
type YandexGPTProvider struct {
	apiKey     string
	folderID   string
	modelURI   string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// chatCompletionRequest структура запроса для chat/completions
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatCompletionResponse структура ответа от chat/completions
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewYandexGPTProvider создает провайдера YandexGPT
func NewYandexGPTProvider(opts Options, log *zap.Logger) (*YandexGPTProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("YANDEX_GPT_API_KEY не установлен")
	}
	if opts.FolderID == "" {
		return nil, errors.New("YANDEX_FOLDER_ID не установлен")
	}

	model := opts.Model
	if model == "" {
		model = "yandexgpt-lite/rc"
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = yandexBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &YandexGPTProvider{
		apiKey:     opts.APIKey,
		folderID:   opts.FolderID,
		modelURI:   fmt.Sprintf("gpt://%s/%s", opts.FolderID, model),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("yandexgpt"),
	}, nil
}

func (c *YandexGPTProvider) Name() string { return "yandex" }

// Chat отправляет диалог в YandexGPT и возвращает ответ модели
func (c *YandexGPTProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body := chatCompletionRequest{
		Model:       c.modelURI,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "маршалинг запроса")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "создание запроса")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Api-Key "+c.apiKey)
	httpReq.Header.Set("OpenAI-Project", c.folderID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "выполнение запроса")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "чтение ответа")
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := extractAPIError(respBody)
		if errMsg == "" {
			errMsg = strings.TrimSpace(string(respBody))
		}
		c.log.Error("Ошибка API YandexGPT", zap.Int("status", resp.StatusCode), zap.String("error", errMsg))
		return nil, errors.Errorf("YandexGPT вернул статус %d: %s", resp.StatusCode, errMsg)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(err, "парсинг ответа")
	}

	if len(chatResp.Choices) == 0 {
		return nil, errors.New("пустой ответ от YandexGPT")
	}

	c.log.Debug("Ответ YandexGPT получен",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("tokens", chatResp.Usage.TotalTokens),
	)

	return &ChatResponse{
		Content:    chatResp.Choices[0].Message.Content,
		TokensUsed: chatResp.Usage.TotalTokens,
		Model:      c.modelURI,
		Provider:   c.Name(),
	}, nil
}

// extractAPIError достает текст ошибки из JSON вида {"error":"..."} или {"error":{"message":"..."}}
func extractAPIError(body []byte) string {
	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &flat) == nil {
		if flat.Error != "" {
			return flat.Error
		}
		if flat.Message != "" {
			return flat.Message
		}
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	return ""
}
