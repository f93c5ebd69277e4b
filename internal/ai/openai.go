package ai

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIProvider работает с Chat Completions API OpenAI
type OpenAIProvider struct {
	client *openai.Client
	model  openai.ChatModel
	log    *zap.Logger
}

// NewOpenAIProvider создает провайдера OpenAI
func NewOpenAIProvider(opts Options, log *zap.Logger) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY не установлен")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	model := openai.ChatModel(opts.Model)
	if opts.Model == "" {
		model = openai.ChatModelGPT4oMini
	}

	client := openai.NewClient(reqOpts...)
	return &OpenAIProvider{
		client: &client,
		model:  model,
		log:    log.Named("openai"),
	}, nil
}

func (c *OpenAIProvider) Name() string { return "openai" }

func (c *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai API error")
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	c.log.Debug("Ответ OpenAI получен", zap.String("model", resp.Model), zap.Int64("tokens", resp.Usage.TotalTokens))

	return &ChatResponse{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
		Model:      resp.Model,
		Provider:   c.Name(),
	}, nil
}
