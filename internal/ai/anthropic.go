package ai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// AnthropicProvider работает с Messages API Anthropic
type AnthropicProvider struct {
	client *anthropic.Client
	model  anthropic.Model
	log    *zap.Logger
}

// NewAnthropicProvider создает провайдера Anthropic
func NewAnthropicProvider(opts Options, log *zap.Logger) (*AnthropicProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY не установлен")
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

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	client := anthropic.NewClient(reqOpts...)
	return &AnthropicProvider{
		client: &client,
		model:  model,
		log:    log.Named("anthropic"),
	}, nil
}

func (c *AnthropicProvider) Name() string { return "anthropic" }

func (c *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return nil, errors.Wrap(err, "anthropic API error")
	}

	if len(resp.Content) == 0 {
		return nil, errors.New("no response from anthropic")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		sb.WriteString(block.Text)
	}

	tokens := int(resp.Usage.InputTokens + resp.Usage.OutputTokens)
	c.log.Debug("Ответ Anthropic получен", zap.String("model", string(resp.Model)), zap.Int("tokens", tokens))

	return &ChatResponse{
		Content:    sb.String(),
		TokensUsed: tokens,
		Model:      string(resp.Model),
		Provider:   c.Name(),
	}, nil
}
