package ai

import "context"

// Provider интерфейс генеративного бэкенда (OpenAI, Anthropic, YandexGPT)
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
}

// Роли сообщений в диалоге
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest запрос к генеративной модели, не зависящий от провайдера
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatResponse ответ генеративной модели
type ChatResponse struct {
	Content    string
	TokensUsed int
	Model      string
	Provider   string
}

// Message представляет одно сообщение в диалоге
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage создает системное сообщение
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage создает сообщение пользователя
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
