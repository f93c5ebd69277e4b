package nlp

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"NewsBot/internal/ai"
	"NewsBot/internal/news"
)

// SummaryUnavailable возвращается вместо выжимки, если генерация не удалась.
// Пользователь видит этот текст как есть.
const SummaryUnavailable = "Не удалось получить краткую выжимку новостей."

const (
	summarySystemPrompt   = "You are a journalist who performs a news analysis."
	sentimentSystemPrompt = "You are a sentiment analysis expert."

	summaryTemperature   = 0.4
	sentimentMaxTokens   = 10
	sentimentTemperature = 0.0
)

// Sentiment метка тональности, как ее вернула модель
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"

	// SentimentUnknown означает, что классифицировать не удалось
	SentimentUnknown Sentiment = ""
)

// Service суммаризирует и классифицирует новости через генеративную модель
type Service struct {
	provider ai.Provider
	log      *zap.Logger
}

// NewService создает NLP сервис поверх провайдера
func NewService(provider ai.Provider, log *zap.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.Named("nlp"),
	}
}

// PrepareText собирает описания первых limit статей в строки "- описание".
// Статьи без описания пропускаются.
func PrepareText(articles []news.Article, limit int) string {
	if limit > len(articles) {
		limit = len(articles)
	}
	lines := make([]string, 0, limit)
	for _, a := range articles[:limit] {
		if a.Description == "" {
			continue
		}
		lines = append(lines, "- "+a.Description)
	}
	return strings.Join(lines, "\n")
}

// Summarize делает короткую нейтральную выжимку. При ошибке возвращает SummaryUnavailable.
func (s *Service) Summarize(ctx context.Context, text, topic string, articleCount, maxTokens int) string {
	prompt := fmt.Sprintf(`Summarize the following %d news articles about "%s" in 2-4 sentences.
Requirements:
- neutral, factual tone without opinions or assessments;
- do not repeat the same facts;
- write in the same language as the articles;
- do not start with phrases like "In summary" or "To conclude".

Articles:
%s`, articleCount, topic, text)

	resp, err := s.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			ai.SystemMessage(summarySystemPrompt),
			ai.UserMessage(prompt),
		},
		Temperature: summaryTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		s.log.Error("Ошибка суммаризации", zap.String("topic", topic), zap.Error(err))
		return SummaryUnavailable
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		s.log.Error("Модель вернула пустую выжимку", zap.String("topic", topic))
		return SummaryUnavailable
	}
	return summary
}

// Classify определяет тональность текста. При ошибке возвращает SentimentUnknown.
func (s *Service) Classify(ctx context.Context, text string) Sentiment {
	prompt := fmt.Sprintf(`Classify the sentiment of the following news as Positive, Negative or Neutral.
Answer in the same language as the text, with one word only.

%s`, text)

	resp, err := s.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			ai.SystemMessage(sentimentSystemPrompt),
			ai.UserMessage(prompt),
		},
		Temperature: sentimentTemperature,
		MaxTokens:   sentimentMaxTokens,
	})
	if err != nil {
		s.log.Error("Ошибка анализа тональности", zap.Error(err))
		return SentimentUnknown
	}

	return normalizeLabel(resp.Content)
}

// normalizeLabel убирает пробелы, кавычки и финальную точку вокруг метки
func normalizeLabel(raw string) Sentiment {
	label := strings.TrimSpace(raw)
	label = strings.Trim(label, "\"'«»`")
	label = strings.TrimRight(label, ".!")
	return Sentiment(strings.TrimSpace(label))
}
