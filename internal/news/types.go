package news

import (
	"context"
	"time"
)

// MaxPageSize максимальное количество статей, которое отдает провайдер за один запрос
const MaxPageSize = 10

// Article представляет одну новостную статью в едином формате для всех провайдеров
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"` // нулевое значение, если дата неизвестна
	SourceName  string    `json:"source_name"`
	Content     string    `json:"content"`
}

// Source представляет источник новостей с поиском по теме.
//
// GetNews никогда не возвращает ошибку: любой сбой провайдера логируется
// и превращается в пустой список. Пустой список - единственный сигнал неудачи.
type Source interface {
	GetNews(ctx context.Context, topic string, maxResults int) []Article
	Name() string
}

// clampLimit ограничивает количество запрашиваемых статей диапазоном [1, MaxPageSize]
func clampLimit(maxResults int) int {
	if maxResults < 1 {
		return 1
	}
	if maxResults > MaxPageSize {
		return MaxPageSize
	}
	return maxResults
}

// parsePublishedAt разбирает дату публикации в формате RFC3339
func parsePublishedAt(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
