package news

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// NewSource создает источник новостей по имени провайдера
func NewSource(provider string, opts Options, log *zap.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gnews":
		return NewGNewsSource(opts, log), nil
	case "newsapi":
		return NewNewsAPISource(opts, log), nil
	case "rss":
		return NewRSSSource(opts, log), nil
	default:
		return nil, errors.Errorf("неизвестный провайдер новостей %q", provider)
	}
}

// Aggregator опрашивает источники по очереди и возвращает первый непустой результат
type Aggregator struct {
	sources []Source
	log     *zap.Logger
}

// NewAggregator создает агрегатор новостей
func NewAggregator(log *zap.Logger, sources ...Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		log:     log.Named("aggregator"),
	}
}

// AddSource добавляет источник новостей в конец очереди
func (a *Aggregator) AddSource(source Source) {
	a.sources = append(a.sources, source)
}

func (a *Aggregator) Name() string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (a *Aggregator) GetNews(ctx context.Context, topic string, maxResults int) []Article {
	for _, source := range a.sources {
		articles := source.GetNews(ctx, topic, maxResults)
		if len(articles) > 0 {
			return articles
		}
		if ctx.Err() != nil {
			break
		}
		a.log.Warn("Источник не вернул новостей", zap.String("source", source.Name()), zap.String("topic", topic))
	}
	return []Article{}
}
