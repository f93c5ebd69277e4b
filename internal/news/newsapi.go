package news

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPISource ищет новости через NewsAPI (https://newsapi.org/docs).
// Бесплатный тариф ограничен 100 запросами в сутки.
type NewsAPISource struct {
	opts    Options
	fetcher fetcher
	log     *zap.Logger
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// NewNewsAPISource создает источник NewsAPI
func NewNewsAPISource(opts Options, log *zap.Logger) *NewsAPISource {
	if opts.BaseURL == "" {
		opts.BaseURL = newsAPIBaseURL
	}
	if opts.Language == "" {
		opts.Language = "ru"
	}
	return &NewsAPISource{
		opts:    opts,
		fetcher: newFetcher(opts),
		log:     log.Named("newsapi"),
	}
}

func (s *NewsAPISource) Name() string { return "newsapi" }

func (s *NewsAPISource) GetNews(ctx context.Context, topic string, maxResults int) []Article {
	if s.opts.APIKey == "" {
		logFailure(s.log, topic, ErrMissingAPIKey)
		return []Article{}
	}

	limit := clampLimit(maxResults)
	params := url.Values{}
	params.Set("q", topic)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("language", s.opts.Language)
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", s.opts.APIKey)

	var raw newsAPIResponse
	if err := s.fetcher.getJSON(ctx, s.opts.BaseURL+"?"+params.Encode(), &raw); err != nil {
		logFailure(s.log, topic, err)
		return []Article{}
	}

	articles := make([]Article, 0, limit)
	for _, item := range raw.Articles {
		if len(articles) == limit {
			break
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			PublishedAt: parsePublishedAt(item.PublishedAt),
			SourceName:  item.Source.Name,
			Content:     item.Content,
		})
	}

	s.log.Info("Найдены новости", zap.String("topic", topic), zap.Int("count", len(articles)))
	return articles
}
