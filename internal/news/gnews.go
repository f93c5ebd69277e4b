package news

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const gnewsBaseURL = "https://gnews.io/api/v4/search"

// GNewsSource ищет новости через GNews API (https://gnews.io/docs/v4)
type GNewsSource struct {
	opts    Options
	fetcher fetcher
	log     *zap.Logger
}

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// NewGNewsSource создает источник GNews
func NewGNewsSource(opts Options, log *zap.Logger) *GNewsSource {
	if opts.BaseURL == "" {
		opts.BaseURL = gnewsBaseURL
	}
	if opts.Language == "" {
		opts.Language = "ru"
	}
	return &GNewsSource{
		opts:    opts,
		fetcher: newFetcher(opts),
		log:     log.Named("gnews"),
	}
}

func (s *GNewsSource) Name() string { return "gnews" }

// GetNews возвращает до maxResults свежих статей по теме
func (s *GNewsSource) GetNews(ctx context.Context, topic string, maxResults int) []Article {
	if s.opts.APIKey == "" {
		logFailure(s.log, topic, ErrMissingAPIKey)
		return []Article{}
	}

	limit := clampLimit(maxResults)
	params := url.Values{}
	params.Set("q", topic)
	params.Set("max", strconv.Itoa(limit))
	params.Set("lang", s.opts.Language)
	params.Set("sortby", "publishedAt")
	params.Set("apikey", s.opts.APIKey)

	var raw gnewsResponse
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
