package news

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const googleNewsRSSURL = "https://news.google.com/rss/search"

// RSSSource ищет новости через RSS-поиск Google News. Ключ API не нужен.
type RSSSource struct {
	opts    Options
	fetcher fetcher
	parser  *gofeed.Parser
	log     *zap.Logger
}

// NewRSSSource создает RSS-источник
func NewRSSSource(opts Options, log *zap.Logger) *RSSSource {
	if opts.BaseURL == "" {
		opts.BaseURL = googleNewsRSSURL
	}
	if opts.Language == "" {
		opts.Language = "ru"
	}
	if opts.Country == "" {
		opts.Country = strings.ToUpper(opts.Language)
	}

	f := newFetcher(opts)
	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	return &RSSSource{
		opts:    opts,
		fetcher: f,
		parser:  parser,
		log:     log.Named("rss"),
	}
}

func (s *RSSSource) Name() string { return "rss" }

func (s *RSSSource) GetNews(ctx context.Context, topic string, maxResults int) []Article {
	limit := clampLimit(maxResults)

	params := url.Values{}
	params.Set("q", topic)
	params.Set("hl", s.opts.Language)
	params.Set("gl", s.opts.Country)
	params.Set("ceid", s.opts.Country+":"+s.opts.Language)
	feedURL := s.opts.BaseURL + "?" + params.Encode()

	var feed *gofeed.Feed
	err := s.fetcher.retry(ctx, func() error {
		parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			var httpErr gofeed.HTTPError
			if errors.As(err, &httpErr) {
				return &StatusError{Code: httpErr.StatusCode}
			}
			return errors.Wrap(err, "разбор RSS")
		}
		feed = parsed
		return nil
	})
	if err != nil {
		logFailure(s.log, topic, err)
		return []Article{}
	}

	items := make([]*gofeed.Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	sortByPublished(items)

	articles := make([]Article, 0, limit)
	for _, item := range items {
		if len(articles) == limit {
			break
		}
		title, sourceName := splitTitle(item.Title, feed.Title)
		article := Article{
			Title:       title,
			Description: htmlToText(item.Description),
			URL:         item.Link,
			SourceName:  sourceName,
			Content:     htmlToText(item.Content),
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, article)
	}

	s.log.Info("Найдены новости", zap.String("topic", topic), zap.Int("count", len(articles)))
	return articles
}

// sortByPublished сортирует элементы ленты от новых к старым, элементы без даты в конце
func sortByPublished(items []*gofeed.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedParsed, items[j].PublishedParsed
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}

// splitTitle отделяет название издания от заголовка вида "Заголовок - Издание"
func splitTitle(title, fallbackSource string) (string, string) {
	title = strings.TrimSpace(title)
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
	}
	return title, fallbackSource
}

// htmlToText очищает текст от HTML тегов, сущностей и лишних пробелов
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
