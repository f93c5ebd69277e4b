package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"
)

const googleNewsFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>"инфляция" - Google Новости</title>
  <item>
    <title>Инфляция замедлилась до 5% - РИА Новости</title>
    <link>https://example.com/old</link>
    <pubDate>Mon, 02 Mar 2026 09:00:00 GMT</pubDate>
    <description>&lt;a href="https://example.com/old"&gt;Инфляция замедлилась до 5%&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;РИА Новости&lt;/font&gt;</description>
  </item>
  <item>
    <title>ЦБ оценил рост цен - Интерфакс</title>
    <link>https://example.com/new</link>
    <pubDate>Tue, 03 Mar 2026 10:00:00 GMT</pubDate>
    <description>Регулятор опубликовал &lt;b&gt;обзор&lt;/b&gt;</description>
  </item>
  <item>
    <title>Без ссылки</title>
    <pubDate>Wed, 04 Mar 2026 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func TestRSSGetNews(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"q": q.Get("q"), "hl": q.Get("hl"), "gl": q.Get("gl"), "ceid": q.Get("ceid")}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(googleNewsFixture))
	}))
	defer srv.Close()

	src := NewRSSSource(Options{BaseURL: srv.URL}, zap.NewNop())
	articles := src.GetNews(context.Background(), "инфляция", 5)

	assert.Equal(t, "инфляция", query["q"])
	assert.Equal(t, "ru", query["hl"])
	assert.Equal(t, "RU", query["gl"])
	assert.Equal(t, "RU:ru", query["ceid"])

	assert.Equal(t, 2, len(articles))

	assert.Equal(t, "ЦБ оценил рост цен", articles[0].Title)
	assert.Equal(t, "Интерфакс", articles[0].SourceName)
	assert.Equal(t, "https://example.com/new", articles[0].URL)
	assert.Equal(t, "Регулятор опубликовал обзор", articles[0].Description)

	assert.Equal(t, "Инфляция замедлилась до 5%", articles[1].Title)
	assert.Equal(t, "РИА Новости", articles[1].SourceName)
	assert.Equal(t, "Инфляция замедлилась до 5% РИА Новости", articles[1].Description)
	assert.Equal(t, false, articles[1].PublishedAt.IsZero())
}

func TestRSSLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(googleNewsFixture))
	}))
	defer srv.Close()

	src := NewRSSSource(Options{BaseURL: srv.URL}, zap.NewNop())
	articles := src.GetNews(context.Background(), "инфляция", 1)

	assert.Equal(t, 1, len(articles))
	assert.Equal(t, "https://example.com/new", articles[0].URL)
}

func TestRSSFailuresReturnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "not a feed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("definitely not xml"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewRSSSource(Options{BaseURL: srv.URL}, zap.NewNop())
			assert.Equal(t, 0, len(src.GetNews(context.Background(), "инфляция", 5)))
		})
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		title      string
		wantTitle  string
		wantSource string
	}{
		{"Новость - Издание", "Новость", "Издание"},
		{"Курс - рубля - ТАСС", "Курс - рубля", "ТАСС"},
		{"Просто заголовок", "Просто заголовок", "fallback"},
		{"  Пробелы - РБК  ", "Пробелы", "РБК"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			title, source := splitTitle(tt.title, "fallback")
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "", htmlToText("  "))
	assert.Equal(t, "plain text", htmlToText("plain   text"))
	assert.Equal(t, "a b & c", htmlToText("<p>a</p> <b>b</b> &amp; c"))
}
