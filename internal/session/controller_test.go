package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"

	"NewsBot/internal/news"
	"NewsBot/internal/nlp"
	"NewsBot/internal/pipeline"
)

type recorder struct {
	mu      sync.Mutex
	replies []Reply
}

func (r *recorder) Reply(ctx context.Context, reply Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.replies))
	for _, reply := range r.replies {
		out = append(out, reply.Text)
	}
	return out
}

func (r *recorder) last() Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replies[len(r.replies)-1]
}

type fakeSource struct {
	mu       sync.Mutex
	articles []news.Article
	topics   []string
	panics   bool
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetNews(ctx context.Context, topic string, maxResults int) []news.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	if f.panics {
		panic("provider client exploded")
	}
	return f.articles
}

func (f *fakeSource) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

type fakeNLP struct {
	mu          sync.Mutex
	summaries   int
	classifies  int
	sentiment   nlp.Sentiment
	summaryText string
}

func (f *fakeNLP) Summarize(ctx context.Context, text, topic string, articleCount, maxTokens int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	return f.summaryText
}

func (f *fakeNLP) Classify(ctx context.Context, text string) nlp.Sentiment {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifies++
	return f.sentiment
}

func newTestController(src *fakeSource, n *fakeNLP) (*Controller, *Store) {
	store := NewStore()
	p := pipeline.New(src, n, n, zap.NewNop())
	return NewController(store, p, zap.NewNop()), store
}

func TestScenarioListTopNews(t *testing.T) {
	src := &fakeSource{articles: []news.Article{{Title: "A", URL: "u1"}, {Title: "B", URL: "u2"}}}
	c, store := newTestController(src, &fakeNLP{})
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", "/top_news", rec)
	assert.Equal(t, []string{TopNewsPrompt}, rec.texts())
	assert.Equal(t, Session{Pending: ActionTopNews}, store.Get("chat:1"))

	c.Handle(ctx, "chat:1", "quantum computing", rec)

	assert.Equal(t, []string{
		TopNewsPrompt,
		"🔍 Ищу новости по теме: «quantum computing»",
		"Топ новостей по теме «quantum computing»:\n\n1. A\nu1\n\n2. B\nu2",
	}, rec.texts())
	assert.Equal(t, true, rec.last().DisablePreview)
	assert.Equal(t, Session{}, store.Get("chat:1"))
}

func TestScenarioTopicTooShort(t *testing.T) {
	src := &fakeSource{}
	c, store := newTestController(src, &fakeNLP{})
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", LabelSummarize, rec)
	c.Handle(ctx, "chat:1", "x", rec)
	c.Handle(ctx, "chat:1", "  я  ", rec)

	assert.Equal(t, []string{SummarizePrompt, TopicTooShort, TopicTooShort}, rec.texts())
	assert.Equal(t, Session{Pending: ActionSummarize}, store.Get("chat:1"))
	assert.Equal(t, 0, len(src.seen()))
}

func TestScenarioInsufficientData(t *testing.T) {
	n := &fakeNLP{}
	c, store := newTestController(&fakeSource{}, n)
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", "/extra", rec)
	c.Handle(ctx, "chat:1", "inflation", rec)

	assert.Equal(t, InsufficientData, rec.last().Text)
	assert.Equal(t, 0, n.summaries)
	assert.Equal(t, 0, n.classifies)
	assert.Equal(t, true, store.Get("chat:1").Idle())
}

func TestAnalysisRendering(t *testing.T) {
	tests := []struct {
		name      string
		sentiment nlp.Sentiment
		want      string
	}{
		{name: "label", sentiment: nlp.SentimentNegative, want: "Краткая выжимка:\nЦены выросли.\n\nТональность: Negative"},
		{name: "unknown", sentiment: nlp.SentimentUnknown, want: "Краткая выжимка:\nЦены выросли.\n\nТональность: " + SentimentPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{articles: []news.Article{{Description: "D1"}}}
			c, _ := newTestController(src, &fakeNLP{summaryText: "Цены выросли.", sentiment: tt.sentiment})
			rec := &recorder{}

			c.Handle(context.Background(), "chat:1", "/extra", rec)
			c.Handle(context.Background(), "chat:1", "инфляция", rec)

			assert.Equal(t, []string{SummarizePrompt, "📝 Анализирую тему: «инфляция»", tt.want}, rec.texts())
		})
	}
}

func TestIdleTextAsksForAction(t *testing.T) {
	src := &fakeSource{}
	c, _ := newTestController(src, &fakeNLP{})
	rec := &recorder{}

	c.Handle(context.Background(), "chat:1", "экономика", rec)

	assert.Equal(t, ChooseAction, rec.last().Text)
	assert.Equal(t, true, rec.last().ShowMenu)
	assert.Equal(t, 0, len(src.seen()))
}

func TestNewCommandDiscardsPendingAction(t *testing.T) {
	src := &fakeSource{articles: []news.Article{{Title: "A", URL: "u1", Description: "D1"}}}
	n := &fakeNLP{summaryText: "S", sentiment: nlp.SentimentNeutral}
	c, store := newTestController(src, n)
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", "/top_news", rec)
	c.Handle(ctx, "chat:1", "x", rec)
	c.Handle(ctx, "chat:1", "/extra", rec)
	assert.Equal(t, Session{Pending: ActionSummarize}, store.Get("chat:1"))

	c.Handle(ctx, "chat:1", "космос", rec)

	assert.Equal(t, []string{"космос"}, src.seen())
	assert.Equal(t, 1, n.summaries)
	assert.Equal(t, true, strings.HasPrefix(rec.last().Text, "Краткая выжимка:"))
}

func TestTopicIsNotReusedAfterCompletion(t *testing.T) {
	src := &fakeSource{articles: []news.Article{{Title: "A", URL: "u1"}}}
	c, store := newTestController(src, &fakeNLP{})
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", "/top_news", rec)
	c.Handle(ctx, "chat:1", "первая тема", rec)
	c.Handle(ctx, "chat:1", "вторая тема", rec)

	assert.Equal(t, []string{"первая тема"}, src.seen())
	assert.Equal(t, ChooseAction, rec.last().Text)
	assert.Equal(t, "", store.Get("chat:1").Topic)
}

func TestNoResultsAndStartHelp(t *testing.T) {
	c, _ := newTestController(&fakeSource{}, &fakeNLP{})
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", "/start", rec)
	c.Handle(ctx, "chat:1", "Помощь", rec)
	c.Handle(ctx, "chat:1", "/unknown", rec)
	c.Handle(ctx, "chat:1", "/top_news", rec)
	c.Handle(ctx, "chat:1", "пусто", rec)

	texts := rec.texts()
	assert.Equal(t, WelcomeText, texts[0])
	assert.Equal(t, true, rec.replies[0].ShowMenu)
	assert.Equal(t, HelpText, texts[1])
	assert.Equal(t, UnknownCommand, texts[2])
	assert.Equal(t, NoNewsFound, texts[len(texts)-1])
}

func TestSessionsAreIsolated(t *testing.T) {
	src := &fakeSource{articles: []news.Article{{Title: "A", URL: "u1", Description: "D1"}}}
	n := &fakeNLP{summaryText: "S", sentiment: nlp.SentimentPositive}
	c, store := newTestController(src, n)
	ctx := context.Background()

	recA, recB := &recorder{}, &recorder{}
	c.Handle(ctx, "chat:a", "/top_news", recA)
	c.Handle(ctx, "chat:b", "/extra", recB)

	assert.Equal(t, ActionTopNews, store.Get("chat:a").Pending)
	assert.Equal(t, ActionSummarize, store.Get("chat:b").Pending)

	c.Handle(ctx, "chat:a", "тема A", recA)

	assert.Equal(t, true, store.Get("chat:a").Idle())
	assert.Equal(t, Session{Pending: ActionSummarize}, store.Get("chat:b"))
	assert.Equal(t, true, strings.HasPrefix(recA.last().Text, "Топ новостей"))
	assert.Equal(t, SummarizePrompt, recB.last().Text)
}

func TestConcurrentSessions(t *testing.T) {
	src := &fakeSource{articles: []news.Article{{Title: "A", URL: "u1", Description: "D1"}}}
	n := &fakeNLP{summaryText: "S", sentiment: nlp.SentimentNeutral}
	c, store := newTestController(src, n)
	ctx := context.Background()

	const sessions = 20
	recorders := make([]*recorder, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		recorders[i] = &recorder{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key(fmt.Sprintf("chat:%d", i))
			cmd := "/top_news"
			if i%2 == 1 {
				cmd = "/extra"
			}
			c.Handle(ctx, key, cmd, recorders[i])
			c.Handle(ctx, key, fmt.Sprintf("тема %d", i), recorders[i])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
	for i, rec := range recorders {
		texts := rec.texts()
		assert.Equal(t, 3, len(texts))
		if i%2 == 0 {
			assert.Equal(t, fmt.Sprintf("Топ новостей по теме «тема %d»:\n\n1. A\nu1", i), texts[2])
		} else {
			assert.Equal(t, "Краткая выжимка:\nS\n\nТональность: Neutral", texts[2])
		}
		assert.Equal(t, true, store.Get(Key(fmt.Sprintf("chat:%d", i))).Idle())
	}
}

func TestMessagesOfOneSessionDoNotOverlap(t *testing.T) {
	store := NewStore()
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Do("chat:1", func(s *Session) {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()

				s.Pending = ActionTopNews

				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, false, overlap)
}

func TestProcessingFailureResetsSession(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{name: "top news", command: "/top_news"},
		{name: "summarize", command: "/extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{panics: true}
			c, store := newTestController(src, &fakeNLP{})
			rec := &recorder{}
			ctx := context.Background()

			c.Handle(ctx, "chat:1", tt.command, rec)
			c.Handle(ctx, "chat:1", "инфляция", rec)

			assert.Equal(t, ProcessingFailed, rec.last().Text)
			assert.Equal(t, true, store.Get("chat:1").Idle())

			c.Handle(ctx, "chat:1", "инфляция", rec)
			assert.Equal(t, ChooseAction, rec.last().Text)
			assert.Equal(t, 1, len(src.seen()))
		})
	}
}

func TestSummarizerPanicRendersFailure(t *testing.T) {
	src := &fakeSource{articles: []news.Article{{Description: "D1"}}}
	store := NewStore()
	p := pipeline.New(src, panickingSummarizer{}, &fakeNLP{}, zap.NewNop())
	c := NewController(store, p, zap.NewNop())
	rec := &recorder{}

	c.Handle(context.Background(), "chat:1", "/extra", rec)
	c.Handle(context.Background(), "chat:1", "инфляция", rec)

	assert.Equal(t, ProcessingFailed, rec.last().Text)
	assert.Equal(t, true, store.Get("chat:1").Idle())
}

type panickingSummarizer struct{}

func (panickingSummarizer) Summarize(ctx context.Context, text, topic string, articleCount, maxTokens int) string {
	panic("llm client exploded")
}

func TestUnknownCommandWhileAwaitingTopic(t *testing.T) {
	src := &fakeSource{}
	c, store := newTestController(src, &fakeNLP{})
	rec := &recorder{}
	ctx := context.Background()

	c.Handle(ctx, "chat:1", "/top_news", rec)
	c.Handle(ctx, "chat:1", "/quantum", rec)

	assert.Equal(t, UnknownCommand, rec.last().Text)
	assert.Equal(t, Session{Pending: ActionTopNews}, store.Get("chat:1"))
	assert.Equal(t, 0, len(src.seen()))
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	c, store := newTestController(&fakeSource{articles: []news.Article{{Title: "A", URL: "u1"}}}, &fakeNLP{})
	rec := &recorder{}
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		c.Handle(ctx, Key(fmt.Sprintf("http:%d", i)), "привет", rec)
	}
	assert.Equal(t, 0, store.Len())

	c.Handle(ctx, "http:pending", "/top_news", rec)
	assert.Equal(t, 1, store.Len())

	c.Handle(ctx, "http:pending", "космос", rec)
	assert.Equal(t, 0, store.Len())
}
