package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"NewsBot/internal/news"
	"NewsBot/internal/nlp"
)

const (
	// TopNewsLimit сколько статей запрашивается у источника
	TopNewsLimit = 5
	// AnalyzeArticles сколько описаний попадает в текст для анализа
	AnalyzeArticles = 3
	// SummaryMaxTokens бюджет ответа для выжимки
	SummaryMaxTokens = 200
)

// UntitledPlaceholder подставляется вместо пустого заголовка
const UntitledPlaceholder = "Без заголовка"

// Outcome итог операции конвейера
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeNoResults источник ничего не нашел
	OutcomeNoResults
	// OutcomeFailed обработка сломалась
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Summarizer делает выжимку по агрегированному тексту
type Summarizer interface {
	Summarize(ctx context.Context, text, topic string, articleCount, maxTokens int) string
}

// Classifier определяет тональность агрегированного текста
type Classifier interface {
	Classify(ctx context.Context, text string) nlp.Sentiment
}

// Headline строка списка новостей, Position начинается с 1
type Headline struct {
	Position int
	Title    string
	URL      string
}

// TopNewsResult результат поиска заголовков по теме
type TopNewsResult struct {
	Outcome   Outcome
	Topic     string
	Headlines []Headline
}

// AnalysisResult выжимка и тональность новостей по теме
type AnalysisResult struct {
	Outcome   Outcome
	Topic     string
	Summary   string
	Sentiment nlp.Sentiment
}

// Pipeline ищет новости и обогащает их выжимкой и тональностью
type Pipeline struct {
	source     news.Source
	summarizer Summarizer
	classifier Classifier
	log        *zap.Logger
}

// New создает конвейер
func New(source news.Source, summarizer Summarizer, classifier Classifier, log *zap.Logger) *Pipeline {
	return &Pipeline{
		source:     source,
		summarizer: summarizer,
		classifier: classifier,
		log:        log.Named("pipeline"),
	}
}

// TopNews возвращает нумерованный список заголовков по теме
func (p *Pipeline) TopNews(ctx context.Context, topic string) (res TopNewsResult) {
	res.Topic = topic
	log := p.log.With(zap.String("request_id", uuid.NewString()), zap.String("op", "top_news"), zap.String("topic", topic))

	defer func() {
		if err := recovered(recover()); err != nil {
			p.fail(log, err)
			res = TopNewsResult{Outcome: OutcomeFailed, Topic: topic}
		}
	}()

	articles := p.source.GetNews(ctx, topic, TopNewsLimit)
	if err := ctx.Err(); err != nil {
		p.fail(log, errors.Wrap(err, "поиск новостей"))
		res.Outcome = OutcomeFailed
		return res
	}
	if len(articles) == 0 {
		log.Info("Новости не найдены")
		res.Outcome = OutcomeNoResults
		return res
	}

	res.Headlines = make([]Headline, 0, len(articles))
	for i, a := range articles {
		title := a.Title
		if title == "" {
			title = UntitledPlaceholder
		}
		res.Headlines = append(res.Headlines, Headline{Position: i + 1, Title: title, URL: a.URL})
	}

	log.Info("Список новостей готов", zap.Int("count", len(res.Headlines)))
	res.Outcome = OutcomeSuccess
	return res
}

// Analyze делает выжимку и определяет тональность новостей по теме.
// Выжимка и тональность считаются параллельно.
func (p *Pipeline) Analyze(ctx context.Context, topic string) (res AnalysisResult) {
	res.Topic = topic
	log := p.log.With(zap.String("request_id", uuid.NewString()), zap.String("op", "analyze"), zap.String("topic", topic))

	defer func() {
		if err := recovered(recover()); err != nil {
			p.fail(log, err)
			res = AnalysisResult{Outcome: OutcomeFailed, Topic: topic}
		}
	}()

	articles := p.source.GetNews(ctx, topic, TopNewsLimit)
	if err := ctx.Err(); err != nil {
		p.fail(log, errors.Wrap(err, "поиск новостей"))
		res.Outcome = OutcomeFailed
		return res
	}
	if len(articles) == 0 {
		log.Info("Недостаточно данных для анализа")
		res.Outcome = OutcomeNoResults
		return res
	}

	text := nlp.PrepareText(articles, AnalyzeArticles)

	var (
		summary   string
		sentiment nlp.Sentiment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() { err = recovered(recover()) }()
		summary = p.summarizer.Summarize(gctx, text, topic, AnalyzeArticles, SummaryMaxTokens)
		return nil
	})
	g.Go(func() (err error) {
		defer func() { err = recovered(recover()) }()
		sentiment = p.classifier.Classify(gctx, text)
		return nil
	})
	if err := g.Wait(); err != nil {
		p.fail(log, err)
		res.Outcome = OutcomeFailed
		return res
	}
	if err := ctx.Err(); err != nil {
		p.fail(log, errors.Wrap(err, "анализ новостей"))
		res.Outcome = OutcomeFailed
		return res
	}

	log.Info("Анализ готов", zap.Int("articles", len(articles)), zap.String("sentiment", string(sentiment)))
	res.Outcome = OutcomeSuccess
	res.Summary = summary
	res.Sentiment = sentiment
	return res
}

func (p *Pipeline) fail(log *zap.Logger, err error) {
	fields := []zap.Field{zap.Error(err)}
	var pe *PanicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.ByteString("stack", pe.Stack))
	}
	log.Error("Ошибка обработки запроса", fields...)
}

// PanicError паника сотрудника конвейера, превращенная в ошибку
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// recovered превращает значение recover() в ошибку, nil если паники не было
func recovered(r interface{}) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}
