package session

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"NewsBot/internal/pipeline"
)

// MinTopicLength минимальная длина темы в символах после обрезки пробелов
const MinTopicLength = 2

// Reply исходящее сообщение
type Reply struct {
	Text           string
	ShowMenu       bool // показать клавиатуру главного меню
	DisablePreview bool // не разворачивать превью ссылок
}

// Replier доставляет ответы в конкретный разговор
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}

// ReplierFunc адаптер функции к Replier
type ReplierFunc func(ctx context.Context, r Reply) error

func (f ReplierFunc) Reply(ctx context.Context, r Reply) error { return f(ctx, r) }

// Pipeline операции поиска и анализа новостей
type Pipeline interface {
	TopNews(ctx context.Context, topic string) pipeline.TopNewsResult
	Analyze(ctx context.Context, topic string) pipeline.AnalysisResult
}

// Controller интерпретирует входящие сообщения в зависимости от состояния сессии
type Controller struct {
	store    *Store
	pipeline Pipeline
	log      *zap.Logger
}

// NewController создает контроллер сессий
func NewController(store *Store, p Pipeline, log *zap.Logger) *Controller {
	return &Controller{
		store:    store,
		pipeline: p,
		log:      log.Named("session"),
	}
}

// Handle обрабатывает одно входящее сообщение сессии key.
// Возвращается только после отправки всех ответов.
func (c *Controller) Handle(ctx context.Context, key Key, text string, r Replier) {
	c.store.Do(key, func(s *Session) {
		log := c.log.With(zap.String("session", string(key)))
		if cmd, ok := ParseCommand(text); ok {
			c.handleCommand(ctx, log, s, cmd, r)
			return
		}
		c.handleText(ctx, log, s, text, r)
	})
}

func (c *Controller) handleCommand(ctx context.Context, log *zap.Logger, s *Session, cmd Command, r Replier) {
	switch cmd {
	case CommandStart:
		c.send(ctx, log, r, Reply{Text: WelcomeText, ShowMenu: true})
	case CommandHelp:
		c.send(ctx, log, r, Reply{Text: HelpText})
	case CommandTopNews:
		*s = Session{Pending: ActionTopNews}
		c.send(ctx, log, r, Reply{Text: TopNewsPrompt})
	case CommandSummarize:
		*s = Session{Pending: ActionSummarize}
		c.send(ctx, log, r, Reply{Text: SummarizePrompt})
	default:
		c.send(ctx, log, r, Reply{Text: UnknownCommand})
	}
	log.Debug("Команда обработана", zap.Int("command", int(cmd)), zap.Stringer("pending", s.Pending))
}

func (c *Controller) handleText(ctx context.Context, log *zap.Logger, s *Session, text string, r Replier) {
	if s.Idle() {
		c.send(ctx, log, r, Reply{Text: ChooseAction, ShowMenu: true})
		return
	}

	topic := strings.TrimSpace(text)
	if utf8.RuneCountInString(topic) < MinTopicLength {
		log.Info("Тема слишком короткая", zap.String("topic", topic))
		c.send(ctx, log, r, Reply{Text: TopicTooShort})
		return
	}

	s.Topic = topic
	action := s.Pending
	defer func() { *s = Session{} }()

	log.Info("Запуск обработки", zap.Stringer("action", action), zap.String("topic", topic))

	switch action {
	case ActionTopNews:
		c.send(ctx, log, r, Reply{Text: searchingText(topic)})
		res := c.pipeline.TopNews(ctx, topic)
		c.send(ctx, log, r, Reply{Text: RenderTopNews(res), DisablePreview: res.Outcome == pipeline.OutcomeSuccess})
	case ActionSummarize:
		c.send(ctx, log, r, Reply{Text: analyzingText(topic)})
		res := c.pipeline.Analyze(ctx, topic)
		c.send(ctx, log, r, Reply{Text: RenderAnalysis(res)})
	}
}

func (c *Controller) send(ctx context.Context, log *zap.Logger, r Replier, reply Reply) {
	if err := r.Reply(ctx, reply); err != nil {
		log.Warn("Не удалось отправить ответ", zap.Error(err))
	}
}
