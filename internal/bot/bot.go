package bot

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"NewsBot/internal/session"
)

// sender часть tgbotapi.BotAPI, которой пользуется бот
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler обрабатывает текст сообщения в рамках сессии
type Handler interface {
	Handle(ctx context.Context, key session.Key, text string, r session.Replier)
}

// Bot представляет Telegram бота, работающего через Bot API
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     sender
	handler    Handler
	dispatcher *session.Dispatcher
	username   string // команды с суффиксом @другой_бот игнорируются
	log        *zap.Logger
}

// New создает нового бота
func New(token string, handler Handler, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка создания бота")
	}

	b := newBot(api, handler, log)
	b.api = api
	b.username = api.Self.UserName
	return b, nil
}

func newBot(s sender, handler Handler, log *zap.Logger) *Bot {
	return &Bot{
		sender:     s,
		handler:    handler,
		dispatcher: session.NewDispatcher(),
		log:        log.Named("bot"),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
// Чаты обрабатываются параллельно, сообщения одного чата по порядку.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.registerCommands(); err != nil {
		b.log.Warn("Не удалось зарегистрировать команды", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("🤖 Бот запущен", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.dispatcher.Close()
			b.log.Info("Бот остановлен")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.dispatcher.Close()
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) registerCommands() error {
	commands := make([]tgbotapi.BotCommand, 0, len(session.BotCommands))
	for _, c := range session.BotCommands {
		commands = append(commands, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := b.sender.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return errors.Wrap(err, "setMyCommands")
	}
	return nil
}

// dispatch ставит обновление в очередь его чата. Вызывается из цикла обновлений,
// поэтому очередь повторяет порядок доставки.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if !session.AddressedTo(msg.Text, b.username) {
		return
	}
	b.dispatcher.Dispatch(chatKey(msg.Chat.ID), func() {
		b.handleUpdate(ctx, update)
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	b.log.Debug("Входящее сообщение",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("update_id", update.UpdateID),
	)

	b.handler.Handle(ctx, chatKey(msg.Chat.ID), msg.Text, &chatReplier{bot: b, chatID: msg.Chat.ID})
}

func chatKey(chatID int64) session.Key {
	return session.Key(fmt.Sprintf("tg:%d", chatID))
}

// chatReplier отправляет ответы в конкретный чат
type chatReplier struct {
	bot    *Bot
	chatID int64
}

func (r *chatReplier) Reply(ctx context.Context, reply session.Reply) error {
	msg := tgbotapi.NewMessage(r.chatID, reply.Text)
	msg.DisableWebPagePreview = reply.DisablePreview
	if reply.ShowMenu {
		msg.ReplyMarkup = menuKeyboard()
	}

	if _, err := r.bot.sender.Send(msg); err != nil {
		return errors.Wrapf(err, "отправка сообщения в чат %d", r.chatID)
	}
	return nil
}

// menuKeyboard клавиатура главного меню
func menuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(session.MenuLabels))
	for _, label := range session.MenuLabels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
