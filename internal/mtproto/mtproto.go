package mtproto

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"NewsBot/auth"
	"NewsBot/internal/session"
)

// Handler обрабатывает текст сообщения в рамках сессии
type Handler interface {
	Handle(ctx context.Context, key session.Key, text string, r session.Replier)
}

// Options параметры подключения к MTProto
type Options struct {
	APIID      int
	APIHash    string
	Token      string
	SessionDir string
}

// Transport принимает сообщения боту через MTProto (gotd/td)
type Transport struct {
	opts       Options
	handler    Handler
	dispatcher *session.Dispatcher
	username   atomic.Value // string, известен после входа
	log        *zap.Logger

	// newReplier создает отправителя ответа на входящее сообщение
	newReplier func(e tg.Entities, u *tg.UpdateNewMessage) session.Replier
}

// New создает MTProto транспорт
func New(opts Options, handler Handler, log *zap.Logger) *Transport {
	if opts.SessionDir == "" {
		opts.SessionDir = "tdsession"
	}
	return &Transport{
		opts:       opts,
		handler:    handler,
		dispatcher: session.NewDispatcher(),
		log:        log.Named("mtproto"),
	}
}

// Run подключается к Telegram, входит под ботом и обрабатывает сообщения до отмены ctx
func (t *Transport) Run(ctx context.Context) error {
	if err := os.MkdirAll(t.opts.SessionDir, 0o700); err != nil {
		return errors.Wrap(err, "создание папки сессии")
	}

	dispatcher := tg.NewUpdateDispatcher()
	client := telegram.NewClient(t.opts.APIID, t.opts.APIHash, telegram.Options{
		Logger: t.log,
		SessionStorage: &tdsession.FileStorage{
			Path: filepath.Join(t.opts.SessionDir, "session.json"),
		},
		UpdateHandler: dispatcher,
	})

	sender := message.NewSender(client.API())
	t.newReplier = func(e tg.Entities, u *tg.UpdateNewMessage) session.Replier {
		return &peerReplier{sender: sender, entities: e, update: u}
	}
	dispatcher.OnNewMessage(t.onNewMessage)

	err := client.Run(ctx, func(ctx context.Context) error {
		me, err := auth.Authenticate(ctx, client, t.opts.Token, t.log)
		if err != nil {
			return errors.Wrap(err, "аутентификация не удалась")
		}
		t.username.Store(me.Username)
		t.log.Info("🤖 MTProto транспорт запущен")

		<-ctx.Done()
		t.dispatcher.Close()
		return ctx.Err()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// onNewMessage ставит сообщение в очередь его диалога, не блокируя поток обновлений.
// После остановки транспорта новые сообщения отбрасываются.
func (t *Transport) onNewMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out || msg.Message == "" {
		return nil
	}

	if name, _ := t.username.Load().(string); !session.AddressedTo(msg.Message, name) {
		return nil
	}

	key, ok := peerKey(msg.PeerID)
	if !ok {
		return nil
	}

	r := t.newReplier(e, u)
	if !t.dispatcher.Dispatch(key, func() { t.handler.Handle(ctx, key, msg.Message, r) }) {
		t.log.Debug("Транспорт остановлен, сообщение пропущено", zap.String("session", string(key)))
	}
	return nil
}

func peerKey(peer tg.PeerClass) (session.Key, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return session.Key(fmt.Sprintf("mtproto:user:%d", p.UserID)), true
	case *tg.PeerChat:
		return session.Key(fmt.Sprintf("mtproto:chat:%d", p.ChatID)), true
	case *tg.PeerChannel:
		return session.Key(fmt.Sprintf("mtproto:channel:%d", p.ChannelID)), true
	default:
		return "", false
	}
}

// peerReplier отвечает в тот же диалог, откуда пришло сообщение
type peerReplier struct {
	sender   *message.Sender
	entities tg.Entities
	update   *tg.UpdateNewMessage
}

func (r *peerReplier) Reply(ctx context.Context, reply session.Reply) error {
	// Builder хранит флаги, поэтому на каждый ответ нужен новый
	b := r.sender.Reply(r.entities, r.update)
	if reply.DisablePreview {
		b = b.NoWebpage()
	}
	if reply.ShowMenu {
		b = b.Markup(menuMarkup())
	}
	if _, err := b.Text(ctx, reply.Text); err != nil {
		return errors.Wrap(err, "отправка ответа")
	}
	return nil
}

func menuMarkup() tg.ReplyMarkupClass {
	rows := make([]tg.KeyboardButtonRow, 0, len(session.MenuLabels))
	for _, label := range session.MenuLabels {
		rows = append(rows, tg.KeyboardButtonRow{
			Buttons: []tg.KeyboardButtonClass{&tg.KeyboardButton{Text: label}},
		})
	}
	return &tg.ReplyKeyboardMarkup{Resize: true, Rows: rows}
}
