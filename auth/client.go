package auth

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// Authenticate входит в MTProto под ботом, если сессия еще не авторизована,
// и возвращает профиль бота
func Authenticate(ctx context.Context, client *telegram.Client, token string, log *zap.Logger) (*tg.User, error) {
	if token == "" {
		return nil, errors.New("токен бота не задан")
	}

	status, err := client.Auth().Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "не удалось проверить статус аутентификации")
	}

	if !status.Authorized {
		log.Info("Начинаем аутентификацию бота")
		if _, err := client.Auth().Bot(ctx, token); err != nil {
			return nil, errors.Wrap(err, "ошибка аутентификации")
		}
		log.Info("Аутентификация успешно завершена")
	} else {
		log.Info("Уже аутентифицирован")
	}

	me, err := client.Self(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "не удалось получить информацию о боте")
	}

	log.Info("✅ Успешный вход", zap.String("as", DisplayName(me)))
	return me, nil
}

// DisplayName форматирует имя пользователя как "Имя Фамилия (@username)"
func DisplayName(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		if name == "" {
			return "@" + u.Username
		}
		name += " (@" + u.Username + ")"
	}
	return name
}
