package session

import "strings"

// Command команда меню
type Command int

const (
	CommandNone Command = iota
	CommandStart
	CommandHelp
	CommandTopNews
	CommandSummarize
	// CommandUnknown любая другая команда со слешем
	CommandUnknown
)

// Подписи кнопок клавиатуры
const (
	LabelTopNews   = "Топ новостей"
	LabelSummarize = "Суммаризация и сентимент анализ"
	LabelHelp      = "Помощь"
)

// BotCommand описание команды для меню Telegram
type BotCommand struct {
	Name        string
	Description string
}

// BotCommands команды, которые регистрируются в Telegram
var BotCommands = []BotCommand{
	{Name: "start", Description: "Приветствие"},
	{Name: "help", Description: "Помощь"},
	{Name: "top_news", Description: "Топ новостей"},
	{Name: "extra", Description: "Суммаризация и анализ тональности новостей"},
}

// MenuLabels кнопки главного меню, по одной в ряд
var MenuLabels = []string{LabelTopNews, LabelSummarize, LabelHelp}

// ParseCommand распознает команду (/start, /help, /top_news, /extra, с суффиксом @bot или без)
// или подпись кнопки меню. Прочие команды со слешем возвращаются как CommandUnknown.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)

	switch text {
	case LabelTopNews:
		return CommandTopNews, true
	case LabelSummarize:
		return CommandSummarize, true
	case LabelHelp:
		return CommandHelp, true
	}

	if !strings.HasPrefix(text, "/") {
		return CommandNone, false
	}

	name := strings.Fields(text)[0][1:]
	if idx := strings.Index(name, "@"); idx >= 0 {
		name = name[:idx]
	}

	switch strings.ToLower(name) {
	case "start":
		return CommandStart, true
	case "help":
		return CommandHelp, true
	case "top_news":
		return CommandTopNews, true
	case "extra":
		return CommandSummarize, true
	default:
		return CommandUnknown, true
	}
}

// AddressedTo сообщает, относится ли сообщение к боту botName. Команда с суффиксом
// @другой_бот адресована не нам. Пустой botName принимает любые сообщения.
func AddressedTo(text, botName string) bool {
	text = strings.TrimSpace(text)
	if botName == "" || !strings.HasPrefix(text, "/") {
		return true
	}
	name := strings.Fields(text)[0]
	idx := strings.Index(name, "@")
	if idx < 0 {
		return true
	}
	return strings.EqualFold(name[idx+1:], strings.TrimPrefix(botName, "@"))
}
