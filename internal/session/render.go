package session

import (
	"fmt"
	"strings"

	"NewsBot/internal/nlp"
	"NewsBot/internal/pipeline"
)

const (
	WelcomeText = "Привет, я — бот-аналитик новостей. Отправь мне тему, и я:\n\n" +
		"🔍 Найду топ новостей по теме\n" +
		"📝 Сделаю краткую выжимку\n" +
		"📊 Проанализирую тон\n" +
		"Выберите действие:"

	HelpText = "Доступные команды:\n\n" +
		"/start — приветствие\n" +
		"/help — помощь\n" +
		"/top_news — топ новостей\n" +
		"/extra — суммаризация и анализ тональности новостей\n\n" +
		"Бот умеет искать новости на различные темы. Достаточно просто написать интересующий топик на русском языке. " +
		"После этого вы сможете получить топ-новостей со ссылками на источники или их краткую выжимку с анализом тональности.\n\n" +
		"Попробуйте переформулировать тему, если бот не найдет то, что вы ищете"

	TopNewsPrompt   = "Введите тему для поиска новостей:"
	SummarizePrompt = "Введите тему для суммаризации и сентимент анализа:"
	ChooseAction    = "Сначала выберите действие:"
	TopicTooShort   = "Тема слишком короткая. Попробуйте снова"
	UnknownCommand  = "❌ Неизвестная команда. Используйте /help для списка команд."

	NoNewsFound      = "Новости не найдены."
	InsufficientData = "Недостаточно данных"
	ProcessingFailed = "Произошла ошибка при обработке запроса. Попробуйте позже."

	SentimentPlaceholder = "Не определена"
)

func searchingText(topic string) string {
	return fmt.Sprintf("🔍 Ищу новости по теме: «%s»", topic)
}

func analyzingText(topic string) string {
	return fmt.Sprintf("📝 Анализирую тему: «%s»", topic)
}

// RenderTopNews форматирует список новостей
func RenderTopNews(res pipeline.TopNewsResult) string {
	switch res.Outcome {
	case pipeline.OutcomeNoResults:
		return NoNewsFound
	case pipeline.OutcomeFailed:
		return ProcessingFailed
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Топ новостей по теме «%s»:", res.Topic)
	for _, h := range res.Headlines {
		fmt.Fprintf(&sb, "\n\n%d. %s\n%s", h.Position, h.Title, h.URL)
	}
	return sb.String()
}

// RenderAnalysis форматирует выжимку и тональность
func RenderAnalysis(res pipeline.AnalysisResult) string {
	switch res.Outcome {
	case pipeline.OutcomeNoResults:
		return InsufficientData
	case pipeline.OutcomeFailed:
		return ProcessingFailed
	}

	label := string(res.Sentiment)
	if res.Sentiment == nlp.SentimentUnknown {
		label = SentimentPlaceholder
	}
	return fmt.Sprintf("Краткая выжимка:\n%s\n\nТональность: %s", res.Summary, label)
}
