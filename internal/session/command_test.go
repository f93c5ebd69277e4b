package session

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text   string
		want   Command
		wantOK bool
	}{
		{text: "/start", want: CommandStart, wantOK: true},
		{text: "/help", want: CommandHelp, wantOK: true},
		{text: "/top_news", want: CommandTopNews, wantOK: true},
		{text: "/extra", want: CommandSummarize, wantOK: true},
		{text: "/extra@news_digest_bot", want: CommandSummarize, wantOK: true},
		{text: " /TOP_NEWS ", want: CommandTopNews, wantOK: true},
		{text: "Топ новостей", want: CommandTopNews, wantOK: true},
		{text: "Суммаризация и сентимент анализ", want: CommandSummarize, wantOK: true},
		{text: "Помощь", want: CommandHelp, wantOK: true},
		{text: "/generate", want: CommandUnknown, wantOK: true},
		{text: "экономика", want: CommandNone, wantOK: false},
		{text: "", want: CommandNone, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseCommand(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestAddressedTo(t *testing.T) {
	tests := []struct {
		text    string
		botName string
		want    bool
	}{
		{text: "/top_news", botName: "news_digest_bot", want: true},
		{text: "/top_news@news_digest_bot", botName: "news_digest_bot", want: true},
		{text: "/top_news@News_Digest_Bot", botName: "news_digest_bot", want: true},
		{text: "/top_news@SomeOtherBot", botName: "news_digest_bot", want: false},
		{text: "/top_news@SomeOtherBot", botName: "", want: true},
		{text: "экономика@рынок", botName: "news_digest_bot", want: true},
		{text: "Топ новостей", botName: "news_digest_bot", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.botName, func(t *testing.T) {
			assert.Equal(t, tt.want, AddressedTo(tt.text, tt.botName))
		})
	}
}
