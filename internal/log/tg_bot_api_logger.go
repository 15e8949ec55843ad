package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter направляет логи библиотеки go-telegram-bot-api/v5 в slog.
// Библиотека пишет только об ошибках получения обновлений и о запросах в режиме Debug.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// Println реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.log(strings.TrimSpace(fmt.Sprintln(v...)))
}

// Printf реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.log(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (a *TGBotAPIAdapter) log(msg string) {
	a.Logger.Log(context.Background(), libraryLevel(msg), msg, slog.String("source", "tgbotapi"))
}

// libraryLevel относит сбои long polling к предупреждениям, остальное к отладке.
func libraryLevel(msg string) slog.Level {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}
