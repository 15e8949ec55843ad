// Package bot — командный Telegram-бот поверх HTTP API сервера журнала:
// показывает последние сообщения чата и присылает выгрузку в XLSX.
package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-log/cmd/bot/config"
	"telegram-chat-log/internal/adapters/exporter"
	"telegram-chat-log/internal/domain"
)

const (
	startCommand  = "start"
	helpCommand   = "help"
	lastCommand   = "last"
	exportCommand = "export"

	// maxMessageLength — предел длины текста одного сообщения Telegram.
	maxMessageLength = 4096
)

// ServerAPI — методы сервера журнала, которыми пользуется бот.
type ServerAPI interface {
	History(ctx context.Context, chatID int64, limit int) ([]MessageDTO, error)
	StartExport(ctx context.Context, chatID int64, limit int) (*StartTaskResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error)
	DownloadResult(ctx context.Context, taskID string) (*ResultFile, error)
}

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.BotConfig
	loc          *time.Location
	serverClient ServerAPI
	taskStore    *TaskStore
	logger       *slog.Logger
	pollers      sync.WaitGroup

	sendMessageFunc func(msg tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, serverClient ServerAPI, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	b := &Bot{
		api:          api,
		cfg:          cfg,
		loc:          loc,
		serverClient: serverClient,
		taskStore:    taskStore,
		logger:       logger,
	}
	b.sendMessageFunc = api.Send
	return b, nil
}

// Start запускает основной цикл обработки обновлений от Telegram и возвращается
// после отмены контекста, дождавшись фоновых опросов задач.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			b.pollers.Wait()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg) {
		b.logger.Warn("message from a user outside allowed_users", slog.Int64("chat_id", msg.Chat.ID))
		b.reply(msg.Chat.ID, "У вас нет доступа к этому боту.")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	b.reply(msg.Chat.ID, "Отправьте /last, чтобы увидеть последние сообщения, или /export для выгрузки в Excel.")
}

func (b *Bot) allowed(msg *tgbotapi.Message) bool {
	if len(b.cfg.AllowedUsers) == 0 {
		return true
	}
	return msg.From != nil && slices.Contains(b.cfg.AllowedUsers, msg.From.ID)
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand, helpCommand:
		b.reply(msg.Chat.ID, "Я показываю журнал чата Telegram.\n\n"+
			"/last [N] — последние N сообщений\n"+
			"/export [N] — последние N сообщений в Excel-файле")
	case lastCommand:
		limit, err := parseLimit(msg.CommandArguments(), b.cfg.HistoryLimit)
		if err != nil {
			b.reply(msg.Chat.ID, err.Error())
			return
		}
		b.handleLast(ctx, msg.Chat.ID, limit)
	case exportCommand:
		limit, err := parseLimit(msg.CommandArguments(), b.cfg.ExportLimit)
		if err != nil {
			b.reply(msg.Chat.ID, err.Error())
			return
		}
		b.handleExport(ctx, msg.Chat.ID, limit)
	default:
		b.reply(msg.Chat.ID, "Я не знаю такой команды.")
	}
}

// parseLimit читает необязательный аргумент команды.
func parseLimit(args string, def int) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return def, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 || n > 1000 {
		return 0, errors.New("Укажите число от 1 до 1000.")
	}
	return n, nil
}

func (b *Bot) handleLast(ctx context.Context, chatID int64, limit int) {
	logger := b.logger.With(slog.Int64("chat_id", chatID))

	messages, err := b.serverClient.History(ctx, b.cfg.ChatID, limit)
	if err != nil {
		logger.Error("failed to fetch history", slog.String("error", err.Error()))
		b.reply(chatID, describeError(err))
		return
	}
	if len(messages) == 0 {
		b.reply(chatID, "В чате пока нет сообщений.")
		return
	}

	text := formatMessages(messages, b.loc)
	if utf8.RuneCountInString(text) > maxMessageLength {
		logger.Warn("history text is too long, sending as file", "length", utf8.RuneCountInString(text))
		b.sendResultAsTextFile(chatID, messages)
		return
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.DisableWebPagePreview = true
	b.sendMessage(reply)
}

// handleExport ставит задачу выгрузки и запускает ее опрос.
func (b *Bot) handleExport(ctx context.Context, chatID int64, limit int) {
	logger := b.logger.With(slog.Int64("chat_id", chatID))

	// 1. Проверяем, нет ли уже активной задачи.
	if !b.taskStore.Reserve(chatID) {
		logger.Warn("user tried to start a new task while another is active")
		b.reply(chatID, "Пожалуйста, подождите завершения предыдущей выгрузки.")
		return
	}

	// 2. Запускаем задачу на сервере.
	startResp, err := b.serverClient.StartExport(ctx, b.cfg.ChatID, limit)
	if err != nil {
		b.taskStore.Delete(chatID)
		logger.Error("failed to start export on backend", slog.String("error", err.Error()))
		b.reply(chatID, describeError(err))
		return
	}

	taskID := startResp.TaskID
	logger.Info("export task started on backend", slog.String("task_id", taskID))

	b.reply(chatID, "✅ Выгрузка поставлена в очередь. Пришлю файл, когда он будет готов.")

	// 3. Сохраняем task_id и запускаем опрос.
	b.taskStore.Set(chatID, taskID)
	b.pollers.Add(1)
	go func() {
		defer b.pollers.Done()
		b.pollTaskStatus(ctx, chatID, taskID)
	}()
}

// pollTaskStatus асинхронно опрашивает статус задачи на сервере.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Delete(chatID)

	ticker := time.NewTicker(b.cfg.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Warn("polling cancelled by context")
			return
		case <-ticker.C:
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
					logger.Warn("task disappeared on backend")
					b.reply(chatID, "Задача выгрузки потеряна на сервере. Попробуйте еще раз.")
					return
				}
				logger.Error("failed to get task status", slog.String("error", err.Error()))
				continue
			}

			switch status.Status {
			case "completed":
				logger.Info("task completed", slog.Int("messages", status.MessageCount))
				b.sendExportResult(ctx, chatID, taskID, status.MessageCount)
				return
			case "failed":
				logger.Warn("task failed", slog.String("reason", status.ErrorMessage))
				b.reply(chatID, fmt.Sprintf("Не удалось выгрузить историю: %s", status.ErrorMessage))
				return
			case "pending", "processing":
				logger.Debug("task is in progress", slog.String("status", status.Status))
			default:
				logger.Warn("unknown task status", slog.String("status", status.Status))
			}
		}
	}
}

func (b *Bot) sendExportResult(ctx context.Context, chatID int64, taskID string, count int) {
	file, err := b.serverClient.DownloadResult(ctx, taskID)
	if err != nil {
		b.logger.Error("failed to download export", slog.String("task_id", taskID), slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось скачать готовый файл. Попробуйте позже.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: file.Name, Bytes: file.Data})
	doc.Caption = fmt.Sprintf("Выгружено сообщений: %d.", count)
	b.sendMessage(doc)
}

// sendResultAsTextFile отправляет историю в виде текстового файла.
func (b *Bot) sendResultAsTextFile(chatID int64, messages []MessageDTO) {
	var buf bytes.Buffer
	console := exporter.NewConsoleExporter(exporter.WithWriter(&buf), exporter.WithLocation(b.loc))
	if err := console.Export(toDomain(messages)); err != nil {
		b.logger.Error("failed to render history file", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось сформировать файл.")
		return
	}

	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("history_%s.txt", time.Now().In(b.loc).Format("2006-01-02_15-04-05")),
		Bytes: buf.Bytes(),
	})
	msg.Caption = fmt.Sprintf("Сообщений: %d. Список слишком большой для одного сообщения, поэтому он прикреплен в виде файла.", len(messages))
	b.sendMessage(msg)
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sendMessageFunc(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// describeError превращает ошибку сервера в текст для пользователя.
func describeError(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Сервер журнала недоступен. Попробуйте позже."
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return "Чат не найден среди диалогов сервера."
	case http.StatusUnauthorized:
		return "Сессия Telegram на сервере не авторизована: выполните tglog login."
	case http.StatusBadRequest:
		return "Сервер отклонил запрос: " + apiErr.Message
	default:
		return "Сервер не смог загрузить историю. Попробуйте позже."
	}
}

// formatMessages собирает HTML-текст сообщения со списком записей журнала.
func formatMessages(messages []MessageDTO, loc *time.Location) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%s <b>%s</b> <i>%s</i>",
			m.MessageType.Emoji(),
			html.EscapeString(m.Sender),
			time.Unix(m.Timestamp, 0).In(loc).Format("02.01 15:04"),
		)
		if m.ReplyTo != nil {
			fmt.Fprintf(&sb, " ↩ %d", *m.ReplyTo)
		}
		if m.DisplayText != "" {
			sb.WriteString("\n")
			sb.WriteString(html.EscapeString(strings.ToValidUTF8(m.DisplayText, "")))
		}
		if m.MediaSummary != "" {
			fmt.Fprintf(&sb, "\n<code>%s</code>", html.EscapeString(m.MediaSummary))
		}
	}
	return sb.String()
}

func toDomain(messages []MessageDTO) []domain.NormalizedMessage {
	out := make([]domain.NormalizedMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.NormalizedMessage)
	}
	return out
}
