package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"telegram-chat-log/internal/adapters/exporter"
	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/render"
	"telegram-chat-log/internal/telegram/router"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// messageView — сообщение вместе с готовым к показу представлением.
type messageView struct {
	domain.NormalizedMessage
	HTML         string `json:"html"`
	Badge        string `json:"badge"`
	MediaSummary string `json:"media_summary,omitempty"`
}

func newMessageViews(messages []domain.NormalizedMessage) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			NormalizedMessage: m,
			HTML:              render.HTML(m.DisplayText, m.FormattedSpans),
			Badge:             render.Badge(m.MessageType),
			MediaSummary:      render.MediaSummary(m.Media),
		})
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor сопоставляет ошибку слоя клиента с HTTP-статусом.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrChatNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClientUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, router.ErrNoHealthyClients):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.deps.Log != nil {
		resp["buffered"] = len(s.deps.Log.Snapshot())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDialogs(w http.ResponseWriter, r *http.Request) {
	dialogs, err := s.deps.Dialogs.Dialogs(r.Context())
	if err != nil {
		s.log.WarnContext(r.Context(), "Failed to list dialogs", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	if dialogs == nil {
		dialogs = []domain.Dialog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dialogs": dialogs})
}

// chatAndLimit читает chat_id и limit из запроса, подставляя значения из конфигурации.
func (s *Server) chatAndLimit(r *http.Request) (int64, int, error) {
	chatID := s.cfg.Chat.TargetChat
	if v := r.URL.Query().Get("chat_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("некорректный chat_id: %q", v)
		}
		chatID = parsed
	}
	if chatID == 0 {
		return 0, 0, errors.New("не указан chat_id")
	}

	limit := s.cfg.Chat.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || parsed > maxHistoryLimit {
			return 0, 0, fmt.Errorf("limit должен быть числом от 0 до %d", maxHistoryLimit)
		}
		limit = parsed
	}
	return chatID, limit, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	chatID, limit, err := s.chatAndLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	messages, err := s.deps.History.FetchHistory(r.Context(), chatID, limit, refresh)
	if err != nil {
		s.log.WarnContext(r.Context(), "Failed to fetch history", "chat_id", chatID, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chat_id":  chatID,
		"limit":    limit,
		"messages": newMessageViews(messages),
	})
}

func (s *Server) handleLog(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Log == nil {
		writeError(w, http.StatusNotFound, "живой режим выключен")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"capacity": s.deps.Log.Cap(),
		"messages": newMessageViews(s.deps.Log.Snapshot()),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	chatID, limit, err := s.chatAndLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	taskID := uuid.NewString()
	s.deps.Tasks.CreateTask(taskID, chatID, taskTTL)

	go s.runExport(taskID, chatID, limit)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// runExport загружает историю и собирает XLSX. Задача живет дольше запроса,
// поэтому работает в контексте сервера.
func (s *Server) runExport(taskID string, chatID int64, limit int) {
	_ = s.deps.Tasks.UpdateTaskStatus(taskID, TaskStatusProcessing)

	ctx := s.ctx
	if timeout := s.cfg.Processing.TaskTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	messages, err := s.deps.History.FetchHistory(ctx, chatID, limit, false)
	if err != nil {
		s.log.Warn("Export failed", "task_id", taskID, "chat_id", chatID, "error", err)
		_ = s.deps.Tasks.UpdateTaskError(taskID, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := exporter.NewExcelExporter(&buf, time.UTC).Export(messages); err != nil {
		_ = s.deps.Tasks.UpdateTaskError(taskID, err.Error())
		return
	}

	_ = s.deps.Tasks.UpdateTaskResult(taskID, &ExportResult{
		FileName:     fmt.Sprintf("chat_%d_%s.xlsx", chatID, time.Now().UTC().Format("2006-01-02_15-04-05")),
		ContentType:  xlsxContentType,
		Data:         buf.Bytes(),
		MessageCount: len(messages),
	})
	s.log.Info("Export completed", "task_id", taskID, "chat_id", chatID, "messages", len(messages))
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := s.deps.Tasks.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := map[string]any{
		"task_id": task.ID,
		"chat_id": task.ChatID,
		"status":  task.Status,
	}
	if task.ErrorMessage != "" {
		resp["error_message"] = task.ErrorMessage
	}
	if task.Result != nil {
		resp["message_count"] = task.Result.MessageCount
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, err := s.deps.Tasks.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if task.Status != TaskStatusCompleted || task.Result == nil {
		writeError(w, http.StatusConflict, "задача не завершена")
		return
	}

	w.Header().Set("Content-Type", task.Result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", task.Result.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(task.Result.Data)
}
