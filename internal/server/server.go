package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/pkg/config"
)

const (
	taskTTL         = 24 * time.Hour
	cleanupInterval = time.Hour
	maxHistoryLimit = 1000
)

// HistoryProvider отдает последние сообщения чата.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, chatID int64, limit int, refresh bool) ([]domain.NormalizedMessage, error)
}

// DialogLister перечисляет доступные чаты.
type DialogLister interface {
	Dialogs(ctx context.Context) ([]domain.Dialog, error)
}

// LogSource — буфер последних сообщений живого режима.
type LogSource interface {
	Snapshot() []domain.NormalizedMessage
	Cap() int
}

// Deps — зависимости HTTP-сервера. Log может быть nil, если живой режим выключен.
type Deps struct {
	History HistoryProvider
	Dialogs DialogLister
	Log     LogSource
	Tasks   *TaskStore
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	deps       Deps
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New создает новый экземпляр Server
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.History == nil || deps.Dialogs == nil {
		return nil, errors.New("history and dialogs providers are required")
	}
	if deps.Tasks == nil {
		deps.Tasks = NewTaskStore()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		log:    slog.Default().With("component", "http"),
		ctx:    ctx,
		cancel: cancel,
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	chiRouter.Get("/", s.handleIndex)
	chiRouter.Get("/health", s.handleHealth)

	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Get("/dialogs", s.handleDialogs)
		r.Get("/history", s.handleHistory)
		r.Get("/log", s.handleLog)
		r.Post("/export", s.handleExport)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	deps.Tasks.StartCleanupTicker(ctx, cleanupInterval)

	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown останавливает фоновые задачи и корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	s.cancel()
	return s.HTTPServer.Shutdown(ctx)
}
