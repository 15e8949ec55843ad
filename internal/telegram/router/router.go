package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/pkg/config"
	"telegram-chat-log/internal/ports"
	"telegram-chat-log/internal/telegram"
)

var (
	// ErrNoHealthyClients возвращается, когда в пуле нет доступных для работы клиентов.
	ErrNoHealthyClients = errors.New("no healthy clients available")
	// ErrClientNotFound возвращается, когда клиент с указанным ID не найден.
	ErrClientNotFound = errors.New("client not found")
)

// Option определяет функциональную опцию для конфигурации роутера.
type Option func(*Router)

// WithServerConfigs — опция для передачи конфигураций серверов.
// Клиенты будут созданы внутри роутера.
func WithServerConfigs(serverConfigs []config.TelegramAPIServer, pageSize int) Option {
	return func(r *Router) {
		for _, srvCfg := range serverConfigs {
			client := telegram.NewClient(telegram.Config{
				APIID:       srvCfg.APIID,
				APIHash:     srvCfg.APIHash,
				PhoneNumber: srvCfg.PhoneNumber,
				SessionPath: srvCfg.SessionFile,
				PageSize:    pageSize,
			}, telegram.WithLogger(r.log.With("phone", srvCfg.PhoneNumber)))
			r.clients = append(r.clients, client)
		}
	}
}

// WithClients добавляет в пул готовые клиенты.
func WithClients(clients ...ports.TelegramClient) Option {
	return func(r *Router) {
		r.clients = append(r.clients, clients...)
	}
}

// WithHealthCheckInterval — опция для установки интервала проверки работоспособности.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.healthCheckInterval = d
		}
	}
}

// WithClientRetryPause устанавливает паузу между попытками получить клиента.
func WithClientRetryPause(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.clientRetryPause = d
		}
	}
}

// WithClientWaitTimeout ограничивает время ожидания здорового клиента для одного запроса.
func WithClientWaitTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.clientWaitTimeout = d
		}
	}
}

// WithStrategy — опция для установки стратегии выбора клиента.
func WithStrategy(s ports.Strategy) Option {
	return func(r *Router) {
		if s != nil {
			r.strategy = s
		}
	}
}

// WithLogger — опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// Router управляет пулом клиентов Telegram, их состоянием и выбором.
// Сам реализует ports.ChatClient: каждый запрос выполняется через здорового клиента.
// Новые сообщения берутся от первого клиента пула.
type Router struct {
	mu        sync.RWMutex
	healthy   map[string]ports.TelegramClient
	unhealthy map[string]ports.TelegramClient
	reasons   map[string]error
	strategy  ports.Strategy
	primary   ports.TelegramClient
	log       *slog.Logger

	clients             []ports.TelegramClient // Начальный список клиентов
	healthCheckInterval time.Duration
	clientRetryPause    time.Duration
	clientWaitTimeout   time.Duration
	ticker              *time.Ticker
	done                chan struct{}
	wg                  sync.WaitGroup
}

var (
	_ ports.ChatClient    = (*Router)(nil)
	_ ports.MessageStream = (*Router)(nil)
	_ ports.Router        = (*Router)(nil)
)

// NewRouter создает и запускает новый роутер с использованием функциональных опций.
func NewRouter(ctx context.Context, opts ...Option) (*Router, error) {
	r := &Router{
		healthy:             make(map[string]ports.TelegramClient),
		unhealthy:           make(map[string]ports.TelegramClient),
		reasons:             make(map[string]error),
		strategy:            NewRoundRobinStrategy(),
		healthCheckInterval: 30 * time.Second,
		clientRetryPause:    time.Second,
		clientWaitTimeout:   10 * time.Second,
		done:                make(chan struct{}),
		log:                 slog.Default().With("component", "router"),
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.clients) == 0 {
		return nil, errors.New("no server configs provided to router")
	}

	// Запускаем клиенты и инициализируем пул здоровых клиентов
	for _, c := range r.clients {
		c.Start(ctx)
		r.healthy[c.ID()] = c
	}
	r.primary = r.clients[0]
	r.clients = nil

	r.ticker = time.NewTicker(r.healthCheckInterval)
	r.wg.Add(1)
	go r.healthCheckLoop()

	return r, nil
}

// GetClient возвращает работоспособного клиента согласно текущей стратегии.
// Возвращаемый клиент обернут в clientWrapper для обработки ошибок "на лету".
func (r *Router) GetClient(ctx context.Context) (ports.TelegramClient, error) {
	r.mu.RLock()
	clients := make([]ports.TelegramClient, 0, len(r.healthy))
	for _, c := range r.healthy {
		clients = append(clients, c)
	}
	strategy := r.strategy
	r.mu.RUnlock()

	client, err := strategy.Next(clients)
	if err != nil {
		r.log.DebugContext(ctx, "Strategy failed to get next client", "error", err)
		return nil, fmt.Errorf("strategy failed to get next client: %w", err)
	}

	r.log.DebugContext(ctx, "Client selected by strategy", "client_id", client.ID())

	return &clientWrapper{
		TelegramClient: client,
		router:         r,
	}, nil
}

// Dialogs возвращает диалоги через здорового клиента.
func (r *Router) Dialogs(ctx context.Context) ([]domain.Dialog, error) {
	var dialogs []domain.Dialog
	err := r.execute(ctx, "dialogs", func(ctx context.Context, cl ports.TelegramClient) error {
		var err error
		dialogs, err = cl.Dialogs(ctx)
		return err
	})
	return dialogs, err
}

// History открывает историю чата через здорового клиента. Весь обход истории
// выполняется тем же клиентом, чтобы идентификаторы сообщений были согласованы.
func (r *Router) History(ctx context.Context, chatID int64) (ports.MessageIterator, error) {
	var iter ports.MessageIterator
	err := r.execute(ctx, "history", func(ctx context.Context, cl ports.TelegramClient) error {
		var err error
		iter, err = cl.History(ctx, chatID)
		return err
	})
	return iter, err
}

// Updates возвращает поток новых сообщений первого клиента пула.
func (r *Router) Updates() <-chan domain.IncomingMessage {
	return r.primary.Updates()
}

// execute получает клиента у роутера, повторяя попытки с паузой, и выполняет операцию.
// Ошибка операции возвращается вызывающей стороне без повторов.
func (r *Router) execute(ctx context.Context, op string, fn func(ctx context.Context, cl ports.TelegramClient) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, r.clientWaitTimeout)
	defer cancel()

	for {
		client, err := r.GetClient(ctx)
		if err != nil {
			if authErr := r.unauthenticatedError(); authErr != nil {
				return authErr
			}
			r.log.WarnContext(ctx, "Failed to get a client from the router, will retry", "op", op, "error", err, "pause", r.clientRetryPause)
			select {
			case <-time.After(r.clientRetryPause):
				continue
			case <-waitCtx.Done():
				if ctxErr := ctx.Err(); ctxErr != nil {
					return fmt.Errorf("не удалось получить клиент, так как контекст был отменен: %w", ctxErr)
				}
				return fmt.Errorf("не удалось получить клиент за %v: %w", r.clientWaitTimeout, ErrNoHealthyClients)
			}
		}

		if opErr := fn(ctx, client); opErr != nil {
			r.log.WarnContext(ctx, "API operation failed", "op", op, "client_id", client.ID(), "error", opErr)
			return opErr
		}
		r.log.DebugContext(ctx, "API operation executed successfully", "op", op, "client_id", client.ID())
		return nil
	}
}

// unauthenticatedError возвращает ошибку авторизации, если все клиенты выведены
// из пула из-за отсутствия сессии. Ждать их восстановления бессмысленно.
func (r *Router) unauthenticatedError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.healthy) > 0 || len(r.unhealthy) == 0 {
		return nil
	}
	var last error
	for id := range r.unhealthy {
		reason := r.reasons[id]
		if !errors.Is(reason, domain.ErrClientUnauthenticated) {
			return nil
		}
		last = reason
	}
	return last
}

// SetStrategy позволяет безопасно сменить стратегию выбора клиента на лету.
func (r *Router) SetStrategy(s ports.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategy = s
	r.log.Info("router strategy updated")
}

// Stop останавливает фоновую проверку работоспособности клиентов.
func (r *Router) Stop() {
	r.log.Info("stopping router...")
	r.ticker.Stop()
	close(r.done)
	r.wg.Wait()
	r.log.Info("router stopped")
}

// healthCheckLoop периодически проверяет неработоспособных клиентов
// и пытается вернуть их в пул здоровых.
func (r *Router) healthCheckLoop() {
	defer r.wg.Done()
	for {
		select {
		case t := <-r.ticker.C:
			r.log.Debug("Health check ticker fired", "time", t)
			r.checkUnhealthyClients()
		case <-r.done:
			r.log.Info("Health check loop is stopping.")
			return
		}
	}
}

// checkUnhealthyClients итерируется по нездоровым клиентам и проверяет их.
func (r *Router) checkUnhealthyClients() {
	r.mu.RLock()
	idsToCheck := make([]string, 0, len(r.unhealthy))
	for id := range r.unhealthy {
		idsToCheck = append(idsToCheck, id)
	}
	r.mu.RUnlock()

	if len(idsToCheck) == 0 {
		return
	}

	r.log.Debug("starting periodic health check for unhealthy clients", "count", len(idsToCheck))

	for _, id := range idsToCheck {
		r.mu.RLock()
		client, ok := r.unhealthy[id]
		r.mu.RUnlock()

		if !ok {
			continue
		}

		if err := client.Health(context.Background()); err == nil {
			r.log.Info("client recovered, moving back to healthy pool", "client_id", id)
			r.setClientHealthy(id)
		} else {
			r.log.Debug("Client remains unhealthy", "client_id", id, "reason", err)
		}
	}
}

// forceHealthCheck выполняет принудительную проверку здоровья клиента.
// Если клиент нездоров, он перемещается в пул неработоспособных.
func (r *Router) forceHealthCheck(client ports.TelegramClient) {
	r.log.Debug("Принудительная проверка работоспособности клиента", "client_id", client.ID())
	if err := client.Health(context.Background()); err != nil {
		r.log.Warn(
			"Клиент не прошел принудительную проверку работоспособности после ошибки, перемещение в пул неработоспособных",
			"client_id", client.ID(),
			"reason", err,
		)
		r.setClientUnhealthy(client.ID(), err)
	} else {
		r.log.Debug("Клиент прошел принудительную проверку работоспособности", "client_id", client.ID())
	}
}

// setClientUnhealthy перемещает клиента из пула здоровых в пул нездоровых.
func (r *Router) setClientUnhealthy(id string, reason error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.healthy[id]
	if !ok {
		return
	}

	delete(r.healthy, id)
	r.unhealthy[id] = client
	r.reasons[id] = reason

	r.log.Warn("Client moved to unhealthy pool", "client_id", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

// setClientHealthy перемещает клиента из пула нездоровых в пул здоровых.
func (r *Router) setClientHealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.unhealthy[id]
	if !ok {
		return
	}

	delete(r.unhealthy, id)
	delete(r.reasons, id)
	r.healthy[id] = client

	r.log.Info("Client moved back to healthy pool", "client_id", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

// --- clientWrapper ---

// clientWrapper — декоратор клиента, который перехватывает ошибки
// вызовов API и инициирует проверку работоспособности клиента.
type clientWrapper struct {
	ports.TelegramClient
	router *Router
}

// handleError запускает принудительную проверку здоровья, если ошибка есть.
// Отсутствие чата — ошибка запроса, а не клиента.
func (w *clientWrapper) handleError(err error) {
	if err == nil || errors.Is(err, domain.ErrChatNotFound) || errors.Is(err, context.Canceled) {
		return
	}
	go w.router.forceHealthCheck(w.TelegramClient)
}

func (w *clientWrapper) Dialogs(ctx context.Context) ([]domain.Dialog, error) {
	w.router.log.DebugContext(ctx, "Calling Dialogs via wrapper", "client_id", w.ID())
	res, err := w.TelegramClient.Dialogs(ctx)
	w.handleError(err)
	return res, err
}

func (w *clientWrapper) History(ctx context.Context, chatID int64) (ports.MessageIterator, error) {
	w.router.log.DebugContext(ctx, "Calling History via wrapper", "client_id", w.ID(), "chat_id", chatID)
	iter, err := w.TelegramClient.History(ctx, chatID)
	w.handleError(err)
	if err != nil {
		return nil, err
	}
	return &iteratorWrapper{MessageIterator: iter, wrapper: w}, nil
}

// iteratorWrapper передает ошибки чтения истории в проверку здоровья клиента.
type iteratorWrapper struct {
	ports.MessageIterator
	wrapper *clientWrapper
}

func (it *iteratorWrapper) Next(ctx context.Context) (domain.RawMessage, bool, error) {
	msg, ok, err := it.MessageIterator.Next(ctx)
	it.wrapper.handleError(err)
	return msg, ok, err
}
