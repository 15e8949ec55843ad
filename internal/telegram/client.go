package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
	trm "telegram-chat-log/internal/pkg/term"
)

var (
	// ErrFloodWaitActive возвращается, когда клиент не может выполнить запрос из-за активного ограничения FLOOD_WAIT.
	ErrFloodWaitActive = errors.New("client is in flood wait")
	// ErrClientStopped возвращается после остановки фонового процесса клиента.
	ErrClientStopped = errors.New("telegram client is stopped")
	// ErrClientNotReady возвращается проверкой здоровья, пока сессия еще не проверена.
	ErrClientNotReady = errors.New("telegram client is not ready")

	// floodWaitRegex используется для парсинга длительности ожидания из сообщения об ошибке.
	floodWaitRegex = regexp.MustCompile(`FLOOD_WAIT \((\d+)\)`)
)

// Ошибки RPC, означающие отсутствие действующей сессии.
var unauthorizedErrors = []string{
	"AUTH_KEY_UNREGISTERED",
	"AUTH_KEY_INVALID",
	"SESSION_REVOKED",
	"SESSION_EXPIRED",
	"USER_DEACTIVATED",
}

const (
	defaultPageSize   = 100
	dialogsPageSize   = 100
	maxDialogPages    = 50
	updatesBufferSize = 256
)

// telegramAPI представляет необработанные методы API, которые мы используем.
type telegramAPI interface {
	UsersGetUsers(ctx context.Context, request []tg.InputUserClass) ([]tg.UserClass, error)
	MessagesGetDialogs(ctx context.Context, request *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	HelpGetConfig(ctx context.Context) (*tg.Config, error)
}

// telegramAuth представляет клиент аутентификации.
type telegramAuth interface {
	auth.FlowClient
}

// telegramRunner определяет зависимости от клиента gotd.
// Это позволяет создавать моки в тестах.
type telegramRunner interface {
	Run(ctx context.Context, f func(ctx context.Context) error) error
	API() telegramAPI
	Auth() telegramAuth
}

// prodRunner является оберткой вокруг реального *telegram.Client для удовлетворения интерфейса telegramRunner.
type prodRunner struct {
	*telegram.Client
}

func (p *prodRunner) API() telegramAPI {
	return p.Client.API()
}

func (p *prodRunner) Auth() telegramAuth {
	return p.Client.Auth()
}

// authFlow определяет интерфейс для процесса аутентификации.
type authFlow interface {
	Run(ctx context.Context, client auth.FlowClient) error
}

// Client — клиент MTProto для одной сессии. Читает диалоги и историю чатов,
// принимает новые сообщения и следит за ограничениями FLOOD_WAIT.
// Сам клиент не проходит авторизацию: без действующей сессии все запросы
// завершаются ошибкой domain.ErrClientUnauthenticated. Интерактивный вход — Login.
type Client struct {
	id         string
	tgRunner   telegramRunner
	authFlow   authFlow
	isTerminal func(fd int) bool
	clock      func() time.Time
	log        *slog.Logger
	pageSize   int

	updates chan domain.IncomingMessage

	mu             sync.RWMutex
	unhealthyUntil time.Time
	peers          peerIndex
	runErr         error

	ready     chan struct{}
	done      chan struct{}
	startOnce sync.Once
}

var _ ports.TelegramClient = (*Client)(nil)

// Config содержит конфигурацию для создания нового клиента.
type Config struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	SessionPath string
	// PageSize — размер страницы при чтении истории.
	PageSize int
}

// ClientOption определяет функциональную опцию для конфигурации клиента.
type ClientOption func(*Client)

// WithLogger устанавливает логгер для клиента.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient создает новый экземпляр Client.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	c := newClient(cfg.PageSize)
	for _, opt := range opts {
		opt(c)
	}

	// Новые сообщения приходят через диспетчер обновлений.
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		return c.publish(ctx, e, u.Message)
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		return c.publish(ctx, e, u.Message)
	})

	tgClient := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
		UpdateHandler:  dispatcher,
	})

	c.tgRunner = &prodRunner{Client: tgClient}
	c.authFlow = auth.NewFlow(trm.NewTerminal(cfg.PhoneNumber), auth.SendCodeOptions{})
	return c
}

func newClient(pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		id:         uuid.NewString(),
		isTerminal: func(fd int) bool { return term.IsTerminal(fd) },
		clock:      time.Now,
		log:        slog.Default(),
		pageSize:   pageSize,
		updates:    make(chan domain.IncomingMessage, updatesBufferSize),
		peers:      make(peerIndex),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// ID возвращает уникальный идентификатор клиента.
func (c *Client) ID() string {
	return c.id
}

// Updates возвращает канал новых сообщений. Канал закрывается после остановки клиента.
func (c *Client) Updates() <-chan domain.IncomingMessage {
	return c.updates
}

// Start запускает фоновый процесс клиента и проверяет сессию.
// Должен быть вызван один раз перед использованием клиента.
func (c *Client) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go func() {
			c.log.InfoContext(ctx, "Starting telegram client background runner", "client_id", c.id)
			err := c.tgRunner.Run(ctx, func(runCtx context.Context) error {
				if err := c.checkSession(runCtx); err != nil {
					return err
				}
				c.log.InfoContext(runCtx, "Telegram client authenticated and ready", "client_id", c.id)
				close(c.ready)

				// Держим соединение активным, пока не завершится контекст.
				<-runCtx.Done()
				return runCtx.Err()
			})

			if err != nil && !errors.Is(err, context.Canceled) {
				c.log.ErrorContext(ctx, "Telegram client background runner exited with error", "client_id", c.id, "error", err)
			} else {
				c.log.InfoContext(ctx, "Telegram client background runner stopped", "client_id", c.id)
			}

			c.mu.Lock()
			c.runErr = err
			c.mu.Unlock()
			close(c.done)
			close(c.updates)
		}()
	})
}

// Login проходит интерактивную авторизацию в терминале и сохраняет сессию.
// Если сессия уже действует, ничего не делает. Не используется вместе со Start.
func (c *Client) Login(ctx context.Context) error {
	return c.tgRunner.Run(ctx, func(runCtx context.Context) error {
		err := c.checkSession(runCtx)
		if err == nil {
			c.log.InfoContext(runCtx, "Session is already authorized", "client_id", c.id)
			return nil
		}
		if !errors.Is(err, domain.ErrClientUnauthenticated) {
			return err
		}

		c.log.WarnContext(runCtx, "Session check failed, attempting interactive auth", "client_id", c.id)
		if !c.isTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("session is invalid and cannot perform interactive auth in non-terminal: %w", err)
		}
		if authErr := c.authFlow.Run(runCtx, c.tgRunner.Auth()); authErr != nil {
			return fmt.Errorf("interactive auth failed: %w", authErr)
		}
		c.log.InfoContext(runCtx, "Interactive auth successful, session saved", "client_id", c.id)
		return nil
	})
}

// checkSession запрашивает собственного пользователя, чтобы убедиться, что сессия действует.
func (c *Client) checkSession(ctx context.Context) error {
	_, err := c.tgRunner.API().UsersGetUsers(ctx, []tg.InputUserClass{&tg.InputUserSelf{}})
	if err == nil {
		return nil
	}
	if isUnauthorized(err) {
		c.log.WarnContext(ctx, "Session check failed: no valid session", "client_id", c.id, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrClientUnauthenticated, err)
	}
	return fmt.Errorf("session check failed: %w", err)
}

func isUnauthorized(err error) bool {
	msg := err.Error()
	for _, code := range unauthorizedErrors {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// waitReady ждет окончания проверки сессии.
func (c *Client) waitReady(ctx context.Context) error {
	if c.stopped() {
		return c.stoppedError()
	}
	select {
	case <-c.ready:
		return nil
	case <-c.done:
		return c.stoppedError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) stoppedError() error {
	c.mu.RLock()
	err := c.runErr
	c.mu.RUnlock()
	if err == nil || errors.Is(err, context.Canceled) {
		return ErrClientStopped
	}
	return fmt.Errorf("клиент telegram не запущен: %w", err)
}

// Health проверяет работоспособность клиента.
// Если сессия еще не проверена или активен FLOOD_WAIT, возвращает ошибку.
// В противном случае выполняет легковесный запрос к API.
func (c *Client) Health(ctx context.Context) error {
	if c.stopped() {
		return c.stoppedError()
	}
	select {
	case <-c.ready:
	default:
		return ErrClientNotReady
	}

	if err := c.checkHealthStatus(); err != nil {
		return err
	}

	return c.do(ctx, func(ctx context.Context) error {
		_, err := c.tgRunner.API().HelpGetConfig(ctx)
		return err
	})
}

// Dialogs возвращает все диалоги аккаунта, постранично обходя список.
func (c *Client) Dialogs(ctx context.Context) ([]domain.Dialog, error) {
	if err := c.waitReady(ctx); err != nil {
		return nil, err
	}

	req := &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogsPageSize,
	}
	seen := make(map[int64]struct{})
	var dialogs []domain.Dialog

	for page := 0; page < maxDialogPages; page++ {
		c.log.DebugContext(ctx, "Executing API call: MessagesGetDialogs", "page", page)
		var res tg.MessagesDialogsClass
		err := c.do(ctx, func(ctx context.Context) error {
			var err error
			res, err = c.tgRunner.API().MessagesGetDialogs(ctx, req)
			return err
		})
		if err != nil {
			if !errors.Is(err, ErrFloodWaitActive) {
				c.log.WarnContext(ctx, "API call MessagesGetDialogs failed", "error", err)
			}
			return nil, fmt.Errorf("не удалось получить список диалогов: %w", err)
		}

		p := unpackDialogs(res)
		idx := newPeerIndex(p.users, p.chats)
		c.rememberPeers(idx)

		var last *tg.Dialog
		for _, d := range p.dialogs {
			dialog, ok := d.(*tg.Dialog)
			if !ok {
				continue
			}
			last = dialog
			id := MarkedID(dialog.Peer)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			dialogs = append(dialogs, domain.Dialog{ID: id, Title: idx.title(dialog.Peer)})
		}

		if p.complete || len(p.dialogs) < dialogsPageSize || last == nil {
			break
		}

		// Следующая страница начинается после верхнего сообщения последнего диалога.
		next, ok := nextDialogsOffset(last, p.messages, idx)
		if !ok {
			break
		}
		next.Limit = dialogsPageSize
		req = next
	}

	c.log.DebugContext(ctx, "Dialogs fetched", "client_id", c.id, "count", len(dialogs))
	return dialogs, nil
}

type dialogsPage struct {
	dialogs  []tg.DialogClass
	messages []tg.MessageClass
	users    []tg.UserClass
	chats    []tg.ChatClass
	complete bool
}

func unpackDialogs(res tg.MessagesDialogsClass) dialogsPage {
	switch r := res.(type) {
	case *tg.MessagesDialogs:
		return dialogsPage{dialogs: r.Dialogs, messages: r.Messages, users: r.Users, chats: r.Chats, complete: true}
	case *tg.MessagesDialogsSlice:
		return dialogsPage{dialogs: r.Dialogs, messages: r.Messages, users: r.Users, chats: r.Chats}
	default:
		return dialogsPage{complete: true}
	}
}

func nextDialogsOffset(last *tg.Dialog, messages []tg.MessageClass, idx peerIndex) (*tg.MessagesGetDialogsRequest, bool) {
	peerID := MarkedID(last.Peer)
	info, ok := idx[peerID]
	if !ok || info.input == nil {
		return nil, false
	}

	req := &tg.MessagesGetDialogsRequest{
		OffsetID:   last.TopMessage,
		OffsetPeer: info.input,
	}
	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if ok && msg.ID == last.TopMessage && MarkedID(msg.PeerID) == peerID {
			req.OffsetDate = msg.Date
			break
		}
	}
	return req, true
}

// History открывает историю чата chatID. Если чат неизвестен, сначала обновляется список диалогов.
func (c *Client) History(ctx context.Context, chatID int64) (ports.MessageIterator, error) {
	if err := c.waitReady(ctx); err != nil {
		return nil, err
	}

	peer, ok := c.lookupPeer(chatID)
	if !ok {
		if _, err := c.Dialogs(ctx); err != nil {
			return nil, err
		}
		peer, ok = c.lookupPeer(chatID)
	}
	if !ok {
		c.log.WarnContext(ctx, "Chat not found among dialogs", "client_id", c.id, "chat_id", chatID)
		return nil, fmt.Errorf("%w: %d", domain.ErrChatNotFound, chatID)
	}

	return &historyIterator{client: c, peer: peer, chatID: chatID}, nil
}

func (c *Client) lookupPeer(chatID int64) (tg.InputPeerClass, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.peers[chatID]
	if !ok || info.input == nil {
		return nil, false
	}
	return info.input, true
}

func (c *Client) rememberPeers(idx peerIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, info := range idx {
		if info.input != nil {
			c.peers[id] = info
		}
	}
}

// getHistory выполняет запрос MessagesGetHistory.
func (c *Client) getHistory(ctx context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
	var result tg.MessagesMessagesClass
	c.log.DebugContext(ctx, "Executing API call: MessagesGetHistory", "offset_id", req.OffsetID, "limit", req.Limit)
	err := c.do(ctx, func(ctx context.Context) error {
		res, err := c.tgRunner.API().MessagesGetHistory(ctx, req)
		if err == nil {
			result = res
		}
		return err
	})
	if err != nil && !errors.Is(err, ErrFloodWaitActive) {
		c.log.WarnContext(ctx, "API call MessagesGetHistory failed", "error", err)
	}
	return result, err
}

// publish переводит новое сообщение из обновления в IncomingMessage.
// Если читатель не успевает, сообщение отбрасывается, чтобы не задерживать обработку обновлений.
func (c *Client) publish(ctx context.Context, e tg.Entities, msg tg.MessageClass) error {
	idx := peerIndexFromEntities(e)
	chatID, raw, ok := idx.mapMessage(msg)
	if !ok {
		return nil
	}
	c.rememberPeers(idx)

	select {
	case c.updates <- domain.IncomingMessage{ChatID: chatID, Message: raw}:
	default:
		c.log.WarnContext(ctx, "Updates channel is full, dropping message", "client_id", c.id, "chat_id", chatID, "message_id", raw.ID)
	}
	return nil
}

// do выполняет запрос к API с учетом FLOOD_WAIT.
func (c *Client) do(ctx context.Context, f func(ctx context.Context) error) error {
	if err := c.checkHealthStatus(); err != nil {
		c.log.WarnContext(ctx, "Client is unhealthy, aborting request", "error", err)
		return err
	}

	opErr := f(ctx)
	if opErr == nil {
		return nil
	}

	c.handleError(opErr)
	if isUnauthorized(opErr) {
		return fmt.Errorf("%w: %v", domain.ErrClientUnauthenticated, opErr)
	}

	if c.stopped() {
		return fmt.Errorf("%w (ошибка операции: %v)", c.stoppedError(), opErr)
	}

	return opErr
}

// checkHealthStatus проверяет, не находится ли клиент в состоянии FLOOD_WAIT.
func (c *Client) checkHealthStatus() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.unhealthyUntil.IsZero() && c.clock().Before(c.unhealthyUntil) {
		return fmt.Errorf("%w: active until %v", ErrFloodWaitActive, c.unhealthyUntil)
	}
	return nil
}

// handleError ищет FLOOD_WAIT и обновляет состояние клиента.
func (c *Client) handleError(err error) {
	if waitDuration, ok := parseFloodWait(err); ok {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.unhealthyUntil = c.clock().Add(waitDuration)
		c.log.Warn("Client got FLOOD_WAIT, set unhealthy", "client_id", c.id, "wait_duration", waitDuration, "until", c.unhealthyUntil)
	}
}

// parseFloodWait извлекает длительность ожидания из ошибки.
func parseFloodWait(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	matches := floodWaitRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0, false
	}

	seconds, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0, false
	}

	return time.Duration(seconds) * time.Second, true
}
