package domain

import "errors"

var (
	// ErrChatNotFound возвращается, когда запрошенного чата нет среди диалогов клиента.
	ErrChatNotFound = errors.New("chat not found")
	// ErrClientUnauthenticated возвращается, когда у клиента нет действующей сессии.
	ErrClientUnauthenticated = errors.New("telegram client is not authenticated")
)
