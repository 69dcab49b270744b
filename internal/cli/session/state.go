package session

import "SessionSync/internal/cli/auth"

// State — состояние слота токена.
type State int

const (
	Unhydrated State = iota
	NoToken
	Active
)

func (s State) String() string {
	switch s {
	case Unhydrated:
		return "unhydrated"
	case NoToken:
		return "no_token"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// RenderState — единственное, что UI берёт у синхронизатора.
type RenderState int

const (
	// RenderLoading: показать блокирующий индикатор загрузки.
	RenderLoading RenderState = iota
	// RenderContent: показать обычное содержимое.
	RenderContent
)

func (r RenderState) String() string {
	if r == RenderContent {
		return "content"
	}
	return "loading"
}

// FetchStatus — стадия стартового чтения хранилища.
type FetchStatus int

const (
	FetchPending FetchStatus = iota
	FetchSucceeded
	FetchFailed
)

// FetchResult — результат чтения хранилища токена.
type FetchResult struct {
	Status FetchStatus
	Record *auth.TokenRecord
	Err    error
}

// Fetched превращает ответ TokenStore.Load в FetchResult.
func Fetched(rec *auth.TokenRecord, err error) FetchResult {
	if err != nil {
		return FetchResult{Status: FetchFailed, Err: err}
	}
	return FetchResult{Status: FetchSucceeded, Record: rec}
}
