package session

import "fmt"

// Op — фоновая или внешняя операция синхронизатора.
type Op string

const (
	OpFetch     Op = "fetch"
	OpValidate  Op = "validate"
	OpSignOut   Op = "sign_out"
	OpRefetch   Op = "refetch"
	OpSubscribe Op = "subscribe"
)

// Disposition — что синхронизатор сделал с результатом операции.
type Disposition int

const (
	// Applied: результат принят (профиль сессии обновлён).
	Applied Disposition = iota
	// Stale: результат пришёл для вытесненного токена и отброшен.
	Stale
	// Ignored: ошибка залогирована, состояние не тронуто.
	Ignored
	// Suppressed: ошибка проглочена, операция была best-effort.
	Suppressed
	// Propagated: ошибка возвращена вызывающему.
	Propagated
)

func (d Disposition) String() string {
	switch d {
	case Applied:
		return "applied"
	case Stale:
		return "stale"
	case Ignored:
		return "ignored"
	case Suppressed:
		return "suppressed"
	case Propagated:
		return "propagated"
	default:
		return fmt.Sprintf("Disposition(%d)", int(d))
	}
}

// Outcome — итог одной операции. Generation — поколение слота токена,
// для которого операция запускалась.
type Outcome struct {
	Op          Op
	Generation  uint64
	Disposition Disposition
	Err         error
}
