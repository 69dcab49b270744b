// Package session держит токен в памяти согласованным с хранилищем токенов
// и с уведомлениями об изменениях от других процессов.
//
// Стартовое чтение и поток событий идут независимо. Оба меняют один Holder под
// одним мьютексом; каждая активация или очистка увеличивает номер поколения,
// и поздние фоновые ответы для заменённого токена отбрасываются.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SessionSync/internal/cli/auth"
	"SessionSync/internal/cli/repo"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrNotifierClosed — поток изменений закрылся раньше, чем завершился ctx.
var ErrNotifierClosed = errors.New("token change stream closed")

const defaultCallTimeout = 10 * time.Second

// Validator — серверная сторона сессии.
type Validator interface {
	// RefetchSession заново получает сессию для token. Пустой token — «сессии нет».
	RefetchSession(ctx context.Context, token auth.Token) (*auth.Profile, error)
	// SignOut сбрасывает серверное состояние, связанное с token.
	SignOut(ctx context.Context, token auth.Token) error
}

// Notifier доставляет события изменения токена по порядку.
// Канал закрывается, когда подписка завершена.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan auth.ChangeEvent, error)
}

type Option func(*Synchronizer)

func WithClock(c clockwork.Clock) Option {
	return func(s *Synchronizer) { s.clock = c }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithCallTimeout ограничивает каждый удалённый вызов.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithObserver получает исход каждого удалённого вызова и стартового чтения.
func WithObserver(fn func(Outcome)) Option {
	return func(s *Synchronizer) { s.observer = fn }
}

// WithStateListener вызывается после каждого изменения состояния.
// Вызовы последовательны; устаревшее состояние слушателю не доставляется.
func WithStateListener(fn func(State)) Option {
	return func(s *Synchronizer) { s.listener = fn }
}

type Synchronizer struct {
	holder    *Holder
	validator Validator
	clock     clockwork.Clock
	logger    *zap.SugaredLogger
	timeout   time.Duration
	observer  func(Outcome)
	listener  func(State)

	mu       sync.Mutex
	hydrated bool
	claimed  bool // слот занят событием; позднее стартовое чтение не активирует токен
	gen      uint64
	seq      uint64 // номер снимка состояния для слушателя
	profile  *auth.Profile
	ready    chan struct{}

	events    sync.Mutex // HandleEvent по одному
	notifyMu  sync.Mutex
	delivered uint64
	fetchOnce sync.Once
	bg        sync.WaitGroup
	bgCtx     context.Context
	bgCancel  context.CancelFunc
}

func New(holder *Holder, validator Validator, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		holder:    holder,
		validator: validator,
		clock:     clockwork.NewRealClock(),
		logger:    zap.NewNop().Sugar(),
		timeout:   defaultCallTimeout,
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	return s
}

// Hydrate применяет результат стартового чтения. Действует только первый завершённый результат.
func (s *Synchronizer) Hydrate(res FetchResult) {
	if res.Status == FetchPending {
		return
	}

	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return
	}
	var (
		validate bool
		gen      = s.gen
		token    auth.Token
	)
	switch {
	case res.Status == FetchFailed:
		s.logger.Warnw("Token store fetch failed, continuing signed out", "error", res.Err)
	case res.Record == nil:
		s.logger.Debugw("No persisted token")
	case s.claimed:
		s.logger.Debugw("Persisted token skipped, a change event took precedence")
	case res.Record.Expired(s.clock.Now()):
		s.logger.Infow("Persisted token expired", "expires_at", res.Record.ExpiresAt)
	default:
		gen = s.activateLocked(*res.Record)
		token = res.Record.Token
		validate = true
	}
	s.markHydratedLocked()
	seq, state := s.snapshotLocked()
	s.mu.Unlock()

	if res.Status == FetchFailed {
		s.report(Outcome{Op: OpFetch, Generation: gen, Disposition: Ignored, Err: res.Err})
	}
	s.notify(seq, state)
	if validate {
		s.spawnRefetch(OpValidate, gen, token)
	}
}

// HandleEvent применяет одно событие. Вызовы последовательны: событие применяется
// полностью до начала следующего.
func (s *Synchronizer) HandleEvent(ctx context.Context, ev auth.ChangeEvent) {
	s.events.Lock()
	defer s.events.Unlock()

	switch ev.Kind {
	case auth.TokenIssued:
		s.mu.Lock()
		prev, _ := s.holder.Current()
		s.claimed = true
		gen := s.clearLocked()
		s.mu.Unlock()

		if prev != "" && prev == ev.Record.Token {
			// тот же токен выдан повторно: отзывать его нельзя
			s.logger.Debugw("Re-issued token matches the active one, sign-out skipped")
			s.report(Outcome{Op: OpSignOut, Generation: gen, Disposition: Ignored})
		} else {
			s.signOut(ctx, gen, prev)
		}

		s.mu.Lock()
		gen = s.activateLocked(ev.Record)
		s.markHydratedLocked()
		seq, state := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Infow("Token replaced by change event", "expires_at", ev.Record.ExpiresAt)
		s.notify(seq, state)
		s.spawnRefetch(OpRefetch, gen, ev.Record.Token)

	case auth.TokenCleared:
		s.mu.Lock()
		s.claimed = true
		gen := s.clearLocked()
		s.markHydratedLocked()
		seq, state := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Infow("Token cleared by change event")
		s.notify(seq, state)
		s.spawnRefetch(OpRefetch, gen, "")

	default:
		s.logger.Warnw("Unknown token change event", "kind", ev.Kind)
	}
}

// Start один раз читает сохранённый токен в фоне и гидратирует по нему.
// Повторные вызовы ничего не делают: чтение не повторяется.
func (s *Synchronizer) Start(ctx context.Context, store repo.TokenStore) {
	s.fetchOnce.Do(func() {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			rec, err := store.Load(ctx)
			s.Hydrate(Fetched(rec, err))
		}()
	})
}

// Run запускает гидратацию из store и применяет события notifier в порядке доставки,
// пока не завершится ctx.
func (s *Synchronizer) Run(ctx context.Context, store repo.TokenStore, notifier Notifier) error {
	s.Start(ctx, store)

	events, err := notifier.Subscribe(ctx)
	if err != nil {
		s.report(Outcome{Op: OpSubscribe, Disposition: Propagated, Err: err})
		return fmt.Errorf("subscribe to token changes: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				s.report(Outcome{Op: OpSubscribe, Disposition: Propagated, Err: ErrNotifierClosed})
				return ErrNotifierClosed
			}
			s.HandleEvent(ctx, ev)
		}
	}
}

// Wait ждёт стартовое чтение и все фоновые вызовы.
func (s *Synchronizer) Wait() {
	s.bg.Wait()
}

// Close отменяет фоновые вызовы и дожидается их.
func (s *Synchronizer) Close() {
	s.bgCancel()
	s.bg.Wait()
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Synchronizer) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Ready закрывается после гидратации.
func (s *Synchronizer) Ready() <-chan struct{} {
	return s.ready
}

func (s *Synchronizer) RenderState() RenderState {
	if s.Hydrated() {
		return RenderContent
	}
	return RenderLoading
}

// Profile — последний подтверждённый профиль для активного токена.
func (s *Synchronizer) Profile() (auth.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return auth.Profile{}, false
	}
	return *s.profile, true
}

// Holder — слот токена, в который пишет синхронизатор.
func (s *Synchronizer) Holder() *Holder {
	return s.holder
}

func (s *Synchronizer) signOut(ctx context.Context, gen uint64, token auth.Token) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.validator.SignOut(ctx, token); err != nil {
		// без повторов
		s.logger.Debugw("Sign-out of previous token failed", "error", err)
		s.report(Outcome{Op: OpSignOut, Generation: gen, Disposition: Suppressed, Err: err})
		return
	}
	s.report(Outcome{Op: OpSignOut, Generation: gen, Disposition: Applied})
}

func (s *Synchronizer) spawnRefetch(op Op, gen uint64, token auth.Token) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(s.bgCtx, s.timeout)
		defer cancel()
		profile, err := s.validator.RefetchSession(ctx, token)
		s.applyProfile(op, gen, profile, err)
	}()
}

func (s *Synchronizer) applyProfile(op Op, gen uint64, profile *auth.Profile, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debugw("Discarding stale session result", "op", op, "generation", gen)
		s.report(Outcome{Op: op, Generation: gen, Disposition: Stale, Err: err})
		return
	}
	if err != nil {
		s.mu.Unlock()
		if op == OpValidate {
			s.logger.Warnw("Session validation failed", "error", err)
		} else {
			s.logger.Debugw("Session refetch failed", "error", err)
		}
		s.report(Outcome{Op: op, Generation: gen, Disposition: Ignored, Err: err})
		return
	}
	s.profile = profile
	s.mu.Unlock()
	s.report(Outcome{Op: op, Generation: gen, Disposition: Applied})
}

func (s *Synchronizer) activateLocked(rec auth.TokenRecord) uint64 {
	s.holder.Activate(rec)
	s.profile = nil
	s.gen++
	return s.gen
}

func (s *Synchronizer) clearLocked() uint64 {
	s.holder.Clear()
	s.profile = nil
	s.gen++
	return s.gen
}

func (s *Synchronizer) markHydratedLocked() {
	if !s.hydrated {
		s.hydrated = true
		close(s.ready)
	}
}

// snapshotLocked фиксирует состояние вместе с его порядковым номером.
func (s *Synchronizer) snapshotLocked() (uint64, State) {
	s.seq++
	return s.seq, s.stateLocked()
}

func (s *Synchronizer) stateLocked() State {
	if !s.hydrated {
		return Unhydrated
	}
	if _, ok := s.holder.Current(); ok {
		return Active
	}
	return NoToken
}

func (s *Synchronizer) report(o Outcome) {
	if s.observer != nil {
		s.observer(o)
	}
}

// notify доставляет снимки по возрастанию seq; снимок старше уже доставленного отбрасывается.
func (s *Synchronizer) notify(seq uint64, st State) {
	if s.listener == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq
	s.listener(st)
}
