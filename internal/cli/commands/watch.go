package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"SessionSync/internal/cli/api"
	"SessionSync/internal/cli/bootstrap"
	"SessionSync/internal/cli/session"
	"SessionSync/internal/config"

	"golang.org/x/sync/errgroup"
)

type watchCmd struct{}

func (watchCmd) Name() string { return "watch" }
func (watchCmd) Description() string {
	return "Keep the session in sync with token changes pushed by the server"
}
func (watchCmd) Usage() string { return "watch [--once]" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	once := fs.Bool("once", false, "выйти сразу после загрузки сохранённого токена")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}

	store, done, err := bootstrap.OpenTokenStore(cfg)
	if err != nil {
		return err
	}
	defer done()

	uc, err := bootstrap.OpenUserContext(cfg)
	if err != nil {
		return err
	}
	deviceID, err := uc.DeviceID()
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	p := &statePrinter{w: Out}
	outcomes := make(chan session.Outcome, 16)
	holder := session.NewHolder()
	p.holder = holder
	syncer := session.New(holder, newSessionClient(cfg),
		session.WithClock(clock),
		session.WithLogger(logger),
		session.WithCallTimeout(cfg.ValidateTimeout),
		session.WithStateListener(p.state),
		session.WithObserver(func(o session.Outcome) {
			select {
			case outcomes <- o:
			default:
			}
		}),
	)
	defer syncer.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p.line("loading…")

	if *once {
		syncer.Start(ctx, store)
		select {
		case <-syncer.Ready():
		case <-ctx.Done():
		}
		return nil
	}

	notifier := api.NewEventSubscriber(cfg.WebsocketURL(), deviceID, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncer.Run(gctx, store, notifier)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case o := <-outcomes:
				if o.Disposition != session.Applied || (o.Op != session.OpValidate && o.Op != session.OpRefetch) {
					continue
				}
				if prof, ok := syncer.Profile(); ok {
					p.line(fmt.Sprintf("session: %s (user %d)", prof.Login, prof.UserID))
				}
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// statePrinter печатает по строке на каждое изменение состояния.
type statePrinter struct {
	mu     sync.Mutex
	w      io.Writer
	holder *session.Holder
}

func (p *statePrinter) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *statePrinter) state(st session.State) {
	switch st {
	case session.Active:
		rec, ok := p.holder.Record()
		if !ok {
			p.line("state: signed out")
			return
		}
		p.line(fmt.Sprintf("state: active until %s", rec.ExpiresAt.Local().Format(time.RFC3339)))
	case session.NoToken:
		p.line("state: signed out")
	default:
		p.line("state: " + st.String())
	}
}

func init() { RegisterCmd(watchCmd{}) }
