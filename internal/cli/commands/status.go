package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SessionSync/internal/cli/api"
	"SessionSync/internal/cli/bootstrap"
	"SessionSync/internal/config"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show the stored token and the server session" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	store, done, err := bootstrap.OpenTokenStore(cfg)
	if err != nil {
		return err
	}
	defer done()

	rec, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading token: %w", err)
	}
	switch {
	case rec == nil:
		fmt.Fprintln(Out, "Status: signed out")
		return nil
	case rec.Expired(clock.Now()):
		fmt.Fprintf(Out, "Status: token expired at %s\n", rec.ExpiresAt.Local().Format(time.RFC3339))
		return nil
	}

	p, err := newSessionClient(cfg).RefetchSession(ctx, rec.Token)
	if errors.Is(err, api.ErrUnauthorized) {
		fmt.Fprintln(Out, "Status: token rejected by server")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Status: active as %s (user %d) until %s\n",
		p.Login, p.UserID, rec.ExpiresAt.Local().Format(time.RFC3339))
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
