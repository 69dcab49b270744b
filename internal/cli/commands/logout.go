package commands

import (
	"context"
	"fmt"

	"SessionSync/internal/cli/bootstrap"
	"SessionSync/internal/config"
)

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Revoke the session and forget the token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
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
	if rec == nil {
		fmt.Fprintln(Out, "Not logged in")
		return nil
	}

	// сервер может быть недоступен: локальный выход всё равно выполняем
	if err := newSessionClient(cfg).Logout(ctx, rec.Token); err != nil {
		fmt.Fprintf(Out, "! Server logout failed: %v\n", err)
	}
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

func init() { RegisterCmd(logoutCmd{}) }
