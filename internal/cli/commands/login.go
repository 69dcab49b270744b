package commands

import (
	"context"
	"errors"
	"fmt"

	"SessionSync/internal/cli/api"
	"SessionSync/internal/cli/auth"
	"SessionSync/internal/cli/bootstrap"
	"SessionSync/internal/config"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth token" }
func (loginCmd) Usage() string       { return "login <login> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	login, password := args[0], args[1]

	uc, err := bootstrap.OpenUserContext(cfg)
	if err != nil {
		return err
	}
	deviceID, err := uc.DeviceID()
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	rec, err := newSessionClient(cfg).Login(ctx, login, password, deviceID)
	if errors.Is(err, api.ErrUnauthorized) {
		return errors.New("invalid login or password")
	}
	if err != nil {
		return err
	}
	if err := persistToken(ctx, cfg, rec); err != nil {
		return err
	}
	if err := uc.SaveLogin(login); err != nil {
		return fmt.Errorf("saving login: %w", err)
	}
	fmt.Fprintln(Out, "Logged in successfully")
	return nil
}

// persistToken кладёт выданный токен в выбранное хранилище.
func persistToken(ctx context.Context, cfg *config.Config, rec auth.TokenRecord) error {
	store, done, err := bootstrap.OpenTokenStore(cfg)
	if err != nil {
		return err
	}
	defer done()
	if err := store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}

func init() { RegisterCmd(loginCmd{}) }
