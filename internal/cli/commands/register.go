package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"SessionSync/internal/cli/api"
	"SessionSync/internal/cli/bootstrap"
	"SessionSync/internal/config"
)

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account and login" }
func (registerCmd) Usage() string       { return "register <login> <password>" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
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

	rec, err := newSessionClient(cfg).Register(ctx, login, password, deviceID)
	var se *api.StatusError
	if errors.As(err, &se) && se.Code == http.StatusConflict {
		return errors.New("login already in use")
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
	fmt.Fprintln(Out, "Registered and logged in")
	return nil
}

func init() { RegisterCmd(registerCmd{}) }
