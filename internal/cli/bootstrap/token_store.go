package bootstrap

import (
	"fmt"

	"SessionSync/internal/cli/repo"
	fsrepo "SessionSync/internal/cli/repo/fs"
	reposqlite "SessionSync/internal/cli/repo/sqlite"
	"SessionSync/internal/config"
)

// OpenTokenStore открывает хранилище токена, выбранное в конфиге,
// и возвращает (store, cleanup, error). cleanup нужно вызвать по окончании работы.
func OpenTokenStore(cfg *config.Config) (repo.TokenStore, func() error, error) {
	switch cfg.TokenStore {
	case config.TokenStoreSQLite:
		r, err := reposqlite.Open(cfg.ClientDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open client db: %w", err)
		}
		if err := r.Migrate(); err != nil {
			_ = r.Close()
			return nil, nil, fmt.Errorf("migrate client db: %w", err)
		}
		return r, r.Close, nil
	default:
		st, err := fsrepo.NewAuthFSStore(cfg.TokenFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open token file: %w", err)
		}
		return st, func() error { return nil }, nil
	}
}

// OpenUserContext открывает хранилище логина и device id. Оно всегда файловое
// и лежит рядом с файлом токена.
func OpenUserContext(cfg *config.Config) (fsrepo.AuthFSStore, error) {
	return fsrepo.NewAuthFSStore(cfg.TokenFile)
}
