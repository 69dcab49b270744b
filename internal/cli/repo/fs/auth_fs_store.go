package fs

import (
	"SessionSync/internal/cli/auth"
	"SessionSync/internal/cli/repo"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// AuthFSStore — файловое хранилище токена и контекста пользователя для CLI.
// Путь токена задаётся явно; логин и device id лежат рядом в том же каталоге.
type AuthFSStore struct {
	TokenPath string
}

var (
	_ repo.TokenStore       = AuthFSStore{}
	_ repo.UserContextStore = AuthFSStore{}
	_ repo.DeviceStore      = AuthFSStore{}
)

// NewAuthFSStore создаёт хранилище с токеном в tokenPath. Пустой путь — каталог
// пользовательского конфига по умолчанию.
func NewAuthFSStore(tokenPath string) (AuthFSStore, error) {
	if tokenPath == "" {
		dir, err := configDir()
		if err != nil {
			return AuthFSStore{}, err
		}
		tokenPath = filepath.Join(dir, "auth_token.json")
	}
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
		return AuthFSStore{}, err
	}
	return AuthFSStore{TokenPath: tokenPath}, nil
}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "SessionSync")
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}
	return p, nil
}

func (s AuthFSStore) dir() string { return filepath.Dir(s.TokenPath) }

func (s AuthFSStore) lastLoginPath() string { return filepath.Join(s.dir(), "last_login") }

func (s AuthFSStore) devicePath() string { return filepath.Join(s.dir(), "device_id") }

// Load читает запись токена из файла. Отсутствующий файл — это «токена нет».
func (s AuthFSStore) Load(_ context.Context) (*auth.TokenRecord, error) {
	b, err := os.ReadFile(s.TokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(trimTrailing(b)) == 0 {
		return nil, nil
	}
	var rec auth.TokenRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("token file: %w", err)
	}
	return &rec, nil
}

// Save атомарно перезаписывает файл токена (запись во временный файл + rename).
func (s AuthFSStore) Save(_ context.Context, rec auth.TokenRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tmp := s.TokenPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.TokenPath)
}

// Clear удаляет файл токена.
func (s AuthFSStore) Clear(_ context.Context) error {
	if err := os.Remove(s.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveLogin сохраняет логин пользователя в файл.
func (s AuthFSStore) SaveLogin(login string) error {
	if login == "" {
		return errors.New("empty login")
	}
	return os.WriteFile(s.lastLoginPath(), []byte(login), 0o600)
}

// LoadLogin читает логин пользователя из файла.
func (s AuthFSStore) LoadLogin() (string, error) {
	b, err := os.ReadFile(s.lastLoginPath())
	if err != nil {
		return "", err
	}
	b = trimTrailing(b)
	if len(b) == 0 {
		return "", errors.New("no stored login")
	}
	return string(b), nil
}

// DeviceID возвращает идентификатор установки, создавая его при первом обращении.
func (s AuthFSStore) DeviceID() (string, error) {
	p := s.devicePath()
	if b, err := os.ReadFile(p); err == nil {
		if id := string(trimTrailing(b)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	id := uuid.NewString()
	if err := os.WriteFile(p, []byte(id), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

// trimTrailing обрезает завершающие переводы строки/пробелы
func trimTrailing(b []byte) []byte {
	for len(b) > 0 {
		c := b[len(b)-1]
		if c == '\n' || c == '\r' || c == ' ' || c == '\t' {
			b = b[:len(b)-1]
			continue
		}
		break
	}
	return b
}
