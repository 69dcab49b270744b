package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"SessionSync/internal/cli/auth"
	"SessionSync/internal/cli/bootstrap"
	"SessionSync/internal/config"

	"github.com/jonboulle/clockwork"
)

// withTempConfig переопределяет пользовательские каталоги на время теста,
// чтобы артефакты (токен/логин/база) создавались в temp.
func withTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", dir)
	} else {
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
	return dir
}

// syncBuffer — потокобезопасный writer для вывода команд, работающих в фоне.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureOut(t *testing.T) *syncBuffer {
	t.Helper()
	old := Out
	b := &syncBuffer{}
	Out = b
	t.Cleanup(func() { Out = old })
	return b
}

func withFakeClock(t *testing.T, now time.Time) {
	t.Helper()
	old := clock
	clock = clockwork.NewFakeClockAt(now)
	t.Cleanup(func() { clock = old })
}

func saveToken(t *testing.T, cfg *config.Config, rec auth.TokenRecord) {
	t.Helper()
	if err := persistToken(context.Background(), cfg, rec); err != nil {
		t.Fatalf("save token: %v", err)
	}
}

func loadToken(t *testing.T, cfg *config.Config) *auth.TokenRecord {
	t.Helper()
	store, done, err := bootstrap.OpenTokenStore(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer done()
	rec, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	return rec
}

func sqliteConfig(dir, serverURL string) *config.Config {
	return &config.Config{
		ServerURL:    serverURL,
		TokenStore:   config.TokenStoreSQLite,
		ClientDBPath: filepath.Join(dir, "client.sqlite"),
	}
}
