package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"SessionSync/internal/cli/auth"
	"strings"
	"sync/atomic"
	"testing"

	"SessionSync/internal/config"
)

// fakeCmd позволяет управлять возвратом ошибок из Run
type fakeCmd struct {
	name, usage, desc string
	run               func(ctx context.Context, cfg *config.Config, args []string) error
}

func (f fakeCmd) Name() string        { return f.name }
func (f fakeCmd) Description() string { return f.desc }
func (f fakeCmd) Usage() string       { return f.usage }
func (f fakeCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	return f.run(ctx, cfg, args)
}

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

func TestDispatcher_HelpAndUnknown(t *testing.T) {
	// зарегистрированы login/logout/register/status/watch из init()
	out := withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{}) })
	if !strings.Contains(out, "SessionSync CLI") {
		t.Fatalf("global help expected")
	}

	out = withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{"help"}) })
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("usage expected")
	}

	code := Dispatch(context.Background(), &config.Config{}, []string{"help", "login"})
	if code != 0 {
		t.Fatalf("expected 0 for help login, got %d", code)
	}

	out = withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{"help", "nope"}) })
	if !strings.Contains(out, "Unknown command") {
		t.Fatalf("unknown command message expected")
	}

	code = Dispatch(context.Background(), &config.Config{}, []string{"no-such"})
	if code != 2 {
		t.Fatalf("expected 2 for unknown command, got %d", code)
	}
}

func TestDispatcher_HelpListsWatchAndExamples(t *testing.T) {
	out := withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{"help"}) })
	for _, want := range []string{"watch [--once]", "Examples:", "sscli watch --once", "sscli help <command>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("global help must mention %q:\n%s", want, out)
		}
	}

	out = withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{"help", "WATCH"}) })
	if !strings.HasPrefix(out, "Usage: sscli watch [--once]\n") {
		t.Fatalf("command usage expected, got %q", out)
	}
	if strings.Contains(out, "Commands:") {
		t.Fatalf("help for one command must not print the whole list")
	}
}

func TestDispatcher_RunPaths(t *testing.T) {
	// зарегистрируем временную команду
	cmdOK := fakeCmd{name: "x", usage: "x", desc: "", run: func(_ context.Context, _ *config.Config, _ []string) error { return nil }}
	RegisterCmd(cmdOK)
	if code := Dispatch(context.Background(), &config.Config{}, []string{"x"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	cmdUsage := fakeCmd{name: "u", usage: "u <arg>", desc: "", run: func(_ context.Context, _ *config.Config, _ []string) error { return ErrUsage }}
	RegisterCmd(cmdUsage)
	out := withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{"u"}) })
	if !strings.Contains(out, "Usage: sscli u <arg>") {
		t.Fatalf("usage text expected")
	}

	cmdErr := fakeCmd{name: "e", usage: "e", desc: "", run: func(_ context.Context, _ *config.Config, _ []string) error { return fmt.Errorf("boom") }}
	RegisterCmd(cmdErr)
	out = withStdoutCapture(t, func() { _ = Dispatch(context.Background(), &config.Config{}, []string{"e"}) })
	if !strings.Contains(out, "e error: boom") {
		t.Fatalf("error line expected, got: %s", out)
	}
}

func TestStatus_Run_States_and_Usage(t *testing.T) {
	withTempConfig(t)
	out := captureOut(t)
	withFakeClock(t, time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/session") {
			t.Fatalf("path: %s", r.URL.Path)
		}
		if c, err := r.Cookie("auth_token"); err != nil || c.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(auth.Profile{UserID: 7, Login: "alice"})
	}))
	defer ts.Close()
	cfg := &config.Config{ServerURL: ts.URL}

	// токена нет
	if err := (statusCmd{}).Run(context.Background(), cfg, []string{}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "signed out") {
		t.Fatalf("signed out expected, got %q", out.String())
	}

	// активный токен
	saveToken(t, cfg, auth.TokenRecord{Token: "good", ExpiresAt: testExpiry})
	if err := (statusCmd{}).Run(context.Background(), cfg, []string{}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "active as alice (user 7)") {
		t.Fatalf("active expected, got %q", out.String())
	}

	// сервер отверг токен
	saveToken(t, cfg, auth.TokenRecord{Token: "revoked", ExpiresAt: testExpiry})
	if err := (statusCmd{}).Run(context.Background(), cfg, []string{}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "rejected") {
		t.Fatalf("rejected expected, got %q", out.String())
	}

	// истёк по локальным часам: к серверу не ходим
	saveToken(t, cfg, auth.TokenRecord{Token: "good", ExpiresAt: time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC)})
	ts.Close()
	if err := (statusCmd{}).Run(context.Background(), cfg, []string{}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "expired") {
		t.Fatalf("expired expected, got %q", out.String())
	}

	// ErrUsage при лишних аргументах
	if err := (statusCmd{}).Run(context.Background(), cfg, []string{"extra"}); err != ErrUsage {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestStatus_Run_ServerError(t *testing.T) {
	withTempConfig(t)
	captureOut(t)
	ts500 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts500.Close()
	cfg := &config.Config{ServerURL: ts500.URL}
	saveToken(t, cfg, auth.TokenRecord{Token: "good", ExpiresAt: testExpiry})

	if err := (statusCmd{}).Run(context.Background(), cfg, []string{}); err == nil {
		t.Fatalf("status should fail on 500")
	}
}

func TestLogout_Run(t *testing.T) {
	withTempConfig(t)
	out := captureOut(t)

	var logouts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/user/logout") {
			t.Fatalf("path: %s", r.URL.Path)
		}
		if c, err := r.Cookie("auth_token"); err != nil || c.Value != "tok" {
			t.Fatalf("auth cookie expected")
		}
		logouts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	cfg := &config.Config{ServerURL: ts.URL}

	// без токена — ничего не делаем
	if err := (logoutCmd{}).Run(context.Background(), cfg, nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out.String(), "Not logged in") || logouts.Load() != 0 {
		t.Fatalf("nothing to do expected, got %q (%d calls)", out.String(), logouts.Load())
	}

	saveToken(t, cfg, auth.TokenRecord{Token: "tok", ExpiresAt: testExpiry})
	if err := (logoutCmd{}).Run(context.Background(), cfg, nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if logouts.Load() != 1 {
		t.Fatalf("server logout expected once, got %d", logouts.Load())
	}
	if rec := loadToken(t, cfg); rec != nil {
		t.Fatalf("token must be cleared, got %+v", rec)
	}

	// сервер недоступен: локальный токен всё равно удаляется
	saveToken(t, cfg, auth.TokenRecord{Token: "tok", ExpiresAt: testExpiry})
	ts.Close()
	if err := (logoutCmd{}).Run(context.Background(), cfg, nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec := loadToken(t, cfg); rec != nil {
		t.Fatalf("token must be cleared when server is down, got %+v", rec)
	}
	if !strings.Contains(out.String(), "Server logout failed") {
		t.Fatalf("warning expected, got %q", out.String())
	}

	if err := (logoutCmd{}).Run(context.Background(), cfg, []string{"x"}); err != ErrUsage {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}
