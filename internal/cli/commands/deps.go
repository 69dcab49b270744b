package commands

import (
	"SessionSync/internal/cli/api"
	"SessionSync/internal/config"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// clock используется для проверки срока действия токена; в тестах подменяется.
var clock clockwork.Clock = clockwork.NewRealClock()

func newSessionClient(cfg *config.Config) *api.SessionClient {
	return api.NewSessionClient(cfg.ServerURL, cfg.ValidateTimeout)
}

// newLogger: в --debug режиме подробный dev-логгер, иначе только предупреждения в stderr.
func newLogger(cfg *config.Config) *zap.SugaredLogger {
	if cfg.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			return l.Sugar()
		}
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zc.Encoding = "console"
	zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}
