package cli

import (
	"context"
	"io"

	"github.com/tryfix/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/slotcache"
	"github.com/unkn0wn-root/slotcache/host"
	zaplog "github.com/unkn0wn-root/slotcache/log/zap"
)

// App is the state shared by every command of one slotctl invocation.
// The backend is opened on first use.
type App struct {
	IO     *IO
	Config Config
	Logger slotcache.Logger

	zap      *zap.Logger
	reporter metrics.Reporter
	backend  host.Backend
	env      *host.Env
}

func newApp(o *IO, errOut io.Writer, cfg Config) (*App, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(errOut),
		level,
	)
	zl := zap.New(core).Named("slotctl")

	return &App{
		IO:       o,
		Config:   cfg,
		Logger:   zaplog.ZapLogger{L: zl},
		zap:      zl,
		reporter: metrics.NoopReporter(),
	}, nil
}

// Backend opens the configured backend.
func (a *App) Backend(ctx context.Context) (host.Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := openBackend(ctx, a.Config, a.reporter)
	if err != nil {
		return nil, err
	}
	a.backend = b
	return b, nil
}

// Env returns the metered host over the configured backend.
func (a *App) Env(ctx context.Context) (*host.Env, error) {
	if a.env != nil {
		return a.env, nil
	}
	b, err := a.Backend(ctx)
	if err != nil {
		return nil, err
	}
	env, err := host.New(host.Config{
		Backend:         b,
		Namespace:       a.Config.Namespace,
		Name:            a.Config.Name,
		Logger:          a.Logger,
		MetricsReporter: a.reporter,
	})
	if err != nil {
		return nil, err
	}
	a.env = env
	return env, nil
}

// Close releases the backend and flushes the logger.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.backend != nil {
		err = a.backend.Close(ctx)
	}
	_ = a.zap.Sync()
	return err
}
