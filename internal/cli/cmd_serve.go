package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"github.com/tryfix/metrics"

	"github.com/unkn0wn-root/slotcache"
	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/remote"
)

func serveCmd() *Command {
	var listen string
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVarP(&listen, "listen", "l", "", "listen address (default from config)")

	return &Command{
		Flags: fs,
		Usage: "serve [-l addr]",
		Short: "Serve the backend to remote hosts",
		Long: `Serve the configured backend over Connect so that executions elsewhere can
use it through the remote backend. Prometheus metrics are exposed on /metrics.`,
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 0 {
				return errUsage
			}
			if listen == "" {
				listen = a.Config.Listen
			}

			a.reporter = metrics.PrometheusReporter(metrics.ReporterConf{
				System:    `slotcache`,
				Subsystem: `slotctl`,
			})
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			h, err := newServeHandler(b, a.IO.errOut)
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: listen, Handler: h, ReadHeaderTimeout: 10 * time.Second}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			a.Logger.Info("serving slots", slotcache.Fields{"addr": listen, "backend": a.Config.Backend})

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				a.Logger.Info("shutting down", nil)
				return srv.Shutdown(shutdownCtx)
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
}

// newServeHandler routes the remote host procedures, metrics and a health
// check, with access logging to accessLog.
func newServeHandler(b host.Backend, accessLog io.Writer) (http.Handler, error) {
	prefix, h, err := remote.NewHandler(b)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.PathPrefix(prefix).Handler(h)
	r.Handle(`/metrics`, promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc(`/healthz`, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	return handlers.LoggingHandler(accessLog, handlers.RecoveryHandler()(r)), nil
}
