package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

const defaultConfigPath = "slotctl.jsonc"

// Run is the main entry point. args includes the program name.
// Returns the process exit code.
func Run(ctx context.Context, out, errOut io.Writer, args []string) int {
	o := NewIO(out, errOut)

	fs := flag.NewFlagSet("slotctl", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{})

	configPath := fs.StringP("config", "c", "", "config file (JSON with comments); default "+defaultConfigPath+" if present")
	backend := fs.String("backend", "", "backend: memory, badger, pebble, file, redis, remote, bigcache, ristretto")
	path := fs.String("path", "", "storage path for badger, pebble and file backends")
	namespace := fs.String("namespace", "", "key namespace prefix")
	redisAddr := fs.String("redis-addr", "", "redis address for the redis backend")
	remoteURL := fs.String("remote-url", "", "base URL for the remote backend")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	timeout := fs.Duration("timeout", 0, "bound every command except serve")
	help := fs.BoolP("help", "h", false, "show help")

	if len(args) > 0 {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		printUsage(errOut)
		return 1
	}
	rest := fs.Args()
	if *help || len(rest) == 0 {
		printUsage(out)
		return 0
	}

	cfg, err := LoadConfig(coalesceString(*configPath, defaultConfigPath), *configPath != "")
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	overrides := map[string]*string{
		"backend":    &cfg.Backend,
		"path":       &cfg.Path,
		"namespace":  &cfg.Namespace,
		"redis-addr": &cfg.RedisAddr,
		"remote-url": &cfg.RemoteURL,
		"log-level":  &cfg.LogLevel,
	}
	values := map[string]string{
		"backend":    *backend,
		"path":       *path,
		"namespace":  *namespace,
		"redis-addr": *redisAddr,
		"remote-url": *remoteURL,
		"log-level":  *logLevel,
	}
	for name, dst := range overrides {
		if fs.Changed(name) {
			*dst = values[name]
		}
	}
	if fs.Changed("timeout") {
		cfg.Timeout = Duration(*timeout)
	}

	cmd, ok := commands()[rest[0]]
	if !ok {
		o.ErrPrintln("error: unknown command:", rest[0])
		printUsage(errOut)
		return 1
	}

	cmdArgs, done, err := cmd.parse(o, rest[1:])
	if err != nil {
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		cmd.PrintHelp(o)
		return 1
	}
	if done {
		return 0
	}

	app, err := newApp(o, errOut, cfg)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			o.ErrPrintln("error: close:", err)
		}
	}()

	if cfg.Timeout > 0 && cmd.Name() != "serve" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Timeout))
		defer cancel()
	}

	if err := cmd.Exec(ctx, app, cmdArgs); err != nil {
		o.ErrPrintln("error:", err)
		if errors.Is(err, errUsage) {
			cmd.PrintHelp(o)
		}
		return 1
	}
	return 0
}

var errUsage = errors.New("invalid arguments")

// commands builds fresh commands so flag state never leaks between runs.
func commands() map[string]*Command {
	out := make(map[string]*Command)
	for _, c := range []*Command{
		getCmd(), setCmd(), clearCmd(), dumpCmd(), serveCmd(), configCmd(),
	} {
		out[c.Name()] = c
	}
	return out
}

func coalesceString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, `slotctl - inspect and serve slotcache host storage

Usage: slotctl [options] <command> [args]

Options:
  -c, --config <file>    Config file (JSON with comments)
      --backend <kind>   memory, badger, pebble, file, redis, remote, bigcache, ristretto
      --path <dir|file>  Storage path for badger, pebble and file
      --namespace <ns>   Key namespace prefix
      --redis-addr       Redis address
      --remote-url       Remote host URL
      --log-level        debug, info, warn, error
      --timeout          Bound every command except serve

Commands:`)
	cmds := commands()
	for _, name := range []string{"get", "set", "clear", "dump", "serve", "config"} {
		_, _ = fmt.Fprintln(w, cmds[name].HelpLine())
	}
}
