// Package main provides slotctl, a tool to inspect, edit and serve the
// storage behind a slotcache host.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unkn0wn-root/slotcache/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Stdout, os.Stderr, os.Args)
	stop()
	os.Exit(code)
}
