package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/unkn0wn-root/slotcache/host"
)

var ErrNoScan = errors.New("backend cannot enumerate slots")

func dumpCmd() *Command {
	var (
		prefix string
		limit  int
	)
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.StringVar(&prefix, "prefix", "", "only slots whose key starts with these hex bytes")
	fs.IntVar(&limit, "limit", 0, "stop after n slots (0 = all)")

	return &Command{
		Flags: fs,
		Usage: "dump [--prefix <hex>] [--limit n]",
		Short: "List stored slots as <key> <value-hex>",
		Long: `List stored slots as <key> <value-hex>, one per line.

Only slots in the configured namespace are listed. Requires a backend that
can enumerate keys (not redis cluster, bigcache or ristretto).`,
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 0 {
				return errUsage
			}
			p, err := hex.DecodeString(strings.TrimPrefix(prefix, "0x"))
			if err != nil {
				return err
			}
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			sc, ok := b.(host.Scanner)
			if !ok {
				return ErrNoScan
			}

			ns := namespacePrefix(a.Config.Namespace)
			full := append(append([]byte{}, ns...), p...)
			var n int
			return sc.Scan(ctx, full, func(key, value []byte) bool {
				a.IO.Printf("%s %s\n", hex.EncodeToString(bytes.TrimPrefix(key, ns)), hex.EncodeToString(value))
				n++
				return limit <= 0 || n < limit
			})
		},
	}
}

func namespacePrefix(ns string) []byte {
	if ns == "" {
		return nil
	}
	return []byte(ns + ":")
}
