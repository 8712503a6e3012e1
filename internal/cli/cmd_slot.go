package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/unkn0wn-root/slotcache"
	"github.com/unkn0wn-root/slotcache/host"
)

var ErrEmptySlot = errors.New("slot is empty")

// slotFlags are shared by the single-slot commands.
type slotFlags struct {
	index uint64
	hex   bool
}

func (f *slotFlags) register(fs *flag.FlagSet) {
	fs.Uint64VarP(&f.index, "index", "i", 0, "address base key + index (chunk slot)")
	fs.BoolVar(&f.hex, "hex", false, "values are hex encoded")
}

func (f *slotFlags) slot(arg string) (slotcache.Key, error) {
	k, err := slotcache.ParseKey(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		return slotcache.Key{}, err
	}
	return k.Add(f.index), nil
}

func getCmd() *Command {
	var f slotFlags
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	f.register(fs)

	return &Command{
		Flags: fs,
		Usage: "get <key> [-i n] [--hex]",
		Short: "Print the value stored at a slot",
		Long: `Print the value stored at a slot. Exits non-zero if the slot is empty.

The key is 64 hex characters; -i addresses slot <key>+n of a chunk.`,
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			slot, err := f.slot(args[0])
			if err != nil {
				return err
			}

			var (
				value []byte
				found bool
			)
			if _, err := a.execute(ctx, func(env *host.Env) {
				value, found = env.Read(slot)
			}); err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s", ErrEmptySlot, slot)
			}
			if f.hex {
				a.IO.Println(hex.EncodeToString(value))
			} else {
				a.IO.Println(string(value))
			}
			return nil
		},
	}
}

func setCmd() *Command {
	var f slotFlags
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	f.register(fs)

	return &Command{
		Flags: fs,
		Usage: "set <key> <value> [-i n] [--hex]",
		Short: "Write a value to a slot",
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			slot, err := f.slot(args[0])
			if err != nil {
				return err
			}
			value := []byte(args[1])
			if f.hex {
				if value, err = hex.DecodeString(args[1]); err != nil {
					return fmt.Errorf("value: %w", err)
				}
			}

			counters, err := a.execute(ctx, func(env *host.Env) { env.Write(slot, value) })
			if err != nil {
				return err
			}
			a.printCounters(counters)
			return nil
		},
	}
}

func clearCmd() *Command {
	var f slotFlags
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	f.register(fs)

	return &Command{
		Flags: fs,
		Usage: "clear <key> [-i n]",
		Short: "Remove the value stored at a slot",
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			slot, err := f.slot(args[0])
			if err != nil {
				return err
			}
			counters, err := a.execute(ctx, func(env *host.Env) { env.Clear(slot) })
			if err != nil {
				return err
			}
			a.printCounters(counters)
			return nil
		},
	}
}

// execute runs fn as one committed execution on the app's host.
func (a *App) execute(ctx context.Context, fn func(env *host.Env)) (host.Counters, error) {
	env, err := a.Env(ctx)
	if err != nil {
		return host.Counters{}, err
	}
	return env.Execute(ctx, nil, func() error {
		fn(env)
		return nil
	})
}

func (a *App) printCounters(c host.Counters) {
	a.IO.Printf("reads=%d writes=%d\n", c.Reads, c.Writes)
}
