package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

func configCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("config", flag.ContinueOnError),
		Usage: "config",
		Short: "Show resolved configuration",
		Exec: func(_ context.Context, a *App, args []string) error {
			if len(args) != 0 {
				return errUsage
			}
			if err := a.Config.Validate(); err != nil {
				return err
			}
			formatted, err := a.Config.Format()
			if err != nil {
				return err
			}
			a.IO.Println(formatted)
			return nil
		},
	}
}
