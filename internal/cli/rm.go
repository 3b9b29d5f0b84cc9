package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// RmCmd returns the rm command.
func RmCmd(c *diskcache.Cache) *Command {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "rm <key>",
		Short: "Remove an entry",
		Exec: func(_ context.Context, io *IO, args []string) error {
			if len(args) != 1 {
				return errors.New("rm requires exactly one <key> argument")
			}

			removed, err := c.Remove(args[0])
			if err != nil {
				return fmt.Errorf("remove %q: %w", args[0], err)
			}

			if !removed {
				io.Println("no entry for", args[0])
			}

			return nil
		},
	}
}
