package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// GetCmd returns the get command.
func GetCmd(c *diskcache.Cache) *Command {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	index := fs.Int("index", 0, "Value index to print")

	return &Command{
		Flags: fs,
		Usage: "get <key> [flags]",
		Short: "Print one value of an entry",
		Long:  "Print the value at --index for key. Exits 1 if the key has no readable entry.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			if len(args) != 1 {
				return errors.New("get requires exactly one <key> argument")
			}

			snap, err := c.Read(args[0])
			if err != nil {
				return fmt.Errorf("read %q: %w", args[0], err)
			}

			if snap == nil {
				return fmt.Errorf("no entry for %q", args[0])
			}
			defer func() { _ = snap.Close() }()

			value, err := snap.GetString(*index)
			if err != nil {
				return fmt.Errorf("get value %d for %q: %w", *index, args[0], err)
			}

			io.Println(value)

			return nil
		},
	}
}
