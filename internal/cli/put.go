package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// PutCmd returns the put command.
func PutCmd(c *diskcache.Cache) *Command {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	index := fs.Int("index", 0, "Value index to write")

	return &Command{
		Flags: fs,
		Usage: "put <key> <value> [flags]",
		Short: "Write one value of an entry",
		Long:  "Open an editor for key, set the value at --index, and commit.",
		Exec: func(_ context.Context, _ *IO, args []string) error {
			if len(args) != 2 {
				return errors.New("put requires exactly <key> and <value> arguments")
			}

			key, value := args[0], args[1]

			ed, err := c.Edit(key)
			if err != nil {
				return fmt.Errorf("edit %q: %w", key, err)
			}

			if ed == nil {
				return fmt.Errorf("%q is already being edited", key)
			}

			if err := ed.Set(*index, value); err != nil {
				_ = ed.Abort()

				return fmt.Errorf("set value %d for %q: %w", *index, key, err)
			}

			if err := ed.Commit(); err != nil {
				return fmt.Errorf("commit %q: %w", key, err)
			}

			return nil
		},
	}
}
