package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// StatCmd returns the stat command.
func StatCmd(c *diskcache.Cache) *Command {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "stat [key]",
		Short: "Show cache or entry size",
		Long:  "With no arguments, print the cache's total size. With a key, print that entry's value lengths.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			switch len(args) {
			case 0:
				io.Printf("size: %d bytes\n", c.Size())

				return nil

			case 1:
				snap, err := c.Read(args[0])
				if err != nil {
					return fmt.Errorf("read %q: %w", args[0], err)
				}

				if snap == nil {
					return fmt.Errorf("no entry for %q", args[0])
				}
				defer func() { _ = snap.Close() }()

				for i, l := range snap.Lengths() {
					io.Printf("value %d: %d bytes\n", i, l)
				}

				return nil

			default:
				return errors.New("stat accepts at most one <key> argument")
			}
		},
	}
}
