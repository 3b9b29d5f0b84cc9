package cli

import (
	"context"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// CompactCmd returns the compact command.
func CompactCmd(c *diskcache.Cache) *Command {
	fs := flag.NewFlagSet("compact", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "compact",
		Short: "Force a journal rebuild",
		Exec: func(_ context.Context, _ *IO, _ []string) error {
			return c.Compact()
		},
	}
}
