package cli

import (
	"context"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// GcCmd returns the gc command.
func GcCmd(c *diskcache.Cache) *Command {
	fs := flag.NewFlagSet("gc", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "gc",
		Short: "Force an eviction pass",
		Long:  "Evict least-recently-used entries until the cache is within its size limit.",
		Exec: func(_ context.Context, _ *IO, _ []string) error {
			return c.GC()
		},
	}
}
