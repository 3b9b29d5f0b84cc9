package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pbardea/diskcache"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point for diskcachectl. Returns exit code. sigCh
// can be nil if signal handling is not needed (e.g. in tests).
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("diskcachectl", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagDir := globalFlags.String("dir", "", "Cache directory")
	flagValues := globalFlags.Int("values", 0, "Number of value streams per entry")
	flagMaxSize := globalFlags.Int64("max-size", 0, "Maximum total cache size in bytes (0 = unbounded)")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config file")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || (len(commandAndArgs) == 0 && globalFlags.NFlag() == 0) {
		printUsage(out, allCommandNames())

		return 0
	}

	if len(commandAndArgs) == 0 {
		fprintln(errOut, "error: no command provided")
		printUsage(errOut, allCommandNames())

		return 1
	}

	cfg, err := diskcache.LoadConfig(diskcache.LoadConfigInput{
		Base:       diskcache.DefaultConfig(),
		ConfigPath: *flagConfig,
		Override: diskcache.Config{
			Dir:        *flagDir,
			ValueCount: *flagValues,
			MaxSize:    *flagMaxSize,
		},
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	c, err := diskcache.Open(cfg)
	if err != nil {
		fprintln(errOut, "error: open cache:", err)

		return 1
	}
	defer func() { _ = c.Close() }()

	commands := allCommands(c)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, allCommandNames())

		return 1
	}

	cmdIO := NewIO(out, errOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, cmdIO, commandAndArgs[1:])
	}()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
		cancel()
	}

	select {
	case <-done:
		fprintln(errOut, "graceful shutdown ok (130)")

		return 130
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")

		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")

		return 130
	}
}

// allCommands returns all commands in display order, bound to the already
// opened cache.
func allCommands(c *diskcache.Cache) []*Command {
	return []*Command{
		GetCmd(c),
		PutCmd(c),
		RmCmd(c),
		StatCmd(c),
		GcCmd(c),
		CompactCmd(c),
	}
}

func allCommandNames() []*Command {
	return allCommands(nil)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help             Show help
  --dir <dir>            Cache directory
  --values <n>           Number of value streams per entry
  --max-size <bytes>     Maximum total cache size (0 = unbounded)
  -c, --config <file>    Use specified config file`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: diskcachectl [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'diskcachectl --help' for a list of commands.")
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "diskcachectl - durable LRU disk cache inspector")
	fprintln(w)
	fprintln(w, "Usage: diskcachectl [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
