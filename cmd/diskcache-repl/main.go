// diskcache-repl is an interactive shell for exploring a diskcache
// directory.
//
// Usage:
//
//	diskcache-repl -dir <dir> -values <n> [-max-size <bytes>]
//
// Commands (in REPL):
//
//	get <key> <index>        Print one value of an entry
//	put <key> <index> <val>  Write one value and commit
//	rm <key>                 Remove an entry
//	ls                       List all readable keys
//	stat [key]               Show cache or entry size
//	gc                       Force an eviction pass
//	compact                  Force a journal rebuild
//	help                     Show this help
//	exit / quit / q          Exit
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/pbardea/diskcache"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "", "cache directory")
	values := flag.Int("values", 1, "number of value streams per entry")
	maxSize := flag.Int64("max-size", 0, "maximum total cache size in bytes (0 = unbounded)")
	flag.Parse()

	if *dir == "" {
		return errors.New("missing required -dir flag")
	}

	c, err := diskcache.Open(diskcache.Config{
		Dir:        *dir,
		ValueCount: *values,
		MaxSize:    *maxSize,
	})
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	repl := &repl{cache: c, dir: *dir, values: *values}

	return repl.run()
}

type repl struct {
	cache  *diskcache.Cache
	dir    string
	values int
	liner  *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".diskcache_repl_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("diskcache-repl (dir=%s, values=%d)\n", r.dir, r.values)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("diskcache> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "get":
			r.cmdGet(args)

		case "put":
			r.cmdPut(args)

		case "rm", "del", "delete":
			r.cmdRm(args)

		case "ls", "list":
			r.cmdLs()

		case "stat":
			r.cmdStat(args)

		case "gc":
			r.cmdGC()

		case "compact":
			r.cmdCompact()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{
		"get", "put", "rm", "del", "delete",
		"ls", "list", "stat", "gc", "compact",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  get <key> <index>         Print one value of an entry")
	fmt.Println("  put <key> <index> <val>   Write one value and commit")
	fmt.Println("  rm <key>                  Remove an entry")
	fmt.Println("  ls                        List all readable keys")
	fmt.Println("  stat [key]                Show cache or entry size")
	fmt.Println("  gc                        Force an eviction pass")
	fmt.Println("  compact                   Force a journal rebuild")
	fmt.Println("  help                      Show this help")
	fmt.Println("  exit / quit / q           Exit")
}

func (r *repl) cmdGet(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: get <key> <index>")

		return
	}

	index, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("Error parsing index: %v\n", err)

		return
	}

	snap, err := r.cache.Read(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if snap == nil {
		fmt.Println("(not found)")

		return
	}
	defer snap.Close()

	value, err := snap.GetString(index)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println(value)
}

func (r *repl) cmdPut(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: put <key> <index> <value...>")

		return
	}

	index, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("Error parsing index: %v\n", err)

		return
	}

	value := strings.Join(args[2:], " ")

	ed, err := r.cache.Edit(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if ed == nil {
		fmt.Println("Entry is already being edited")

		return
	}

	if err := ed.Set(index, value); err != nil {
		ed.Abort()
		fmt.Printf("Error writing value: %v\n", err)

		return
	}

	if err := ed.Commit(); err != nil {
		fmt.Printf("Error committing: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *repl) cmdRm(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: rm <key>")

		return
	}

	removed, err := r.cache.Remove(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if removed {
		fmt.Println("OK")
	} else {
		fmt.Println("(not found)")
	}
}

func (r *repl) cmdLs() {
	keys := r.cache.Keys()
	if len(keys) == 0 {
		fmt.Println("(empty)")

		return
	}

	for _, k := range keys {
		fmt.Println(k)
	}
}

func (r *repl) cmdStat(args []string) {
	switch len(args) {
	case 0:
		fmt.Printf("size: %d bytes\n", r.cache.Size())

	case 1:
		snap, err := r.cache.Read(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}

		if snap == nil {
			fmt.Println("(not found)")

			return
		}
		defer snap.Close()

		for i, l := range snap.Lengths() {
			fmt.Printf("value %d: %d bytes\n", i, l)
		}

	default:
		fmt.Println("Usage: stat [key]")
	}
}

func (r *repl) cmdGC() {
	if err := r.cache.GC(); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *repl) cmdCompact() {
	if err := r.cache.Compact(); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}
