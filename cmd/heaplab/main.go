// Command heaplab is an interactive, scriptable shell for poking at the
// allocator in internal/allocator. It is a development tool, not a
// trace-replay grading harness: commands come from stdin or a script file,
// one per line, and are executed directly against a live Allocator.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/heapcore/internal/allocator"
	"github.com/orizon-lang/heapcore/internal/cli"
	"github.com/orizon-lang/heapcore/internal/heapmem"
)

// shellCommands documents the line-oriented command language run() accepts
// from stdin or --script, in the shape cli.PrintUsage/PrintCommandUsage
// expect.
var shellCommands = []cli.CommandInfo{
	{Name: "alloc", Usage: "alloc <id> <size>", Description: "allocate size bytes, bound to id", Examples: []string{"alloc a 32"}},
	{Name: "free", Usage: "free <id>", Description: "free the block bound to id", Examples: []string{"free a"}},
	{Name: "realloc", Usage: "realloc <id> <size>", Description: "resize the block bound to id", Examples: []string{"realloc a 64"}},
	{Name: "check", Usage: "check", Description: "verify heap invariants"},
	{Name: "stats", Usage: "stats", Description: "print allocation bookkeeping"},
	{Name: "dump", Usage: "dump", Description: "list every block, free and allocated"},
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		jsonOutput  = flag.Bool("json", false, "output version in JSON format")
		scriptPath  = flag.String("script", "", "read commands from this file instead of stdin")
		useMmap     = flag.Bool("mmap", false, "back the heap with an OS-level mmap region instead of a plain buffer")
		watch       = flag.Bool("watch", false, "re-run --script on every save (requires --script)")
		heapSize    = flag.Uint64("heap-size", 64<<20, "capacity in bytes reserved for the heap region")
		checkAfter  = flag.Bool("check-after-op", false, "panic if Check() fails after any command")
		verbose     = flag.Bool("verbose", false, "log each alloc/free/realloc as it runs")
		debug       = flag.Bool("debug", false, "log every command line as it runs")
		explain     = flag.String("explain", "", "print detailed usage for one shell command and exit")
	)

	flag.Usage = func() {
		cli.PrintUsage("heaplab", shellCommands)
		fmt.Fprintf(os.Stderr, "\nOPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		cli.PrintVersion("heaplab", *jsonOutput)
		os.Exit(0)
	}

	if *explain != "" {
		explainCommand(*explain)
		os.Exit(0)
	}

	logger := cli.NewLogger(*verbose, *debug)

	if *watch && *scriptPath == "" {
		cli.ExitWithError("--watch requires --script")
	}

	run := func() error {
		alloc, err := newAllocator(*useMmap, uintptr(*heapSize), *checkAfter)
		if err != nil {
			return err
		}

		src, closeSrc, err := openSource(*scriptPath)
		if err != nil {
			return err
		}
		defer closeSrc()

		return newShell(alloc, os.Stdout, logger).run(src)
	}

	if *watch {
		if err := watchScript(*scriptPath, run, logger); err != nil {
			cli.HandleError(err, logger)
		}

		return
	}

	if err := run(); err != nil {
		if errors.Is(err, errInvariantViolation) {
			cli.ExitWithCode(2, "Error: %v", err)
		}

		cli.HandleError(err, logger)
	}
}

// explainCommand prints detailed usage for a single shell command, or an
// error if name isn't one of shellCommands.
func explainCommand(name string) {
	for _, cmd := range shellCommands {
		if cmd.Name == name {
			cli.PrintCommandUsage("heaplab", cmd)

			return
		}
	}

	cli.ExitWithError("unknown command %q", name)
}

func newAllocator(useMmap bool, heapSize uintptr, checkAfterOp bool) (*allocator.Allocator, error) {
	var heap allocator.Heap

	if useMmap {
		region, err := heapmem.NewMmapRegion(heapSize)
		if err != nil {
			return nil, err
		}

		heap = region
	} else {
		heap = heapmem.NewBufferRegion(heapSize)
	}

	return allocator.New(heap, allocator.WithCheckAfterOp(checkAfterOp)), nil
}

func openSource(scriptPath string) (*os.File, func(), error) {
	if scriptPath == "" {
		return os.Stdin, func() {}, nil
	}

	if err := checkScriptRequires(scriptPath); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(scriptPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening script: %w", err)
	}

	return f, func() { f.Close() }, nil
}

// checkScriptRequires reads a script's optional leading "#requires
// <constraint>" directive and refuses to run the script if the running
// binary's version does not satisfy it.
func checkScriptRequires(scriptPath string) error {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	firstLine, _, _ := strings.Cut(string(data), "\n")
	firstLine = strings.TrimSpace(firstLine)

	directive, ok := strings.CutPrefix(firstLine, "#requires")
	if !ok {
		return nil
	}

	constraint, err := semver.NewConstraint(strings.TrimSpace(directive))
	if err != nil {
		return fmt.Errorf("parsing #requires constraint: %w", err)
	}

	v, err := semver.NewVersion(cli.Version)
	if err != nil {
		return fmt.Errorf("parsing binary version %q: %w", cli.Version, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("script requires %q, but this build is %s", directive, cli.Version)
	}

	return nil
}
