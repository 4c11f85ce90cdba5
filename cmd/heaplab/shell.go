package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unsafe"

	"github.com/orizon-lang/heapcore/internal/allocator"
	"github.com/orizon-lang/heapcore/internal/cli"
)

// errInvariantViolation is returned by cmdCheck when Check() fails, so
// callers can tell an invariant violation apart from an ordinary command
// error (and, e.g., exit with a distinct status code).
var errInvariantViolation = errors.New("invariant violation")

// shell runs alloc/free/realloc/check/stats/dump command lines against a
// single Allocator, mapping user-chosen ids to the pointer last returned
// for them.
type shell struct {
	alloc  *allocator.Allocator
	ids    map[string]unsafe.Pointer
	out    io.Writer
	logger *cli.Logger
}

func newShell(alloc *allocator.Allocator, out io.Writer, logger *cli.Logger) *shell {
	return &shell{alloc: alloc, ids: make(map[string]unsafe.Pointer), out: out, logger: logger}
}

// run executes every non-blank, non-comment line read from r, stopping at
// the first error.
func (s *shell) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		s.logger.Debug("executing %q", line)

		if err := s.exec(line); err != nil {
			return fmt.Errorf("%q: %w", line, err)
		}
	}

	return scanner.Err()
}

func (s *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "alloc":
		return s.cmdAlloc(fields[1:])
	case "free":
		return s.cmdFree(fields[1:])
	case "realloc":
		return s.cmdRealloc(fields[1:])
	case "check":
		return s.cmdCheck(fields[1:])
	case "stats":
		return s.cmdStats(fields[1:])
	case "dump":
		return s.cmdDump(fields[1:])
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func (s *shell) cmdAlloc(args []string) error {
	if err := cli.ValidateArgs(args, 2, "alloc <id> <size>"); err != nil {
		return err
	}

	size, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", args[1], err)
	}

	p, err := s.alloc.Alloc(uintptr(size))
	if err != nil {
		return err
	}

	s.ids[args[0]] = p
	s.logger.Info("alloc %s: %d bytes requested", args[0], size)
	fmt.Fprintf(s.out, "alloc %s -> %p\n", args[0], p)

	return nil
}

func (s *shell) cmdFree(args []string) error {
	if err := cli.ValidateArgs(args, 1, "free <id>"); err != nil {
		return err
	}

	p, ok := s.ids[args[0]]
	if !ok {
		return fmt.Errorf("unknown id %q", args[0])
	}

	if err := s.alloc.Free(p); err != nil {
		return err
	}

	delete(s.ids, args[0])
	s.logger.Info("free %s", args[0])
	fmt.Fprintf(s.out, "free %s\n", args[0])

	return nil
}

func (s *shell) cmdRealloc(args []string) error {
	if err := cli.ValidateArgs(args, 2, "realloc <id> <size>"); err != nil {
		return err
	}

	p, ok := s.ids[args[0]]
	if !ok {
		return fmt.Errorf("unknown id %q", args[0])
	}

	size, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", args[1], err)
	}

	r, err := s.alloc.Realloc(p, uintptr(size))
	if err != nil {
		return err
	}

	if r == nil {
		delete(s.ids, args[0])
	} else {
		s.ids[args[0]] = r
	}

	s.logger.Info("realloc %s: %d bytes requested", args[0], size)
	fmt.Fprintf(s.out, "realloc %s -> %p\n", args[0], r)

	return nil
}

func (s *shell) cmdCheck(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: check")
	}

	ok := s.alloc.Check()
	fmt.Fprintf(s.out, "check: %t\n", ok)

	if !ok {
		s.logger.Error("invariant check failed")

		return errInvariantViolation
	}

	return nil
}

func (s *shell) cmdStats(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: stats")
	}

	cli.PrintHeapStats(s.alloc)

	return nil
}

func (s *shell) cmdDump(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: dump")
	}

	for i, b := range s.alloc.Blocks() {
		state := "free"
		if b.Allocated {
			state = "alloc"
		}

		fmt.Fprintf(s.out, "%4d  %-5s  payload=%p  size=%d\n", i, state, b.Payload, b.Size)
	}

	return nil
}
