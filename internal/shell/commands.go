package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/NWuSunset/Red-Black-Tree/internal/ingest"
	"github.com/NWuSunset/Red-Black-Tree/internal/render"
	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

// User-facing messages.
const (
	MsgEmptyTree     = "Nothing in the tree"
	MsgInvalidNumber = "Invalid number"
	MsgFound         = "It is in the tree"
	MsgNotFound      = "This number isn't in the tree"
	MsgNoFile        = "Cannot find file specified"
)

type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	run     func(ctx context.Context, s *Session, args []string) error
	quit    bool
	// keepsHibernation commands run without booting a compacted arena.
	keepsHibernation bool
}

var commands []*command

var commandIndex map[string]*command

func init() {
	commands = []*command{
		{name: "console", aliases: []string{"add", "insert"}, usage: "console [n ...]",
			summary: "insert whitespace-separated numbers", run: runConsole},
		{name: "file", aliases: []string{"load"}, usage: "file [path]",
			summary: "insert the numbers stored in a file", run: runFile},
		{name: "print", aliases: []string{"show"}, usage: "print",
			summary: "draw the tree", run: runPrint},
		{name: "remove", aliases: []string{"delete", "del"}, usage: "remove [n]",
			summary: "remove a number", run: runRemove},
		{name: "search", aliases: []string{"find"}, usage: "search [n]",
			summary: "check whether a number is stored", run: runSearch},
		{name: "check", aliases: []string{"validate"}, usage: "check",
			summary: "verify every red-black invariant", run: runCheck},
		{name: "stats", usage: "stats",
			summary: "size, height and arena usage", run: runStats, keepsHibernation: true},
		{name: "list", aliases: []string{"inorder"}, usage: "list",
			summary: "print the numbers in ascending order", run: runList},
		{name: "clear", usage: "clear",
			summary: "remove every number", run: runClear},
		{name: "compact", usage: "compact",
			summary: "compress the node arena until the next command", run: runCompact, keepsHibernation: true},
		{name: "help", aliases: []string{"?"}, usage: "help",
			summary: "show this list", run: runHelp, keepsHibernation: true},
		{name: "quit", aliases: []string{"exit"}, usage: "quit",
			summary: "end the session", quit: true},
	}

	commandIndex = make(map[string]*command, len(commands)*2) //nolint:mnd // name plus aliases.

	for _, cmd := range commands {
		commandIndex[cmd.name] = cmd

		for _, alias := range cmd.aliases {
			commandIndex[alias] = cmd
		}
	}
}

func lookup(name string) (*command, bool) {
	cmd, ok := commandIndex[name]

	return cmd, ok
}

func runConsole(ctx context.Context, s *Session, args []string) error {
	input, err := s.argument(args, "Enter numbers separated by spaces: ")
	if err != nil {
		return err
	}

	s.println("Inserting numbers...")
	s.insertAll(ctx, ingest.ParseString(input))

	return nil
}

func runFile(ctx context.Context, s *Session, args []string) error {
	path, err := s.argument(args,
		"Enter the path of the file you want to read from. Or type the filename if it's in the local directory")
	if err != nil {
		return err
	}

	result, err := ingest.ReadFile(path)
	if err != nil {
		s.println(MsgNoFile)
		s.logger.WarnContext(ctx, "file load failed", "error", err)

		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	s.println("Inserting numbers into the tree...")
	s.println("Adding numbers from file")
	s.insertAll(ctx, result)

	return nil
}

// insertAll inserts every parsed number, reporting duplicates and junk tokens.
func (s *Session) insertAll(ctx context.Context, result ingest.Result) {
	inserted := 0

	for _, key := range result.Ints {
		err := s.tree.Insert(key)
		if errors.Is(err, rbtree.ErrDuplicateKey) {
			s.printf("%d is already in the tree\n", key)

			continue
		}

		inserted++
	}

	if len(result.Skipped) > 0 {
		s.printf("Skipped %s: %s\n",
			pluralize(len(result.Skipped), "token"), strings.Join(result.Skipped, " "))
	}

	s.printf("Inserted %s\n", pluralize(inserted, "number"))
	s.logger.DebugContext(ctx, "numbers inserted",
		"inserted", inserted, "parsed", len(result.Ints), "skipped", len(result.Skipped))
}

func runPrint(_ context.Context, s *Session, _ []string) error {
	if s.tree.Len() == 0 {
		s.println(MsgEmptyTree)

		return nil
	}

	return render.Draw(s.out, s.tree, s.cfg.Style, s.cfg.Render) //nolint:wrapcheck // render errors are descriptive.
}

func (s *Session) numberArgument(args []string, question string) (int, error) {
	input, err := s.argument(args, question)
	if err != nil {
		return 0, err
	}

	fields := strings.Fields(input)
	if len(fields) == 0 {
		s.println(MsgInvalidNumber)

		return 0, ErrInvalidNumber
	}

	key, err := strconv.Atoi(fields[0])
	if err != nil {
		s.println(MsgInvalidNumber)

		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, fields[0])
	}

	return key, nil
}

func runRemove(ctx context.Context, s *Session, args []string) error {
	key, err := s.numberArgument(args, "What number do you want to remove from the tree?")
	if err != nil {
		return err
	}

	if err := s.tree.Remove(key); err != nil {
		s.println(MsgInvalidNumber)

		return err //nolint:wrapcheck // already carries the key.
	}

	s.printf("Removed %d\n", key)
	s.logger.DebugContext(ctx, "key removed", "key", key)

	return nil
}

func runSearch(_ context.Context, s *Session, args []string) error {
	key, err := s.numberArgument(args, "What number do you want to search for in the tree?")
	if err != nil {
		return err
	}

	if s.tree.Contains(key) {
		s.println(MsgFound)
	} else {
		s.println(MsgNotFound)
	}

	return nil
}

func runCheck(ctx context.Context, s *Session, _ []string) error {
	report, verr := s.tree.Validate()

	if err := render.ReportTable(s.out, report); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	if verr != nil {
		s.logger.ErrorContext(ctx, "tree invariants violated", "violations", len(report.Violations))
	}

	return verr
}

func runStats(_ context.Context, s *Session, _ []string) error {
	return render.StatsTable(s.out, s.tree.Stats()) //nolint:wrapcheck // plain write.
}

func runList(_ context.Context, s *Session, _ []string) error {
	if s.tree.Len() == 0 {
		s.println(MsgEmptyTree)

		return nil
	}

	keys := make([]string, 0, s.tree.Len())
	for key := range s.tree.All() {
		keys = append(keys, strconv.Itoa(key))
	}

	s.println(strings.Join(keys, " "))

	return nil
}

func runClear(ctx context.Context, s *Session, _ []string) error {
	removed := s.tree.Len()
	s.tree.Clear()

	s.printf("Removed %s\n", pluralize(removed, "number"))
	s.logger.DebugContext(ctx, "tree cleared", "removed", removed)

	return nil
}

func runCompact(ctx context.Context, s *Session, _ []string) error {
	allocator := s.tree.Allocator()
	if allocator.Hibernated() {
		s.println("The arena is already compacted")

		return nil
	}

	before := allocator.Footprint()
	allocator.Hibernate()

	if !allocator.Hibernated() {
		s.printf("The arena has %s, below the hibernation threshold of %d\n",
			pluralize(allocator.Size(), "slot"), allocator.HibernationThreshold)

		return nil
	}

	after := allocator.CompressedSize()
	s.printf("Compacted the arena from %s to %s\n", humanize.IBytes(uint64(before)), humanize.IBytes(uint64(after))) //nolint:gosec // sizes are non-negative.
	s.logger.InfoContext(ctx, "arena hibernated", "before_bytes", before, "after_bytes", after)

	return nil
}

func runHelp(_ context.Context, s *Session, _ []string) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateHeader = false
	tbl.AppendHeader(table.Row{"Command", "Aliases", "Effect"})

	for _, cmd := range commands {
		tbl.AppendRow(table.Row{cmd.usage, strings.Join(cmd.aliases, ", "), cmd.summary})
	}

	s.println("Commands are case-insensitive. Arguments may follow the command or come on the next line.")
	s.println(tbl.Render())

	return nil
}

func pluralize(count int, noun string) string {
	return english.Plural(count, noun, "")
}
