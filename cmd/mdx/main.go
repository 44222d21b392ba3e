// mdx is an interactive shell over an in-memory indexed collection.
//
// Usage:
//
//	mdx [flags] <collection.json>
//
// The collection file is JSONC and declares the indexed fields:
//
//	{
//		// people.json
//		"name": "people",
//		"fields": [
//			{"name": "id", "kind": "int", "unique": true},
//			{"name": "city", "kind": "string"},
//		],
//	}
//
// Flags:
//
//	-l, --load <file>   Load records from a JSONC array before starting
//
// Commands (in REPL):
//
//	insert <field=value>...    Insert a record
//	rm <field=value>...        Remove the first matching record
//	find <field> <key>         All records matching key on an indexed field
//	findone <field> <key>      First record matching key
//	ls                         List all records in insertion order
//	sorted <field>             List records sorted by an indexed field
//	count                      Number of records
//	clear                      Remove all records
//	reindex                    Rebuild all indexes from current records
//	export <file>              Write records to a JSON file (atomic)
//	help                       Show this help
//	exit / quit / q            Exit
//
// Values: null, true, false, integers, or strings. Quote a value to force
// a string ("42" is the string 42, not the int).
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/memdex/pkg/memdex"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("mdx", flag.ExitOnError)

	loadPath := fs.StringP("load", "l", "", "load records from a JSONC array before starting")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mdx [flags] <collection.json>\n\n")
		fmt.Fprintf(os.Stderr, "Open an interactive shell over an in-memory indexed collection.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()

		return errors.New("missing collection config path")
	}

	cfg, err := loadCollectionConfig(fs.Arg(0))
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("building collection %q: %w", cfg.Name, err)
	}

	if *loadPath != "" {
		recs, loadErr := loadRecords(*loadPath)
		if loadErr != nil {
			return loadErr
		}

		insertErr := store.InsertAll(recs...)
		if insertErr != nil {
			return fmt.Errorf("loading records: %w", insertErr)
		}

		fmt.Printf("Loaded %d records from %s\n", len(recs), *loadPath)
	}

	repl := &REPL{
		store: store,
		cfg:   cfg,
	}

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	store *memdex.Store[record]
	cfg   collectionConfig
	liner *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".mdx_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("mdx - collection %q (%s)\n", r.cfg.Name, describeFields(r.cfg))
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("mdx> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
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

		case "insert", "add":
			r.cmdInsert(args)

		case "rm", "del", "delete":
			r.cmdRemove(args)

		case "find":
			r.cmdFind(args)

		case "findone":
			r.cmdFindOne(args)

		case "ls", "list", "scan":
			r.cmdList()

		case "sorted":
			r.cmdSorted(args)

		case "count", "len":
			fmt.Println(r.store.Len())

		case "clear":
			n := r.store.Len()
			r.store.Clear()
			fmt.Printf("Removed %d records.\n", n)

		case "reindex":
			r.cmdReindex()

		case "export":
			r.cmdExport(args)

		case "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"insert", "add", "rm", "del", "delete",
		"find", "findone", "ls", "list", "scan",
		"sorted", "count", "len", "clear",
		"reindex", "export", "cls",
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

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  insert <field=value>...    Insert a record")
	fmt.Println("  rm <field=value>...        Remove the first matching record")
	fmt.Println("  find <field> <key>         All records matching key on an indexed field")
	fmt.Println("  findone <field> <key>      First record matching key")
	fmt.Println("  ls                         List all records in insertion order")
	fmt.Println("  sorted <field>             List records sorted by an indexed field")
	fmt.Println("  count                      Number of records")
	fmt.Println("  clear                      Remove all records")
	fmt.Println("  reindex                    Rebuild all indexes from current records")
	fmt.Println("  export <file>              Write records to a JSON file (atomic)")
	fmt.Println("  help                       Show this help")
	fmt.Println("  exit / quit / q            Exit")
	fmt.Println()
	fmt.Println("Values: null, true, false, integers, or strings.")
	fmt.Println("Quote a value to force a string (\"42\" is the string 42).")
}

func (r *REPL) cmdInsert(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: insert <field=value>...")

		return
	}

	rec, err := parseRecordLiteral(args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	insertErr := r.store.Insert(rec)
	if insertErr != nil {
		fmt.Printf("Error: %v\n", insertErr)

		return
	}

	fmt.Printf("Inserted %s (%d records)\n", formatRecord(rec), r.store.Len())
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: rm <field=value>...")

		return
	}

	rec, err := parseRecordLiteral(args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if r.store.Remove(rec) {
		fmt.Printf("Removed %s (%d records)\n", formatRecord(rec), r.store.Len())
	} else {
		fmt.Println("Not found.")
	}
}

func (r *REPL) cmdFind(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: find <field> <key>")

		return
	}

	recs, err := r.store.Find(args[0], parseKeyLiteral(args[1]))
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if len(recs) == 0 {
		fmt.Println("No matches.")

		return
	}

	for _, rec := range recs {
		fmt.Println(formatRecord(rec))
	}

	fmt.Printf("%d match(es)\n", len(recs))
}

func (r *REPL) cmdFindOne(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: findone <field> <key>")

		return
	}

	rec, ok, err := r.store.FindOne(args[0], parseKeyLiteral(args[1]))
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if !ok {
		fmt.Println("No match.")

		return
	}

	fmt.Println(formatRecord(rec))
}

func (r *REPL) cmdList() {
	n := 0

	r.store.All()(func(rec record) bool {
		fmt.Println(formatRecord(rec))
		n++

		return true
	})

	fmt.Printf("%d record(s)\n", n)
}

func (r *REPL) cmdSorted(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: sorted <field>")

		return
	}

	seq, err := r.store.SortedBy(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	n := 0

	seq(func(rec record) bool {
		fmt.Println(formatRecord(rec))
		n++

		return true
	})

	fmt.Printf("%d record(s)\n", n)
}

func (r *REPL) cmdReindex() {
	err := r.store.Reindex()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("Reindexed.")
}

func (r *REPL) cmdExport(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: export <file>")

		return
	}

	recs := r.store.Records()

	err := exportRecords(args[0], recs)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("Exported %d records to %s\n", len(recs), args[0])
}

func describeFields(cfg collectionConfig) string {
	parts := make([]string, 0, len(cfg.Fields))

	for _, f := range cfg.Fields {
		desc := f.Name + ":" + f.Kind
		if f.Unique {
			desc += ", unique"
		}

		parts = append(parts, desc)
	}

	return strings.Join(parts, "; ")
}
