// Package main implements the CLI interface for claude-db.
//
// EDUCATIONAL NOTES:
// ------------------
// This is the entry point for our database CLI. It provides:
// 1. A REPL (Read-Eval-Print Loop) for interactive SQL queries
// 2. Command-line arguments for configuration
// 3. Special commands for database administration
// 4. Persistence of data across restarts via the catalog system
//
// The REPL pattern is common in interactive tools:
// - Read: Get input from user
// - Eval: Parse and execute the input
// - Print: Display the result
// - Loop: Repeat until user exits

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cabewaldrop/claude-db/internal/catalog"
	"github.com/cabewaldrop/claude-db/internal/sql/executor"
	"github.com/cabewaldrop/claude-db/internal/sql/lexer"
	"github.com/cabewaldrop/claude-db/internal/sql/parser"
)

const (
	version = "0.3.0"
	banner  = `
   _____ _                 _          _____  ____
  / ____| |               | |        |  __ \|  _ \
 | |    | | __ _ _   _  __| | ___    | |  | | |_) |
 | |    | |/ _' | | | |/ _' |/ _ \   | |  | |  _ <
 | |____| | (_| | |_| | (_| |  __/   | |__| | |_) |
  \_____|_|\__,_|\__,_|\__,_|\___|   |_____/|____/

  An Educational SQL Database - Version %s
  Type '.help' for usage hints or '.quit' to exit.
`
)

// dotCommands are special commands starting with '.'
var dotCommands = map[string]string{
	".help":   "Show this help message",
	".quit":   "Exit the program",
	".exit":   "Exit the program (alias for .quit)",
	".tables": "List all tables",
	".schema": "Show schema for all tables or a specific table",
	".clear":  "Clear the screen",
}

func main() {
	dbDir := flag.String("db", "claude.db", "Directory holding the database's heap files")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("claude-db version %s\n", version)
		return
	}

	fmt.Printf(banner, version)

	db := catalog.NewDatabase(*dbDir)
	defer db.Close()
	exec := executor.New(db)

	tables, err := db.ShowTables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading database: %v\n", err)
		os.Exit(1)
	}
	if len(tables) > 0 {
		fmt.Printf("Loaded %d table(s): %s\n\n", len(tables), strings.Join(tables, ", "))
	}

	repl(exec)
}

// repl implements the Read-Eval-Print Loop.
func repl(exec *executor.Executor) {
	reader := bufio.NewReader(os.Stdin)
	var inputBuffer strings.Builder

	for {
		if inputBuffer.Len() == 0 {
			fmt.Print("claude-db> ")
		} else {
			fmt.Print("       ...> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err.Error() == "EOF" {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			continue
		}

		line = strings.TrimRight(line, "\n\r")

		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(line), ".") {
			if handleDotCommand(strings.TrimSpace(line), exec) {
				return
			}
			continue
		}

		inputBuffer.WriteString(line)

		input := strings.TrimSpace(inputBuffer.String())
		if !strings.HasSuffix(input, ";") {
			inputBuffer.WriteString(" ")
			continue
		}

		input = strings.TrimSuffix(input, ";")
		inputBuffer.Reset()

		executeSQL(input, exec)
	}
}

// handleDotCommand processes special dot commands. It returns true when the REPL
// should exit.
func handleDotCommand(cmd string, exec *executor.Executor) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case ".help":
		fmt.Println("\nAvailable commands:")
		for cmd, desc := range dotCommands {
			fmt.Printf("  %-12s %s\n", cmd, desc)
		}
		fmt.Println("\nSQL Commands:")
		fmt.Println("  CREATE TABLE [IF NOT EXISTS] name (column type, ...)")
		fmt.Println("  CREATE INDEX name ON table USING {BTREE|HASH} (column, ...)")
		fmt.Println("  DROP TABLE name")
		fmt.Println("  DROP INDEX name FROM table")
		fmt.Println("  SHOW TABLES")
		fmt.Println("  SHOW COLUMNS FROM table")
		fmt.Println("  SHOW INDEX FROM table")
		fmt.Println("  INSERT INTO table [(columns)] VALUES (values)")
		fmt.Println("  SELECT columns|* FROM table [WHERE col = value [AND col = value]*]")
		fmt.Println()
		return false

	case ".quit", ".exit":
		fmt.Println("Goodbye!")
		return true

	case ".tables":
		tables, err := exec.DB().ShowTables()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		if len(tables) == 0 {
			fmt.Println("No tables found.")
		} else {
			fmt.Println("Tables:")
			for _, name := range tables {
				fmt.Printf("  %s\n", name)
			}
		}
		return false

	case ".schema":
		if len(parts) > 1 {
			showTableSchema(parts[1], exec)
		} else {
			tables, err := exec.DB().ShowTables()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return false
			}
			for _, name := range tables {
				showTableSchema(name, exec)
			}
		}
		return false

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return false

	default:
		fmt.Printf("Unknown command: %s\n", parts[0])
		fmt.Println("Type '.help' for available commands.")
		return false
	}
}

// showTableSchema displays the column list for a table.
func showTableSchema(name string, exec *executor.Executor) {
	columns, err := exec.DB().ShowColumns(name)
	if err != nil {
		fmt.Printf("Table '%s' not found.\n", name)
		return
	}

	fmt.Printf("CREATE TABLE %s (\n", name)
	for i, col := range columns {
		comma := ","
		if i == len(columns)-1 {
			comma = ""
		}
		fmt.Printf("  %s %s%s\n", col.Name, col.Type, comma)
	}
	fmt.Println(");")
}

// executeSQL parses and executes a SQL statement.
func executeSQL(input string, exec *executor.Executor) {
	lex := lexer.New(input)
	p := parser.New(lex)
	stmt, err := p.Parse()
	if err != nil {
		fmt.Printf("Parse error: %v\n", err)
		return
	}

	result, err := exec.Execute(stmt)
	if err != nil {
		fmt.Printf("Execution error: %v\n", err)
		return
	}

	fmt.Print(result.String())
}
