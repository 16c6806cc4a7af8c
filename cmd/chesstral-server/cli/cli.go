// Package cli implements the "db" maintenance subcommands of the server
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"chesstral/internal/storage"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, moves")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	case "moves":
		return runMoves(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// pathFlags parses a flag set whose -path flag is mandatory
func pathFlags(fs *flag.FlagSet, args []string) (string, error) {
	path := fs.String("path", "", "Database file path (required)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *path == "" {
		return "", fmt.Errorf("database path required")
	}
	return *path, nil
}

func runInit(args []string, out io.Writer) error {
	path, err := pathFlags(flag.NewFlagSet("init", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path, false, nil)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", path)
	return nil
}

func runDelete(args []string, out io.Writer) error {
	path, err := pathFlags(flag.NewFlagSet("delete", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path, false, nil)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	sessionID := fs.String("sessionId", "", "Session ID to filter (optional, * for all)")
	kind := fs.String("kind", "", "Session kind to filter: competitive or research (optional, * for all)")
	path, err := pathFlags(fs, args)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path, false, nil)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	sessions, err := store.QuerySessions(*sessionID, *kind)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Session ID\tKind\tHuman\tEngine\tResult\tCreated")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, s := range sessions {
		engineName := s.EngineType
		if s.EngineModel != "" {
			engineName = fmt.Sprintf("%s (%s)", s.EngineType, s.EngineModel)
		}
		result := s.Result
		if result == "" {
			result = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(s.SessionID),
			s.Kind,
			s.HumanSide,
			engineName,
			result,
			s.CreatedUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d session(s)\n", len(sessions))
	return nil
}

func runMoves(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("moves", flag.ContinueOnError)
	sessionID := fs.String("sessionId", "", "Session ID (required)")
	path, err := pathFlags(fs, args)
	if err != nil {
		return err
	}
	if *sessionID == "" {
		return fmt.Errorf("session id required")
	}

	store, err := storage.NewStore(path, false, nil)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	moves, err := store.QueryMoves(*sessionID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tColor\tSAN\tUCI\tFEN")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.Ply, m.PlayerColor, m.SAN, m.UCI, m.FENAfterMove)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d move(s)\n", len(moves))
	return nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
