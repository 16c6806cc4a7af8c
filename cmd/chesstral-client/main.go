// Package main implements an interactive terminal client for the chesstral API
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"chesstral/internal/client/commands"
	"chesstral/internal/client/display"
	"chesstral/internal/client/session"
)

func main() {
	apiURL := flag.String("url", envOr("CHESSTRAL_API_URL", "http://localhost:8080"), "API server base URL")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	history := flag.String("history", ".chesstral_history", "Readline history file (empty disables)")
	flag.Parse()

	if *noColor {
		display.DisableColors()
	} else {
		display.DetectColors()
	}

	s := session.New(*apiURL)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chesstral"),
		HistoryFile:     *history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sChesstral Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		// Check for verbose flag
		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			break
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildPrompt(s *session.Session) string {
	promptStr := "chesstral"

	if s.CurrentSession != "" {
		id := s.CurrentSession
		if len(id) > 8 {
			id = id[:8]
		}
		parts := []string{display.White + id + display.Reset}
		if st := s.State; st != nil {
			parts = append(parts, display.Magenta+st.Kind+display.Reset)
			if st.HumanSide == "w" {
				parts = append(parts, display.Blue+"White"+display.Reset)
			} else {
				parts = append(parts, display.Red+"Black"+display.Reset)
			}
		}
		promptStr += display.Yellow + " [" + display.Reset + strings.Join(parts, " ") + display.Yellow + "]"
	}

	if st := s.State; st != nil && st.Mode == "active" {
		who := "engine"
		if st.IsHumanTurn {
			who = "you"
		}
		promptStr += fmt.Sprintf(" - Turn:%s(%s)", display.ColorForTurn(st.Turn), who)
		if !st.Live {
			promptStr += fmt.Sprintf(" @%d/%d", st.Cursor+1, len(st.Moves))
		}
	}

	return display.Prompt(promptStr)
}
