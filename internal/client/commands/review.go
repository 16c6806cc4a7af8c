package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"chesstral/internal/analysis"
	"chesstral/internal/client/display"
	"chesstral/internal/core"
)

func (r *Registry) registerReviewCommands() {
	r.Register(&Command{
		Name:        "eval",
		ShortName:   "v",
		Description: "Evaluate the displayed position",
		Usage:       "eval",
		Handler:     evalHandler,
	})

	r.Register(&Command{
		Name:        "opening",
		ShortName:   "y",
		Description: "Name the opening of the displayed position",
		Usage:       "opening",
		Handler:     openingHandler,
	})

	r.Register(&Command{
		Name:        "comments",
		ShortName:   "o",
		Description: "Show engine commentary",
		Usage:       "comments",
		Handler:     commentsHandler,
	})

	r.Register(&Command{
		Name:        "review",
		Description: "Mark a commentary entry as reviewed",
		Usage:       "review <index>",
		Handler:     reviewHandler,
	})

	r.Register(&Command{
		Name:        "rate",
		Description: "Rate a commentary entry (stars 0, 5, 10, 15, 20 or 25)",
		Usage:       "rate <index> <quality> <correctness> <relevance> <salience> [review text]",
		Handler:     rateHandler,
	})

	r.Register(&Command{
		Name:        "analyze",
		ShortName:   "a",
		Description: "Grade every move of the game",
		Usage:       "analyze",
		Handler:     analyzeHandler,
	})

	r.Register(&Command{
		Name:        "svg",
		Description: "Save the displayed position as an SVG image",
		Usage:       "svg <file>",
		Handler:     svgHandler,
	})
}

func evalHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	ev, err := s.GetClient().Evaluate(id)
	if err != nil {
		return err
	}

	w := s.Writer()
	fmt.Fprintln(w, display.Evaluation(ev))
	if ev.BestMove != "" {
		fmt.Fprintf(w, "Best move: %s\n", ev.BestMove)
	}
	if len(ev.PV) > 0 {
		fmt.Fprintf(w, "Line: %s\n", strings.Join(ev.PV, " "))
	}
	return nil
}

func openingHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	op, err := s.GetClient().Opening(id)
	if err != nil {
		return err
	}
	if !op.Found {
		fmt.Fprintln(s.Writer(), "No opening found for this position")
		return nil
	}
	fmt.Fprintf(s.Writer(), "%s%s %s%s\n%s\n", display.Cyan, op.ECO, op.Name, display.Reset, op.PGN)
	return nil
}

func commentsHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	entries, err := s.GetClient().Commentary(id)
	if err != nil {
		return err
	}

	w := s.Writer()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No commentary yet")
		return nil
	}
	for _, e := range entries {
		mark := " "
		if e.Reviewed {
			mark = display.Green + "✓" + display.Reset
		}
		fmt.Fprintf(w, "%s [%d] %s%s %s%s (%s)\n", mark, e.Index, display.Cyan, e.MoveNumber, e.Move, display.Reset, e.EngineName)
		fmt.Fprintf(w, "      %s\n", e.Commentary)
	}
	return nil
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index: %s", arg)
	}
	return i, nil
}

func reviewHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: review <index>")
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	id, err := current(s)
	if err != nil {
		return err
	}
	if err := s.GetClient().MarkReviewed(id, i); err != nil {
		return err
	}
	fmt.Fprintf(s.Writer(), "%sEntry %d marked reviewed%s\n", display.Green, i, display.Reset)
	return nil
}

// parseRating reads "<index> <q> <c> <r> <s> [review...]"
func parseRating(args []string) (int, *core.RateRequest, error) {
	if len(args) < 5 {
		return 0, nil, fmt.Errorf("usage: rate <index> <quality> <correctness> <relevance> <salience> [review text]")
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return 0, nil, err
	}

	stars := make([]int, 4)
	for n := range stars {
		v, err := strconv.Atoi(args[n+1])
		if err != nil {
			return 0, nil, fmt.Errorf("invalid score: %s", args[n+1])
		}
		stars[n] = v
	}

	return i, &core.RateRequest{
		Quality:     stars[0],
		Correctness: stars[1],
		Relevance:   stars[2],
		Salience:    stars[3],
		Review:      strings.Join(args[5:], " "),
	}, nil
}

func rateHandler(s Session, args []string) error {
	i, req, err := parseRating(args)
	if err != nil {
		return err
	}
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().Rate(id, i, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Writer(), "%sRating for %s sent to %s%s\n", display.Green, resp.Move, resp.EngineName, display.Reset)
	return nil
}

func analyzeHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	w := s.Writer()
	fmt.Fprintf(w, "%sAnalyzing, this evaluates every position...%s\n", display.Cyan, display.Reset)

	report, err := s.GetClient().Analyze(id)
	if err != nil {
		return err
	}

	for _, m := range report.Moves {
		prefix := fmt.Sprintf("%d.", m.MoveNumber)
		if !m.White {
			prefix = fmt.Sprintf("%d...", m.MoveNumber)
		}
		fmt.Fprintf(w, "%-6s %-8s %-7s %-11s %5.1f%%", prefix, m.SAN, m.Display, m.Classification, m.Accuracy)
		if m.BestMove != "" && m.Classification != analysis.Best && m.Classification != analysis.Book {
			fmt.Fprintf(w, "  best %s", m.BestMove)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%sWhite accuracy: %.1f%%  Black accuracy: %.1f%%  (depth %d)%s\n",
		display.Yellow, report.White.Accuracy, report.Black.Accuracy, report.Depth, display.Reset)
	return nil
}

func svgHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: svg <file>")
	}
	id, err := current(s)
	if err != nil {
		return err
	}
	body, err := s.GetClient().GetBoardSVG(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	fmt.Fprintf(s.Writer(), "%sBoard written to %s%s\n", display.Green, args[0], display.Reset)
	return nil
}
