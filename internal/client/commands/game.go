package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chesstral/internal/client/display"
	"chesstral/internal/core"
)

// maxEngineWaits bounds the long polls spent waiting on one engine move
const maxEngineWaits = 4

var errNoSession = errors.New("no current session, use 'new' or 'join <sessionId>'")

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Description: "Create a new session",
		Usage:       "new [w|b] [competitive|research] [start]",
		Handler:     newSessionHandler,
	})

	r.Register(&Command{
		Name:        "join",
		ShortName:   "j",
		Description: "Join/set current session ID",
		Usage:       "join <sessionId>",
		Handler:     joinSessionHandler,
	})

	r.Register(&Command{
		Name:        "list",
		ShortName:   "l",
		Description: "List sessions on the server",
		Usage:       "list",
		Handler:     listSessionsHandler,
	})

	r.Register(&Command{
		Name:        "delete",
		ShortName:   "d",
		Description: "Delete a session",
		Usage:       "delete [sessionId]",
		Handler:     deleteSessionHandler,
	})

	r.Register(&Command{
		Name:        "start",
		ShortName:   "g",
		Description: "Start a competitive game from setup",
		Usage:       "start",
		Handler:     startHandler,
	})

	r.Register(&Command{
		Name:        "load",
		ShortName:   "f",
		Description: "Load a FEN or PGN into the session",
		Usage:       "load <fen|pgn>",
		Handler:     loadHandler,
	})

	r.Register(&Command{
		Name:        "reset",
		ShortName:   "z",
		Description: "Reset the session",
		Usage:       "reset",
		Handler:     sessionAction("reset", func(s Session, id string) (*core.SessionResponse, error) { return s.GetClient().Reset(id) }),
	})

	r.Register(&Command{
		Name:        "side",
		Description: "Set the human side",
		Usage:       "side <w|b>",
		Handler:     sideHandler,
	})

	r.Register(&Command{
		Name:        "switch",
		ShortName:   "w",
		Description: "Swap the human and engine sides",
		Usage:       "switch",
		Handler:     switchHandler,
	})

	r.Register(&Command{
		Name:        "engine",
		ShortName:   "e",
		Description: "Set the engine for the session",
		Usage:       "engine <type> [model] [temperature]",
		Handler:     engineHandler,
	})

	r.Register(&Command{
		Name:        "engines",
		Description: "List engines offered by the engine service",
		Usage:       "engines",
		Handler:     enginesHandler,
	})

	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Description: "Make a move (SAN or UCI)",
		Usage:       "move <move>",
		Handler:     moveHandler,
	})

	r.Register(&Command{
		Name:        "ai",
		ShortName:   "c",
		Description: "Ask the engine to move",
		Usage:       "ai",
		Handler:     aiMoveHandler,
	})

	r.Register(&Command{
		Name:        "resign",
		ShortName:   "r",
		Description: "Resign the game",
		Usage:       "resign",
		Handler:     sessionAction("resign", func(s Session, id string) (*core.SessionResponse, error) { return s.GetClient().Resign(id) }),
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show board and session state",
		Usage:       "show",
		Handler:     showBoardHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "s",
		Description: "Show raw session JSON",
		Usage:       "state",
		Handler:     sessionStateHandler,
	})

	r.Register(&Command{
		Name:        "poll",
		ShortName:   "p",
		Description: "Long-poll for session updates",
		Usage:       "poll",
		Handler:     pollHandler,
	})

	r.registerNavigationCommands()
}

func (r *Registry) registerNavigationCommands() {
	r.Register(&Command{
		Name:        "goto",
		ShortName:   "t",
		Description: "Show the position after a ply (0 is the initial position)",
		Usage:       "goto <ply>",
		Handler:     gotoHandler,
	})

	nav := []struct {
		name, short, action, desc string
	}{
		{"next", ">", "next", "Step one ply forward"},
		{"prev", "<", "previous", "Step one ply back"},
		{"first", "^", "start", "Go to the initial position"},
		{"last", "$", "end", "Go to the live position"},
	}
	for _, n := range nav {
		action := n.action
		r.Register(&Command{
			Name:        n.name,
			ShortName:   n.short,
			Description: n.desc,
			Usage:       n.name,
			Handler: sessionAction(n.name, func(s Session, id string) (*core.SessionResponse, error) {
				return s.GetClient().Navigate(id, action, 0)
			}),
		})
	}

	r.Register(&Command{
		Name:        "continue",
		ShortName:   "k",
		Description: "Discard moves after the displayed position and play on",
		Usage:       "continue",
		Handler:     continueHandler,
	})
}

func current(s Session) (string, error) {
	id := s.GetCurrentSession()
	if id == "" {
		return "", errNoSession
	}
	return id, nil
}

// apply caches resp as the session state and prints its status line
func apply(s Session, resp *core.SessionResponse) {
	s.SetState(resp)
	fmt.Fprintln(s.Writer(), display.Status(resp))
}

// sessionAction adapts an argument-less request on the current session
func sessionAction(name string, call func(Session, string) (*core.SessionResponse, error)) func(Session, []string) error {
	return func(s Session, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("usage: %s", name)
		}
		id, err := current(s)
		if err != nil {
			return err
		}
		resp, err := call(s, id)
		if err != nil {
			return err
		}
		apply(s, resp)
		return nil
	}
}

// awaitEngine long-polls while the engine is thinking and reports its move
func awaitEngine(s Session, resp *core.SessionResponse) (*core.SessionResponse, error) {
	if !resp.Thinking {
		return resp, nil
	}
	w := s.Writer()
	c := s.GetClient()
	before := len(resp.Moves)

	fmt.Fprintf(w, "%sEngine is thinking...%s\n", display.Magenta, display.Reset)
	for i := 0; i < maxEngineWaits && resp.Thinking; i++ {
		next, err := c.WaitSession(resp.SessionID, resp.Version)
		if err != nil {
			return resp, err
		}
		resp = next
	}
	if resp.Thinking {
		return resp, fmt.Errorf("timeout waiting for engine move")
	}

	if len(resp.Moves) > before {
		last := resp.Moves[len(resp.Moves)-1]
		fmt.Fprintf(w, "%sEngine played: %s%s\n", display.Magenta, last.SAN, display.Reset)
		if entries, err := c.Commentary(resp.SessionID); err == nil && len(entries) > 0 {
			fmt.Fprintf(w, "%s%s%s\n", display.White, entries[len(entries)-1].Commentary, display.Reset)
		}
	}
	return resp, nil
}

// parseNewArgs reads side, kind and start tokens in any order
func parseNewArgs(args []string) (*core.CreateSessionRequest, error) {
	req := &core.CreateSessionRequest{}
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "w", "white":
			req.HumanSide = "w"
		case "b", "black":
			req.HumanSide = "b"
		case core.KindCompetitive.String(), core.KindResearch.String():
			req.Kind = strings.ToLower(arg)
		case "start":
			req.Start = true
		default:
			return nil, fmt.Errorf("unknown option: %s", arg)
		}
	}
	return req, nil
}

// positionRequest classifies text as a FEN (eight ranks, no move numbers) or PGN
func positionRequest(text string) *core.LoadPositionRequest {
	text = strings.TrimSpace(text)
	if strings.Count(text, "/") == 7 && !strings.Contains(text, ".") {
		return &core.LoadPositionRequest{FEN: text}
	}
	return &core.LoadPositionRequest{PGN: text}
}

func newSessionHandler(s Session, args []string) error {
	req, err := parseNewArgs(args)
	if err != nil {
		return err
	}

	c := s.GetClient()
	resp, err := c.CreateSession(req)
	if err != nil {
		return err
	}

	s.SetCurrentSession(resp.SessionID)
	fmt.Fprintf(s.Writer(), "%sSession created: %s%s\n", display.Green, resp.SessionID, display.Reset)

	resp, err = awaitEngine(s, resp)
	apply(s, resp)
	return err
}

func joinSessionHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: join <sessionId>")
	}

	resp, err := s.GetClient().GetSession(args[0])
	if err != nil {
		return err
	}

	s.SetCurrentSession(resp.SessionID)
	fmt.Fprintf(s.Writer(), "%sJoined session: %s%s\n", display.Green, resp.SessionID, display.Reset)
	apply(s, resp)
	return nil
}

func listSessionsHandler(s Session, args []string) error {
	sessions, err := s.GetClient().ListSessions()
	if err != nil {
		return err
	}
	w := s.Writer()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions")
		return nil
	}
	for _, sess := range sessions {
		marker := " "
		if sess.SessionID == s.GetCurrentSession() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %-11s %-8s %3d plies  %s\n",
			marker, sess.SessionID, sess.Kind, sess.Mode, len(sess.Moves), sess.Engine.DisplayName())
	}
	return nil
}

func deleteSessionHandler(s Session, args []string) error {
	id := s.GetCurrentSession()
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return fmt.Errorf("specify session ID or set current session")
	}

	if err := s.GetClient().DeleteSession(id); err != nil {
		return err
	}
	if id == s.GetCurrentSession() {
		s.SetCurrentSession("")
	}

	fmt.Fprintf(s.Writer(), "%sSession deleted: %s%s\n", display.Green, id, display.Reset)
	return nil
}

func startHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().Start(id)
	if err != nil {
		return err
	}
	resp, err = awaitEngine(s, resp)
	apply(s, resp)
	return err
}

func loadHandler(s Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: load <fen|pgn>")
	}
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().LoadPosition(id, positionRequest(strings.Join(args, " ")))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Writer(), "%sLoaded %d plies%s\n", display.Green, len(resp.Moves), display.Reset)
	apply(s, resp)
	return nil
}

func sideHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: side <w|b>")
	}
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().SetSide(id, strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	apply(s, resp)
	return nil
}

func switchHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().SwitchSides(id)
	if err != nil {
		return err
	}
	resp, err = awaitEngine(s, resp)
	apply(s, resp)
	return err
}

func engineHandler(s Session, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return fmt.Errorf("usage: engine <type> [model] [temperature]")
	}
	id, err := current(s)
	if err != nil {
		return err
	}

	sel := core.EngineSelection{Type: args[0], Temperature: core.DefaultTemperature}
	if len(args) > 1 {
		sel.Model = args[1]
	}
	if len(args) > 2 {
		t, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid temperature: %s", args[2])
		}
		sel.Temperature = t
	}

	resp, err := s.GetClient().SetEngine(id, sel)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Writer(), "%sEngine set to %s%s\n", display.Green, resp.Engine.DisplayName(), display.Reset)
	apply(s, resp)
	return nil
}

func enginesHandler(s Session, args []string) error {
	raw, err := s.GetClient().Engines()
	if err != nil {
		return err
	}
	display.PrettyPrintJSON(s.Writer(), raw)
	return nil
}

func moveHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: move <move>")
	}
	id, err := current(s)
	if err != nil {
		return err
	}

	resp, err := s.GetClient().MakeMove(id, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Writer(), "%sMove accepted%s\n", display.Green, display.Reset)

	resp, err = awaitEngine(s, resp)
	apply(s, resp)
	return err
}

func aiMoveHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().RequestAIMove(id)
	if err != nil {
		return err
	}
	resp, err = awaitEngine(s, resp)
	apply(s, resp)
	return err
}

func gotoHandler(s Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: goto <ply>")
	}
	ply, err := strconv.Atoi(args[0])
	if err != nil || ply < 0 {
		return fmt.Errorf("invalid ply: %s", args[0])
	}
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().Navigate(id, "goto", ply-1)
	if err != nil {
		return err
	}
	apply(s, resp)
	return nil
}

func continueHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().Continue(id)
	if err != nil {
		return err
	}
	resp, err = awaitEngine(s, resp)
	apply(s, resp)
	return err
}

func showBoardHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	c := s.GetClient()

	sess, err := c.GetSession(id)
	if err != nil {
		return err
	}
	board, err := c.GetBoard(id)
	if err != nil {
		return err
	}

	w := s.Writer()
	fmt.Fprintln(w)
	display.RenderBoard(w, board.Board)

	fmt.Fprintf(w, "\nFEN: %s\n", sess.FEN)
	if len(sess.Moves) > 0 {
		fmt.Fprintf(w, "Moves: %s\n", display.MoveList(sess.Moves, sess.Cursor))
	}
	if op, err := c.Opening(id); err == nil && op.Found {
		fmt.Fprintf(w, "Opening: %s %s\n", op.ECO, op.Name)
	}
	apply(s, sess)
	return nil
}

func sessionStateHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}
	resp, err := s.GetClient().GetSession(id)
	if err != nil {
		return err
	}
	s.SetState(resp)

	fmt.Fprintf(s.Writer(), "%sSession State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(s.Writer(), resp)
	return nil
}

func pollHandler(s Session, args []string) error {
	id, err := current(s)
	if err != nil {
		return err
	}

	var version uint64
	if st := s.GetState(); st != nil {
		version = st.Version
	}
	w := s.Writer()

	fmt.Fprintf(w, "%sLong-polling for updates (version: %d)...%s\n", display.Cyan, version, display.Reset)
	fmt.Fprintf(w, "%sThis may take up to 25 seconds%s\n", display.Cyan, display.Reset)

	resp, err := s.GetClient().WaitSession(id, version)
	if err != nil {
		return err
	}

	if resp.Version != version {
		fmt.Fprintf(w, "%sSession updated%s\n", display.Green, display.Reset)
	} else {
		fmt.Fprintf(w, "%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	}
	apply(s, resp)
	return nil
}
