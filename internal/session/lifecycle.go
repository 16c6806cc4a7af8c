package session

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chesstral/internal/core"
	"chesstral/internal/position"
)

// LoadPosition replaces the game with a FEN position or a PGN game. With both,
// the FEN must describe the final position of the PGN. On error the session is
// unchanged.
func (s *Session) LoadPosition(fen, pgn string) error {
	initial, records, err := buildLine(fen, pgn)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var fx effects
	s.clearLocked(initial)
	s.moves = records
	s.cursor = len(records) - 1

	st := position.Derive(s.livePositionLocked())
	if st.IsGameOver {
		s.mode = core.ModeFinished
		s.result = st.Result
		s.reason = st.Reason
	} else {
		s.mode = core.ModeActive
		s.scheduleEvalLocked(&fx)
	}
	s.version++
	fx.emit(Event{Type: EventReset})
	s.deps.Logger.Info("position loaded",
		zap.Int("plies", len(records)),
		zap.String("fen", s.livePositionLocked().FEN()),
	)
	s.unlockAndFlush(&fx)
	return nil
}

// buildLine parses the load inputs into an initial position and move records
func buildLine(fen, pgn string) (position.Position, []MoveRecord, error) {
	fen, pgn = strings.TrimSpace(fen), strings.TrimSpace(pgn)
	if fen == "" && pgn == "" {
		return position.Position{}, nil, &position.InvalidPositionInput{Reason: "FEN or PGN required"}
	}

	if pgn == "" {
		p, err := position.FromFEN(fen)
		if err != nil {
			return position.Position{}, nil, err
		}
		return p, nil, nil
	}

	initial, sans, err := position.FromPGN(pgn)
	if err != nil {
		return position.Position{}, nil, err
	}

	records := make([]MoveRecord, 0, len(sans))
	cur := initial
	for i, san := range sans {
		next, err := position.ApplyMove(cur, position.SAN(san))
		if err != nil {
			return position.Position{}, nil, &position.InvalidPositionInput{
				Input:  pgn,
				Reason: fmt.Sprintf("move %d (%s) does not replay", i+1, san),
				Err:    err,
			}
		}
		records = append(records, MoveRecord{
			Ply:        i + 1,
			MoveNumber: fullMoveNumber(cur.FEN()),
			Color:      cur.Turn(),
			SAN:        next.LastSAN(),
			UCI:        next.LastUCI(),
			Position:   next,
		})
		cur = next
	}

	if fen != "" {
		want, err := position.FromFEN(fen)
		if err != nil {
			return position.Position{}, nil, err
		}
		if position.EPD(want.FEN()) != position.EPD(cur.FEN()) {
			return position.Position{}, nil, &position.InvalidPositionInput{
				Input:  fen,
				Reason: "FEN does not match the final position of the PGN",
			}
		}
	}
	return initial, records, nil
}

// Reset returns a competitive session to Setup and restarts a research session
func (s *Session) Reset() {
	s.mu.Lock()
	var fx effects
	s.resetLocked(&fx)
	s.unlockAndFlush(&fx)
}

func (s *Session) resetLocked(fx *effects) {
	s.clearLocked(position.Start())
	if s.kind == core.KindResearch {
		s.enterActiveLocked(fx)
	} else {
		s.mode = core.ModeSetup
	}
	s.version++
	fx.emit(Event{Type: EventReset})
}

// Resign ends the game in favour of the engine
func (s *Session) Resign() error {
	s.mu.Lock()
	var fx effects
	switch s.mode {
	case core.ModeSetup:
		s.mu.Unlock()
		return ErrNotActive
	case core.ModeFinished:
		s.mu.Unlock()
		return ErrGameOver
	}

	result := "1-0 (Black resigned)"
	if s.humanSide == core.ColorWhite {
		result = "0-1 (White resigned)"
	}
	s.generation++
	s.finishLocked(result, position.ReasonNone, &fx)
	s.unlockAndFlush(&fx)
	return nil
}

// ContinueFromHere discards the moves after the cursor and resumes play from
// the displayed position. At the live position it does nothing.
func (s *Session) ContinueFromHere() error {
	s.mu.Lock()
	var fx effects
	if s.mode == core.ModeSetup {
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.isLiveLocked() {
		s.mu.Unlock()
		return nil
	}

	dropped := len(s.moves) - (s.cursor + 1)
	s.moves = append([]MoveRecord(nil), s.moves[:s.cursor+1]...)
	s.generation++
	s.thinking = false
	s.lastError = ""
	s.result = ""
	s.reason = position.ReasonNone
	s.version++
	fx.emit(Event{Type: EventTruncated})
	s.deps.Logger.Debug("line truncated", zap.Int("dropped", dropped), zap.Int("plies", len(s.moves)))

	if st := position.Derive(s.livePositionLocked()); st.IsGameOver {
		s.finishLocked(st.Result, st.Reason, &fx)
	} else {
		s.enterActiveLocked(&fx)
	}
	s.unlockAndFlush(&fx)
	return nil
}

// SwitchSides flips the human side without resetting; research sessions only
func (s *Session) SwitchSides() error {
	s.mu.Lock()
	var fx effects
	if s.kind != core.KindResearch {
		s.mu.Unlock()
		return ErrResearchOnly
	}

	s.humanSide = core.OppositeColor(s.humanSide)
	s.generation++
	s.thinking = false
	s.touchLocked(&fx)

	live := s.livePositionLocked()
	if s.mode == core.ModeActive && s.isLiveLocked() &&
		!position.Derive(live).IsGameOver && live.Turn() != s.humanSide {
		s.scheduleAILocked(&fx)
	}
	s.unlockAndFlush(&fx)
	return nil
}

// SetHumanSide changes the human side, resetting the game when it differs
func (s *Session) SetHumanSide(c core.Color) error {
	if c != core.ColorWhite && c != core.ColorBlack {
		return fmt.Errorf("invalid side %q", c.String())
	}

	s.mu.Lock()
	var fx effects
	if c == s.humanSide {
		s.mu.Unlock()
		return nil
	}
	s.humanSide = c
	s.resetLocked(&fx)
	s.unlockAndFlush(&fx)
	return nil
}

// SetEngine replaces the engine used for subsequent requests
func (s *Session) SetEngine(sel core.EngineSelection) error {
	sel.Type = strings.TrimSpace(sel.Type)
	sel.Model = strings.TrimSpace(sel.Model)
	if sel.Type == "" {
		return fmt.Errorf("%w: engine type required", ErrInvalidEngine)
	}
	if sel.Temperature < 0 || sel.Temperature > 1 {
		return fmt.Errorf("%w: temperature %v outside [0,1]", ErrInvalidEngine, sel.Temperature)
	}

	s.mu.Lock()
	var fx effects
	s.engine = sel
	s.touchLocked(&fx)
	s.unlockAndFlush(&fx)
	return nil
}
