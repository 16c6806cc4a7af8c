// Package processor executes API commands against the session service. It
// translates request DTOs into session operations and session state into
// response DTOs, and owns the worker queue used for remote engine work.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chesstral/internal/analysis"
	"chesstral/internal/board"
	"chesstral/internal/commentary"
	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/position"
	"chesstral/internal/service"
	"chesstral/internal/session"
)

// Catalog lists the engines offered by the remote service
type Catalog interface {
	Engines(ctx context.Context) (json.RawMessage, error)
}

// Processor handles command execution and coordinates between service and engine layers
type Processor struct {
	svc      *service.Service
	analyzer *analysis.Analyzer
	catalog  Catalog
	engine   core.EngineSelection
	logger   *zap.Logger
}

// Options wires the optional collaborators of a processor
type Options struct {
	Evaluator  analysis.Evaluator // nil disables analysis
	Catalog    Catalog
	EvalDepth  int
	Thresholds *analysis.Thresholds

	// DefaultEngine is used when a create request names no engine
	DefaultEngine core.EngineSelection
	Logger        *zap.Logger
}

// New creates a processor over svc
func New(svc *service.Service, opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultEngine.Type == "" {
		opts.DefaultEngine = core.DefaultEngine()
	}
	p := &Processor{
		svc:     svc,
		catalog: opts.Catalog,
		engine:  opts.DefaultEngine,
		logger:  opts.Logger.Named("processor"),
	}
	if opts.Evaluator != nil {
		aopts := []analysis.Option{analysis.WithDepth(opts.EvalDepth), analysis.WithLogger(opts.Logger)}
		if opts.Thresholds != nil {
			aopts = append(aopts, analysis.WithThresholds(*opts.Thresholds))
		}
		p.analyzer = analysis.NewAnalyzer(opts.Evaluator, svc.Book(), aopts...)
	}
	return p
}

// Execute runs cmd; ctx bounds any remote call the command makes
func (p *Processor) Execute(ctx context.Context, cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateSession:
		return p.handleCreateSession(cmd)
	case CmdGetSession:
		return p.withSession(cmd, func(s *session.Session) (any, error) {
			return BuildSessionResponse(s.Snapshot()), nil
		})
	case CmdListSessions:
		return p.handleListSessions()
	case CmdDeleteSession:
		return p.handleDeleteSession(cmd)
	case CmdStart:
		return p.mutate(cmd, func(s *session.Session) error { return s.Start() })
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdRequestAIMove:
		return p.mutate(cmd, func(s *session.Session) error { return s.RequestAIMove(ctx) })
	case CmdLoadPosition:
		return p.handleLoadPosition(cmd)
	case CmdNavigate:
		return p.handleNavigate(cmd)
	case CmdContinue:
		return p.mutate(cmd, func(s *session.Session) error { return s.ContinueFromHere() })
	case CmdSwitchSides:
		return p.mutate(cmd, func(s *session.Session) error { return s.SwitchSides() })
	case CmdSetSide:
		return p.handleSetSide(cmd)
	case CmdSetEngine:
		return p.handleSetEngine(cmd)
	case CmdResign:
		return p.mutate(cmd, func(s *session.Session) error { return s.Resign() })
	case CmdReset:
		return p.mutate(cmd, func(s *session.Session) error {
			s.Reset()
			return nil
		})
	case CmdEvaluate:
		return p.handleEvaluate(ctx, cmd)
	case CmdGetCommentary:
		return p.withSession(cmd, func(s *session.Session) (any, error) {
			return buildCommentary(s.Snapshot().Commentary), nil
		})
	case CmdMarkReviewed:
		return p.withSession(cmd, func(s *session.Session) (any, error) {
			if err := s.MarkReviewed(cmd.Index); err != nil {
				return nil, err
			}
			return buildCommentary(s.Snapshot().Commentary), nil
		})
	case CmdRate:
		return p.handleRate(cmd)
	case CmdAnalyze:
		return p.handleAnalyze(ctx, cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdGetOpening:
		return p.handleGetOpening(cmd)
	case CmdListEngines:
		return p.handleListEngines(ctx)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// withSession resolves the command's session and wraps fn's result
func (p *Processor) withSession(cmd Command, fn func(*session.Session) (any, error)) ProcessorResponse {
	sess, err := p.svc.GetSession(cmd.SessionID)
	if err != nil {
		return p.fromError(err)
	}
	data, err := fn(sess)
	if err != nil {
		return p.fromError(err)
	}
	return ProcessorResponse{Success: true, Data: data}
}

// mutate applies fn and answers with the resulting session state
func (p *Processor) mutate(cmd Command, fn func(*session.Session) error) ProcessorResponse {
	return p.withSession(cmd, func(s *session.Session) (any, error) {
		if err := fn(s); err != nil {
			return nil, err
		}
		return BuildSessionResponse(s.Snapshot()), nil
	})
}

// handleCreateSession creates a session, optionally loading a position or
// starting play at once
func (p *Processor) handleCreateSession(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateSessionRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	kind, err := core.ParseKind(args.Kind)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}
	side := core.ColorBlack
	if args.HumanSide != "" {
		if side, err = core.ParseColor(args.HumanSide); err != nil {
			return p.errorResponse(err.Error(), core.ErrInvalidRequest)
		}
	}
	sel := p.engine
	if args.Engine != nil {
		sel = *args.Engine
	}

	sess, err := p.svc.CreateSession(session.Config{Kind: kind, HumanSide: side, Engine: sel})
	if err != nil {
		return p.errorResponseWithDetails("failed to create session", core.ErrInternalError, err.Error())
	}

	switch {
	case args.FEN != "" || args.PGN != "":
		err = sess.LoadPosition(args.FEN, args.PGN)
	case args.Start:
		err = sess.Start()
	}
	if err != nil {
		// A session that failed its initial load is not kept
		_ = p.svc.DeleteSession(sess.ID())
		return p.fromError(err)
	}

	return ProcessorResponse{Success: true, Data: BuildSessionResponse(sess.Snapshot())}
}

func (p *Processor) handleListSessions() ProcessorResponse {
	snaps := p.svc.ListSessions()
	out := make([]core.SessionResponse, len(snaps))
	for i, snap := range snaps {
		out[i] = BuildSessionResponse(snap)
	}
	return ProcessorResponse{Success: true, Data: out}
}

func (p *Processor) handleDeleteSession(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteSession(cmd.SessionID); err != nil {
		return p.fromError(err)
	}
	return ProcessorResponse{Success: true}
}

// handleMakeMove submits a human move given as SAN, UCI or a square pair
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	var d position.Descriptor
	if args.From != "" {
		d = position.Squares(args.From, args.To, args.Promotion)
	} else {
		move := strings.TrimSpace(args.Move)
		if move == "" {
			return p.errorResponse("move required", core.ErrInvalidRequest)
		}
		d = position.Parse(move)
	}

	return p.mutate(cmd, func(s *session.Session) error {
		return s.SubmitHumanMove(d)
	})
}

func (p *Processor) handleLoadPosition(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.LoadPositionRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	return p.mutate(cmd, func(s *session.Session) error {
		return s.LoadPosition(args.FEN, args.PGN)
	})
}

func (p *Processor) handleNavigate(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.NavigateRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	return p.mutate(cmd, func(s *session.Session) error {
		switch args.Action {
		case "goto":
			s.GoToMove(args.Index)
		case "next":
			s.GoToNext()
		case "previous":
			s.GoToPrevious()
		case "start":
			s.GoToStart()
		case "end":
			s.GoToEnd()
		default:
			return fmt.Errorf("%w: unknown navigation %q", errInvalidArgument, args.Action)
		}
		return nil
	})
}

func (p *Processor) handleSetSide(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.SideRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	side, err := core.ParseColor(args.Side)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}
	return p.mutate(cmd, func(s *session.Session) error {
		return s.SetHumanSide(side)
	})
}

func (p *Processor) handleSetEngine(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.EngineRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	return p.mutate(cmd, func(s *session.Session) error {
		return s.SetEngine(args.Engine)
	})
}

// handleEvaluate scores the displayed position; an unknown evaluation is a
// successful response with a nil score
func (p *Processor) handleEvaluate(ctx context.Context, cmd Command) ProcessorResponse {
	return p.withSession(cmd, func(s *session.Session) (any, error) {
		ev, err := s.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return &core.EvaluationInfo{Display: "-", FEN: s.Snapshot().Position.FEN()}, nil
		}
		return BuildEvaluation(ev), nil
	})
}

func (p *Processor) handleRate(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.RateRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	return p.withSession(cmd, func(s *session.Session) (any, error) {
		r, err := s.RateCommentary(cmd.Index, session.RatingInput{
			Quality:     args.Quality,
			Correctness: args.Correctness,
			Relevance:   args.Relevance,
			Salience:    args.Salience,
			Review:      args.Review,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// handleAnalyze grades every move of the session's game
func (p *Processor) handleAnalyze(ctx context.Context, cmd Command) ProcessorResponse {
	if p.analyzer == nil {
		return p.errorResponse("analysis requires an evaluation service", core.ErrEvaluationUnavailable)
	}
	return p.withSession(cmd, func(s *session.Session) (any, error) {
		snap := s.Snapshot()
		report, err := p.analyzer.Analyze(ctx, snap.Initial, snap.History())
		if err != nil {
			return nil, err
		}
		return report, nil
	})
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	format, _ := cmd.Args.(string)
	return p.withSession(cmd, func(s *session.Session) (any, error) {
		snap := s.Snapshot()
		fen := snap.Position.FEN()
		flipped := snap.HumanSide == core.ColorBlack

		if format == BoardSVG {
			var marks []string
			if uci := snap.Position.LastUCI(); len(uci) >= 4 {
				marks = []string{uci[:2], uci[2:4]}
			}
			return board.SVG(fen, board.SVGOptions{Flipped: flipped, Highlight: marks})
		}

		text, err := board.ASCII(fen, flipped)
		if err != nil {
			return nil, err
		}
		return core.BoardResponse{FEN: fen, Board: text}, nil
	})
}

func (p *Processor) handleGetOpening(cmd Command) ProcessorResponse {
	return p.withSession(cmd, func(s *session.Session) (any, error) {
		pos := s.Snapshot().Position
		resp := core.OpeningResponse{FEN: pos.FEN()}
		if e, ok := p.svc.Book().Lookup(pos); ok {
			resp.Found = true
			resp.ECO = e.ECO
			resp.Name = e.Name
			resp.PGN = e.PGN
		}
		return resp, nil
	})
}

func (p *Processor) handleListEngines(ctx context.Context) ProcessorResponse {
	if p.catalog == nil {
		return p.errorResponse("engine catalog unavailable", core.ErrEngineFailure)
	}
	raw, err := p.catalog.Engines(ctx)
	if err != nil {
		return p.errorResponseWithDetails("engine catalog request failed", core.ErrEngineFailure, err.Error())
	}
	return ProcessorResponse{Success: true, Data: raw}
}

var errInvalidArgument = errors.New("invalid argument")

// fromError maps session, position and engine errors onto API error codes
func (p *Processor) fromError(err error) ProcessorResponse {
	var (
		illegal     *position.IllegalMoveError
		invalid     *position.InvalidPositionInput
		moveFailure *engine.EngineMoveFailure
		unavailable *engine.EvaluationUnavailable
		stale       *session.StaleResponse
	)

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return p.errorResponse("session not found", core.ErrSessionNotFound)
	case errors.As(err, &illegal):
		return p.errorResponseWithDetails("illegal move", core.ErrIllegalMove, err.Error())
	case errors.As(err, &invalid):
		return p.errorResponseWithDetails("invalid position", core.ErrInvalidPosition, err.Error())
	case errors.As(err, &moveFailure):
		return p.errorResponseWithDetails("engine move failed", core.ErrEngineFailure, err.Error())
	case errors.As(err, &unavailable):
		return p.errorResponseWithDetails("evaluation unavailable", core.ErrEvaluationUnavailable, err.Error())
	case errors.As(err, &stale):
		return p.errorResponseWithDetails("session changed while the request was running", core.ErrBusy, err.Error())
	case errors.Is(err, session.ErrNotHumanTurn):
		return p.errorResponse(err.Error(), core.ErrNotHumanTurn)
	case errors.Is(err, session.ErrNotLive):
		return p.errorResponse(err.Error(), core.ErrNotLive)
	case errors.Is(err, session.ErrGameOver), errors.Is(err, position.ErrGameOver):
		return p.errorResponse(err.Error(), core.ErrGameOver)
	case errors.Is(err, session.ErrBusy):
		return p.errorResponse(err.Error(), core.ErrBusy)
	case errors.Is(err, session.ErrNoEngine):
		return p.errorResponse(err.Error(), core.ErrEngineFailure)
	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrNotAITurn),
		errors.Is(err, session.ErrResearchOnly),
		errors.Is(err, session.ErrInvalidEngine),
		errors.Is(err, session.ErrInvalidRating),
		errors.Is(err, commentary.ErrIndexOutOfRange),
		errors.Is(err, errInvalidArgument):
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return p.errorResponseWithDetails("request cancelled", core.ErrInternalError, err.Error())
	}

	p.logger.Error("unmapped command error", zap.Error(err))
	return p.errorResponseWithDetails("internal error", core.ErrInternalError, err.Error())
}

func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error:   &core.ErrorResponse{Error: message, Code: code},
	}
}

func (p *Processor) errorResponseWithDetails(message, code, details string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error:   &core.ErrorResponse{Error: message, Code: code, Details: details},
	}
}
