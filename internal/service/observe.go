package service

import (
	"go.uber.org/zap"

	"chesstral/internal/session"
	"chesstral/internal/storage"
)

// observe is installed as every session's observer. It runs outside the
// session lock, in event order.
func (s *Service) observe(e session.Event) {
	snap := e.Snapshot
	s.waiter.NotifySession(snap.ID, snap.Version)

	if s.store != nil {
		s.record(e)
	}

	s.logger.Debug("session event",
		zap.String("session", snap.ID),
		zap.String("event", e.Type.String()),
		zap.Uint64("version", snap.Version),
	)
}

// record maps a session event onto audit writes
func (s *Service) record(e session.Event) {
	snap := e.Snapshot
	switch e.Type {
	case session.EventReset:
		// A reset, start or load replaces the whole game
		s.store.ResetSession(sessionRecord(snap))
		for _, m := range snap.Moves {
			s.store.RecordMove(moveRecord(snap.ID, m))
		}

	case session.EventMoveCommitted:
		if e.Move == nil {
			return
		}
		s.store.RecordMove(moveRecord(snap.ID, *e.Move))
		if e.Entry != nil {
			s.store.RecordCommentary(storage.CommentaryRecord{
				CommentaryID: e.Entry.ID,
				SessionID:    snap.ID,
				Ply:          e.Move.Ply,
				EngineName:   e.Entry.EngineName,
				MoveNumber:   e.Entry.MoveNumber,
				MoveSequence: e.Entry.MoveSequence,
				Rationale:    e.Entry.Rationale,
				FEN:          e.Entry.FEN,
				CreatedUTC:   e.Entry.CreatedAt,
			})
		}

	case session.EventTruncated:
		s.store.DeleteMovesAfter(snap.ID, len(snap.Moves))
		s.store.RecordResult(snap.ID, snap.Result, snap.Reason.String())

	case session.EventFinished:
		s.store.RecordResult(snap.ID, snap.Result, snap.Reason.String())

	case session.EventRated:
		if e.Rating == nil || e.Entry == nil {
			return
		}
		s.store.RecordRating(storage.RatingRecord{
			SessionID:    snap.ID,
			CommentaryID: e.Entry.ID,
			EngineName:   e.Rating.EngineName,
			Move:         e.Rating.Move,
			Quality:      e.Rating.Quality,
			Correctness:  e.Rating.Correctness,
			Relevance:    e.Rating.Relevance,
			Salience:     e.Rating.Salience,
			Review:       e.Rating.Review,
		})

	case session.EventUpdated:
		s.store.RecordSession(sessionRecord(snap))
	}
}

func sessionRecord(snap session.Snapshot) storage.SessionRecord {
	return storage.SessionRecord{
		SessionID:      snap.ID,
		Kind:           snap.Kind.String(),
		HumanSide:      snap.HumanSide.String(),
		EngineType:     snap.Engine.Type,
		EngineModel:    snap.Engine.Model,
		Temperature:    snap.Engine.Temperature,
		InitialFEN:     snap.Initial.FEN(),
		Result:         snap.Result,
		TerminalReason: snap.Reason.String(),
		UpdatedUTC:     snap.UpdatedAt,
	}
}

func moveRecord(sessionID string, m session.MoveRecord) storage.MoveRecord {
	return storage.MoveRecord{
		SessionID:    sessionID,
		Ply:          m.Ply,
		SAN:          m.SAN,
		UCI:          m.UCI,
		FENAfterMove: m.FEN(),
		PlayerColor:  m.Color.String(),
	}
}
