package storage

import (
	"database/sql"
	"time"
)

const upsertSession = `INSERT INTO sessions (
	session_id, kind, human_side, engine_type, engine_model, temperature,
	initial_fen, result, terminal_reason, created_utc, updated_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	kind = excluded.kind,
	human_side = excluded.human_side,
	engine_type = excluded.engine_type,
	engine_model = excluded.engine_model,
	temperature = excluded.temperature,
	initial_fen = excluded.initial_fen,
	result = excluded.result,
	terminal_reason = excluded.terminal_reason,
	updated_utc = excluded.updated_utc`

func execUpsertSession(tx *sql.Tx, r SessionRecord) error {
	if r.CreatedUTC.IsZero() {
		r.CreatedUTC = time.Now().UTC()
	}
	if r.UpdatedUTC.IsZero() {
		r.UpdatedUTC = r.CreatedUTC
	}
	_, err := tx.Exec(upsertSession,
		r.SessionID, r.Kind, r.HumanSide, r.EngineType, r.EngineModel, r.Temperature,
		r.InitialFEN, r.Result, r.TerminalReason, r.CreatedUTC, r.UpdatedUTC,
	)
	return err
}

// RecordSession asynchronously inserts or updates a session row
func (s *Store) RecordSession(record SessionRecord) {
	s.enqueue("session", func(tx *sql.Tx) error {
		return execUpsertSession(tx, record)
	})
}

// ResetSession asynchronously replaces a session's game: its moves and
// commentary are removed and the row is rewritten
func (s *Store) ResetSession(record SessionRecord) {
	s.enqueue("session reset", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM moves WHERE session_id = ?`, record.SessionID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM commentary WHERE session_id = ?`, record.SessionID); err != nil {
			return err
		}
		return execUpsertSession(tx, record)
	})
}

// RecordMove asynchronously records a move
func (s *Store) RecordMove(record MoveRecord) {
	if record.MoveTimeUTC.IsZero() {
		record.MoveTimeUTC = time.Now().UTC()
	}
	s.enqueue("move", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			session_id, ply, san, uci, fen_after_move, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.SessionID, record.Ply, record.SAN, record.UCI,
			record.FENAfterMove, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// DeleteMovesAfter asynchronously removes moves past ply, as after a truncation
func (s *Store) DeleteMovesAfter(sessionID string, ply int) {
	s.enqueue("truncation", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE session_id = ? AND ply > ?`, sessionID, ply)
		return err
	})
}

// RecordCommentary asynchronously records a commentary entry
func (s *Store) RecordCommentary(record CommentaryRecord) {
	if record.CreatedUTC.IsZero() {
		record.CreatedUTC = time.Now().UTC()
	}
	s.enqueue("commentary", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO commentary (
			commentary_id, session_id, ply, engine_name, move_number, move_sequence,
			rationale, fen, created_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.CommentaryID, record.SessionID, record.Ply, record.EngineName,
			record.MoveNumber, record.MoveSequence, record.Rationale, record.FEN, record.CreatedUTC,
		)
		return err
	})
}

// RecordResult asynchronously stores the outcome of a session's game
func (s *Store) RecordResult(sessionID, result, reason string) {
	now := time.Now().UTC()
	s.enqueue("result", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE sessions SET result = ?, terminal_reason = ?, updated_utc = ? WHERE session_id = ?`,
			result, reason, now, sessionID)
		return err
	})
}

// RecordRating asynchronously records a commentary rating
func (s *Store) RecordRating(record RatingRecord) {
	if record.CreatedUTC.IsZero() {
		record.CreatedUTC = time.Now().UTC()
	}
	s.enqueue("rating", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO ratings (
			session_id, commentary_id, engine_name, move,
			quality, correctness, relevance, salience, review, created_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.SessionID, record.CommentaryID, record.EngineName, record.Move,
			record.Quality, record.Correctness, record.Relevance, record.Salience,
			record.Review, record.CreatedUTC,
		)
		return err
	})
}

// DeleteSession asynchronously removes a session and everything recorded for it
func (s *Store) DeleteSession(sessionID string) {
	s.enqueue("session delete", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
		return err
	})
}
