package storage

import "fmt"

// QuerySessions retrieves sessions, optionally filtered by id and kind ("" or "*" match all)
func (s *Store) QuerySessions(sessionID, kind string) ([]SessionRecord, error) {
	query := `SELECT
		session_id, kind, human_side, engine_type, engine_model, temperature,
		initial_fen, result, terminal_reason, created_utc, updated_utc
	FROM sessions WHERE 1=1`

	var args []any
	if sessionID != "" && sessionID != "*" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	if kind != "" && kind != "*" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(
			&r.SessionID, &r.Kind, &r.HumanSide, &r.EngineType, &r.EngineModel, &r.Temperature,
			&r.InitialFEN, &r.Result, &r.TerminalReason, &r.CreatedUTC, &r.UpdatedUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sessions = append(sessions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return sessions, nil
}

// QueryMoves retrieves the recorded moves of a session in ply order
func (s *Store) QueryMoves(sessionID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT
		move_id, session_id, ply, san, uci, fen_after_move, player_color, move_time_utc
	FROM moves WHERE session_id = ? ORDER BY ply`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.MoveID, &m.SessionID, &m.Ply, &m.SAN, &m.UCI,
			&m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}

// QueryCommentary retrieves the recorded commentary of a session in ply order
func (s *Store) QueryCommentary(sessionID string) ([]CommentaryRecord, error) {
	rows, err := s.db.Query(`SELECT
		commentary_id, session_id, ply, engine_name, move_number, move_sequence, rationale, fen, created_utc
	FROM commentary WHERE session_id = ? ORDER BY ply, created_utc`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []CommentaryRecord
	for rows.Next() {
		var c CommentaryRecord
		if err := rows.Scan(&c.CommentaryID, &c.SessionID, &c.Ply, &c.EngineName, &c.MoveNumber,
			&c.MoveSequence, &c.Rationale, &c.FEN, &c.CreatedUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, nil
}

// CountRatings returns the number of ratings recorded for a session
func (s *Store) CountRatings(sessionID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ratings WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	return n, nil
}
