package storage

import "time"

// SessionRecord is a row in the sessions table
type SessionRecord struct {
	SessionID      string    `db:"session_id"`
	Kind           string    `db:"kind"`
	HumanSide      string    `db:"human_side"` // "w" or "b"
	EngineType     string    `db:"engine_type"`
	EngineModel    string    `db:"engine_model"`
	Temperature    float64   `db:"temperature"`
	InitialFEN     string    `db:"initial_fen"`
	Result         string    `db:"result"`
	TerminalReason string    `db:"terminal_reason"`
	CreatedUTC     time.Time `db:"created_utc"`
	UpdatedUTC     time.Time `db:"updated_utc"`
}

// MoveRecord is a row in the moves table
type MoveRecord struct {
	MoveID       int64     `db:"move_id"`
	SessionID    string    `db:"session_id"`
	Ply          int       `db:"ply"`
	SAN          string    `db:"san"`
	UCI          string    `db:"uci"`
	FENAfterMove string    `db:"fen_after_move"`
	PlayerColor  string    `db:"player_color"`
	MoveTimeUTC  time.Time `db:"move_time_utc"`
}

// CommentaryRecord is a row in the commentary table
type CommentaryRecord struct {
	CommentaryID string    `db:"commentary_id"`
	SessionID    string    `db:"session_id"`
	Ply          int       `db:"ply"`
	EngineName   string    `db:"engine_name"`
	MoveNumber   string    `db:"move_number"`
	MoveSequence string    `db:"move_sequence"`
	Rationale    string    `db:"rationale"`
	FEN          string    `db:"fen"`
	CreatedUTC   time.Time `db:"created_utc"`
}

// RatingRecord is a row in the ratings table
type RatingRecord struct {
	RatingID     int64     `db:"rating_id"`
	SessionID    string    `db:"session_id"`
	CommentaryID string    `db:"commentary_id"`
	EngineName   string    `db:"engine_name"`
	Move         string    `db:"move"`
	Quality      int       `db:"quality"`
	Correctness  int       `db:"correctness"`
	Relevance    int       `db:"relevance"`
	Salience     int       `db:"salience"`
	Review       string    `db:"review"`
	CreatedUTC   time.Time `db:"created_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('competitive', 'research')),
	human_side TEXT NOT NULL CHECK(human_side IN ('w', 'b')),
	engine_type TEXT NOT NULL,
	engine_model TEXT NOT NULL DEFAULT '',
	temperature REAL NOT NULL DEFAULT 0,
	initial_fen TEXT NOT NULL,
	result TEXT NOT NULL DEFAULT '',
	terminal_reason TEXT NOT NULL DEFAULT '',
	created_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	ply INTEGER NOT NULL,
	san TEXT NOT NULL,
	uci TEXT NOT NULL,
	fen_after_move TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
	UNIQUE(session_id, ply)
);

CREATE TABLE IF NOT EXISTS commentary (
	commentary_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	ply INTEGER NOT NULL,
	engine_name TEXT NOT NULL,
	move_number TEXT NOT NULL,
	move_sequence TEXT NOT NULL,
	rationale TEXT NOT NULL DEFAULT '',
	fen TEXT NOT NULL,
	created_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS ratings (
	rating_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	commentary_id TEXT NOT NULL,
	engine_name TEXT NOT NULL,
	move TEXT NOT NULL,
	quality INTEGER NOT NULL CHECK(quality BETWEEN 0 AND 25),
	correctness INTEGER NOT NULL CHECK(correctness BETWEEN 0 AND 25),
	relevance INTEGER NOT NULL CHECK(relevance BETWEEN 0 AND 25),
	salience INTEGER NOT NULL CHECK(salience BETWEEN 0 AND 25),
	review TEXT NOT NULL DEFAULT '',
	created_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_moves_session_id ON moves(session_id);
CREATE INDEX IF NOT EXISTS idx_commentary_session_id ON commentary(session_id);
CREATE INDEX IF NOT EXISTS idx_ratings_session_id ON ratings(session_id);
CREATE INDEX IF NOT EXISTS idx_sessions_kind ON sessions(kind);
`
