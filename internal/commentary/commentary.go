// Package commentary holds the ordered annotation log of a session.
// Entries are appended once per accepted move; Reviewed is the only field that
// changes afterward.
package commentary

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HumanEngineName is the author recorded for moves played by the human
const HumanEngineName = "You"

// NoThoughts is the rationale recorded when an engine returns none
const NoThoughts = "No thoughts provided"

var ErrIndexOutOfRange = errors.New("commentary index out of range")

type Entry struct {
	ID           string    `json:"id"`
	EngineName   string    `json:"engineName"`
	MoveNumber   string    `json:"moveNumber"`
	MoveSequence string    `json:"moveSequence"`
	SAN          string    `json:"move"`
	Rationale    string    `json:"commentary"`
	FEN          string    `json:"fen"`
	Reviewed     bool      `json:"reviewed"`
	RawResponse  string    `json:"rawResponse,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MoveNumber labels a move by its full-move number: "N." when White moved,
// "N..." when Black did.
func MoveNumber(fullMove int, white bool) string {
	if fullMove <= 0 {
		return ""
	}
	if white {
		return fmt.Sprintf("%d.", fullMove)
	}
	return fmt.Sprintf("%d...", fullMove)
}

// NewEntry builds an unreviewed entry with a fresh id
func NewEntry(engineName, moveNumber, moveSequence, san, rationale, fen, raw string) Entry {
	return Entry{
		ID:           uuid.NewString(),
		EngineName:   engineName,
		MoveNumber:   moveNumber,
		MoveSequence: moveSequence,
		SAN:          san,
		Rationale:    rationale,
		FEN:          fen,
		RawResponse:  raw,
		CreatedAt:    time.Now().UTC(),
	}
}

// Log is not safe for concurrent use; the owning session serialises access
type Log struct {
	entries []Entry
}

// Append adds an entry and returns its index
func (l *Log) Append(e Entry) int {
	l.entries = append(l.entries, e)
	return len(l.entries) - 1
}

func (l *Log) MarkReviewed(i int) error {
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	l.entries[i].Reviewed = true
	return nil
}

func (l *Log) Get(i int) (Entry, error) {
	if i < 0 || i >= len(l.entries) {
		return Entry{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return l.entries[i], nil
}

// Entries returns a copy in append order
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	return len(l.entries)
}

func (l *Log) Reset() {
	l.entries = nil
}
