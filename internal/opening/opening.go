// Package opening identifies named openings by position.
package opening

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/corentings/chess/v2/opening"
	"go.uber.org/zap"

	"chesstral/internal/position"
)

// BookFiles are the TSV volumes read by LoadDir, one per ECO letter
var BookFiles = []string{"a.tsv", "b.tsv", "c.tsv", "d.tsv", "e.tsv"}

var (
	moveNumberPrefix = regexp.MustCompile(`^\d+\.(\.\.)?`)
	resultTokens     = map[string]bool{"1-0": true, "0-1": true, "1/2-1/2": true, "*": true}
)

// Entry is a named opening keyed by the EPD of its final position
type Entry struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
	Key  string `json:"epd"`
	PGN  string `json:"pgn"`
}

// Book maps EPD keys to openings. It is read-only after loading.
type Book struct {
	entries map[string]Entry
	logger  *zap.Logger

	ecoOnce sync.Once
	eco     opening.Book
}

func NewBook(logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{
		entries: make(map[string]Entry),
		logger:  logger,
	}
}

// Len returns the number of TSV entries loaded
func (b *Book) Len() int {
	return len(b.entries)
}

// LoadTSV reads "eco<TAB>name<TAB>pgn" lines after a header line.
// Lines whose PGN does not replay are skipped. Returns the number of entries added.
func (b *Book) LoadTSV(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	added := 0
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		eco, name, pgn := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])

		pos, err := position.Replay(position.Start(), CleanPGN(pgn))
		if err != nil {
			b.logger.Debug("skipping opening with invalid PGN",
				zap.String("name", name),
				zap.String("pgn", pgn),
				zap.Error(err),
			)
			continue
		}

		key := position.EPD(pos.FEN())
		b.entries[key] = Entry{ECO: eco, Name: name, Key: key, PGN: pgn}
		added++
	}
	if err := scanner.Err(); err != nil {
		return added, fmt.Errorf("read opening book: %w", err)
	}
	return added, nil
}

// LoadDir loads every BookFiles volume present in dir
func (b *Book) LoadDir(dir string) (int, error) {
	total := 0
	found := 0
	for _, name := range BookFiles {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return total, fmt.Errorf("open %s: %w", path, err)
		}
		found++
		n, err := b.LoadTSV(f)
		f.Close()
		total += n
		if err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}
	}
	if found == 0 {
		return 0, fmt.Errorf("no opening book files in %s", dir)
	}
	b.logger.Info("opening book loaded", zap.String("dir", dir), zap.Int("entries", total))
	return total, nil
}

// Lookup finds the opening for p. Without TSV data the built-in ECO book is
// searched by move sequence, which requires a history from the initial position.
func (b *Book) Lookup(p position.Position) (Entry, bool) {
	if p.IsZero() {
		return Entry{}, false
	}
	key := position.EPD(p.FEN())
	if len(b.entries) > 0 {
		e, ok := b.entries[key]
		return e, ok
	}

	if p.Ply() == 0 || !p.FromStart() {
		return Entry{}, false
	}
	b.ecoOnce.Do(func() {
		b.eco = opening.NewBookECO()
	})
	if b.eco == nil {
		return Entry{}, false
	}
	o := b.eco.Find(p.MainLine())
	if o == nil {
		return Entry{}, false
	}
	return Entry{ECO: o.Code(), Name: o.Title(), Key: key, PGN: o.PGN()}, true
}

// CleanPGN extracts SAN tokens. Move numbers, results, NAGs and {comment} or
// (variation) regions are dropped, and !? suffixes are trimmed off the move.
func CleanPGN(pgn string) []string {
	var moves []string
	for _, tok := range strings.Fields(stripRegions(pgn)) {
		tok = moveNumberPrefix.ReplaceAllString(tok, "")
		if tok == "" || resultTokens[tok] || strings.HasPrefix(tok, "$") {
			continue
		}
		if tok = strings.TrimRight(tok, "!?"); tok != "" {
			moves = append(moves, tok)
		}
	}
	return moves
}

// stripRegions blanks out comments and variations, which may nest
func stripRegions(pgn string) string {
	var b strings.Builder
	depth := 0
	for _, r := range pgn {
		switch r {
		case '{', '(':
			depth++
			b.WriteRune(' ')
			continue
		case '}', ')':
			if depth > 0 {
				depth--
			}
			b.WriteRune(' ')
			continue
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
