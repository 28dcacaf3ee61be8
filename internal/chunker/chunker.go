// Package chunker splits extracted page text into overlapping chunks,
// adapting the window size to the content shape: spans that look like
// tables get larger windows so row/column structure survives, prose gets
// smaller windows to keep embedding quality high.
package chunker

import (
	"regexp"
	"strings"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

// Default window sizes in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	DefaultTableChunkSize    = 3000
	DefaultTableChunkOverlap = 600
)

// separators are tried in order when splitting; the empty string is the
// last resort and produces hard character cuts.
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// tablePatterns are the table-likelihood heuristics: ASCII rules,
// pipe-delimited rows, space-aligned columns, and HTML tables.
var tablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+[-+]+\+`),
	regexp.MustCompile(`\|.*\|`),
	regexp.MustCompile(`\s{2,}\S.*\s{2,}`),
	regexp.MustCompile(`(?i)<table[^>]*>`),
}

var (
	newlineRuns   = regexp.MustCompile(`\n+`)
	whitespaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
	nonPrintable  = regexp.MustCompile("[^\x20-\x7E\n]")
)

// Piece is one chunk of text produced from a page, tagged with the
// content shape that determined its window size.
type Piece struct {
	Text string
	Type domain.ChunkType
}

// Chunker splits cleaned page text into overlapping pieces.
type Chunker struct {
	chunkSize    int
	overlap      int
	tableSize    int
	tableOverlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the prose chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the prose overlap in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithTableChunkSize sets the table chunk size in characters.
func WithTableChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.tableSize = size
		}
	}
}

// WithTableOverlap sets the table overlap in characters.
func WithTableOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.tableOverlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultChunkOverlap,
		tableSize:    DefaultTableChunkSize,
		tableOverlap: DefaultTableChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for the window to advance.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	if c.tableOverlap >= c.tableSize {
		c.tableOverlap = c.tableSize / 4
	}

	return c
}

// Clean normalizes extracted page text: newline runs collapse to a
// single newline, whitespace runs to a single space, non-printables are
// dropped, and the result is trimmed.
func Clean(text string) string {
	text = newlineRuns.ReplaceAllString(text, "\n")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = nonPrintable.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// hasTable reports whether the text matches any table heuristic.
func hasTable(text string) bool {
	for _, p := range tablePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Split cleans one page of extracted text and returns its ordered
// pieces. A span shorter than the window is kept as a single piece
// rather than padded or dropped; empty input produces no pieces.
func (c *Chunker) Split(text string) []Piece {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	chunkType := domain.ChunkTypeText
	size, overlap := c.chunkSize, c.overlap
	if hasTable(cleaned) {
		chunkType = domain.ChunkTypeTable
		size, overlap = c.tableSize, c.tableOverlap
	}

	parts := splitRecursive(cleaned, separators, size, overlap)

	pieces := make([]Piece, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pieces = append(pieces, Piece{Text: part, Type: chunkType})
	}

	return pieces
}

// splitRecursive splits text on the first separator that occurs in it,
// recursing with the remaining separators for any fragment still larger
// than size, then merges fragments back into windows of at most size
// characters with an overlap-length tail carried between windows.
func splitRecursive(text string, seps []string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return hardSplit(text, size, overlap)
	}

	fragments := strings.SplitAfter(text, sep)

	// Fragments that still exceed the window are split further before
	// merging, so the merge loop only ever sees fragments <= size.
	flat := make([]string, 0, len(fragments))
	for _, frag := range fragments {
		if len(frag) > size {
			flat = append(flat, splitRecursive(frag, rest, size, overlap)...)
		} else if frag != "" {
			flat = append(flat, frag)
		}
	}

	return mergeFragments(flat, size, overlap)
}

// pickSeparator returns the first separator present in the text and the
// separators after it, falling back to the hard-cut sentinel "".
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// mergeFragments greedily packs fragments into windows of at most size
// characters. When a window closes, its tail (up to overlap characters)
// seeds the next window so content spanning a boundary stays retrievable
// from at least one chunk.
func mergeFragments(fragments []string, size, overlap int) []string {
	var chunks []string
	var current strings.Builder

	for _, frag := range fragments {
		if current.Len() > 0 && current.Len()+len(frag) > size {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()

			// Seed the next window with the tail of the closed one,
			// capped so the seed plus this fragment still fits.
			seed := overlap
			if room := size - len(frag); seed > room {
				seed = room
			}
			if seed > 0 {
				current.WriteString(overlapTail(chunk, seed))
			}
		}
		current.WriteString(frag)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// hardSplit cuts text into fixed windows with overlap. Used only when no
// separator matched.
func hardSplit(text string, size, overlap int) []string {
	stride := size - overlap
	if stride <= 0 {
		stride = size
	}

	var chunks []string
	for start := 0; start < len(text); start += stride {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}

	return chunks
}

// overlapTail returns the last overlap characters of the chunk, aligned
// to a space boundary when one is close so words are not cut mid-way.
func overlapTail(chunk string, overlap int) string {
	if len(chunk) <= overlap {
		return chunk
	}

	tail := chunk[len(chunk)-overlap:]
	if idx := strings.IndexByte(tail, ' '); idx > 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}
