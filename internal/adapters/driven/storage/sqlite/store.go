package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
	"github.com/ArabianCowboy/SFDA-copilot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// MetadataFile is the artifact filename within a corpus version directory.
const MetadataFile = "chunks.db"

// schema is the chunk metadata table. The corpus is immutable after a
// build, so there is no migration machinery beyond the initial create.
const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL,
	source_document TEXT NOT NULL,
	category        TEXT NOT NULL,
	page            INTEGER,
	chunk_type      TEXT NOT NULL,
	embedding       BLOB
);
CREATE INDEX IF NOT EXISTS idx_chunks_category ON chunks(category);
`

// Store is the SQLite-backed chunk metadata store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the chunk metadata database at path.
func NewStore(path string) (*Store, error) {
	// WAL mode for concurrent readers during serving.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveChunks persists chunks in order within one transaction.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, text, source_document, category, page, chunk_type, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			source_document = excluded.source_document,
			category = excluded.category,
			page = excluded.page,
			chunk_type = excluded.chunk_type,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		var page sql.NullInt64
		if chunk.Page != nil {
			page = sql.NullInt64{Int64: int64(*chunk.Page), Valid: true}
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Text, chunk.SourceDocument,
			chunk.Category.String(), page, string(chunk.ChunkType), embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, source_document, category, page, chunk_type, embedding
		FROM chunks WHERE id = ?
	`, id)

	return scanChunk(row)
}

// IDsByCategory returns the set of chunk ids in the category.
func (s *Store) IDsByCategory(ctx context.Context, category domain.Category) (driven.IDSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE category = ?`, category.String())
	if err != nil {
		return nil, fmt.Errorf("querying category ids: %w", err)
	}
	defer rows.Close()

	ids := make(driven.IDSet)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}

	return ids, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Categories returns the distinct categories present in the corpus.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM chunks ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var cat string
		if err := rows.Scan(&cat); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return categories, nil
}

// allChunks returns every chunk in insertion (rowid) order. Full scans
// have no place on the query path; this exists for the package tests.
func (s *Store) allChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, source_document, category, page, chunk_type, embedding
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunkRows(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanChunkFields(sc scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var category, chunkType string
	var page sql.NullInt64
	var embeddingBlob []byte

	if err := sc.Scan(&chunk.ID, &chunk.Text, &chunk.SourceDocument,
		&category, &page, &chunkType, &embeddingBlob); err != nil {
		return nil, err
	}

	chunk.Category = domain.Category(category)
	chunk.ChunkType = domain.ChunkType(chunkType)
	if page.Valid {
		p := int(page.Int64)
		chunk.Page = &p
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &chunk, nil
}

// scanChunk scans a chunk from *sql.Row.
func scanChunk(row *sql.Row) (*domain.Chunk, error) {
	chunk, err := scanChunkFields(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return chunk, nil
}

// scanChunkRows scans a chunk from *sql.Rows.
func scanChunkRows(rows *sql.Rows) (*domain.Chunk, error) {
	chunk, err := scanChunkFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return chunk, nil
}
