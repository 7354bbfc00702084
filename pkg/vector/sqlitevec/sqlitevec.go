// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

// SQLiteVecDriver implements vector.Driver and vector.Querier using SQLite
// with sqlite-vec. Content lives in a plain documents table; embeddings live
// in a vec0 virtual table sharing the same rowid.
type SQLiteVecDriver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	// Required.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *slog.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrStorageUnavailable, err)
	}

	// A single connection serializes writers against readers and keeps
	// ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrStorageUnavailable, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY,
			content TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_vec USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &SQLiteVecDriver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// ReplaceAll discards every stored document and inserts docs with IDs
// 1..len(docs) in a single transaction.
func (d *SQLiteVecDriver) ReplaceAll(ctx context.Context, docs []vector.NewDocument) error {
	if err := vector.ValidateDocuments(docs, d.dimensions); err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents_vec`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	for i, doc := range docs {
		id := int64(i + 1)

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(id, content) VALUES (?, ?)`,
			id, doc.Content,
		); err != nil {
			return fmt.Errorf("inserting document %d: %w", id, err)
		}

		if doc.Embedding == nil {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents_vec(rowid, embedding) VALUES (?, ?)`,
			id, serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for document %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("replaced documents in sqlite-vec",
		"count", len(docs),
	)

	return nil
}

// ScanAll returns every stored document ordered by ID.
func (d *SQLiteVecDriver) ScanAll(ctx context.Context) ([]vector.Document, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", vector.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	embeddings, err := scanEmbeddings(ctx, tx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, content FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []vector.Document{}
	for rows.Next() {
		var doc vector.Document
		if err := rows.Scan(&doc.ID, &doc.Content); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Embedding = embeddings[doc.ID]
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

func scanEmbeddings(ctx context.Context, tx *sql.Tx) (map[int64][]float32, error) {
	rows, err := tx.QueryContext(ctx, `SELECT rowid, embedding FROM documents_vec`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	out := map[int64][]float32{}
	for rows.Next() {
		var (
			id   int64
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		emb, err := deserializeFloat32(blob)
		if err != nil {
			return nil, fmt.Errorf("embedding for document %d: %w", id, err)
		}
		out[id] = emb
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return out, nil
}

// Count returns the number of stored documents.
func (d *SQLiteVecDriver) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting documents: %v", vector.ErrStorageUnavailable, err)
	}
	return n, nil
}

// Query finds the topK most similar documents to the given embedding. Score
// is 1 - cosine distance and equal distances order by ascending ID.
//
// The vec0 KNN operator picks its own k rows among equal distances, so the
// ranking scans every row with vec_distance_cosine and lets ORDER BY settle
// ties before LIMIT applies.
func (d *SQLiteVecDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if len(embedding) != int(d.dimensions) {
		return nil, fmt.Errorf("query has %d components, want %d: %w",
			len(embedding), d.dimensions, vector.ErrDimensionMismatch)
	}
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			d.id,
			d.content,
			v.embedding,
			vec_distance_cosine(v.embedding, ?) AS distance
		FROM documents_vec v
		INNER JOIN documents d ON d.id = v.rowid
		ORDER BY distance, d.id
		LIMIT ?
	`, serializeFloat32(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := make([]vector.QueryResult, 0, min(topK, 64))
	for rows.Next() {
		var (
			r        vector.QueryResult
			blob     []byte
			distance float64
		)
		if err := rows.Scan(&r.ID, &r.Content, &blob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if r.Embedding, err = deserializeFloat32(blob); err != nil {
			return nil, fmt.Errorf("embedding for document %d: %w", r.ID, err)
		}
		r.Score = float32(1 - distance)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		"results", len(results),
	)

	return results, nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

var (
	_ vector.Driver  = (*SQLiteVecDriver)(nil)
	_ vector.Querier = (*SQLiteVecDriver)(nil)
)
