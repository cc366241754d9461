// Package policyindex provides hybrid (exact-filter + semantic) retrieval
// over the policy excerpt vector index. The index is a sqlite database with
// a vec0 virtual table holding excerpt embeddings; it is a read-only
// collaborator built by an external ingestion job.
package policyindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/UdonsiKalu/denialguard/internal/model"
)

func init() {
	// Register the sqlite-vec extension with the sqlite3 driver so vec0
	// tables and vec_distance_cosine are available.
	sqlite_vec.Auto()
}

// Searcher is the retrieval seam over the vector index. Tests substitute
// fakes; production uses *Store.
type Searcher interface {
	// SearchFiltered returns excerpts whose indexed code lists or text
	// literally contain one of the given codes, ranked by similarity.
	SearchFiltered(ctx context.Context, collection string, embedding []float32, codes []string, topK int) ([]model.PolicyExcerpt, error)
	// SearchSemantic returns excerpts by pure similarity, no filter.
	SearchSemantic(ctx context.Context, collection string, embedding []float32, topK int) ([]model.PolicyExcerpt, error)
	// Collections lists the collections present in the index.
	Collections(ctx context.Context) ([]string, error)
}

// Store is the sqlite-vec backed Searcher.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens the policy index database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open policy index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping policy index: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Collections lists the distinct policy collections in the index.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM policy_chunks ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const selectExcerpt = `
	SELECT c.text, c.source, c.chapter, c.section, c.rev, c.page, c.collection,
	       vec_distance_cosine(v.embedding, ?) AS distance
	FROM vec_policy v
	JOIN policy_chunks c ON c.id = v.rowid
	WHERE c.collection = ?`

// SearchFiltered requires the procedure/diagnosis code to appear literally in
// the excerpt's indexed code columns or text.
func (s *Store) SearchFiltered(ctx context.Context, collection string, embedding []float32, codes []string, topK int) ([]model.PolicyExcerpt, error) {
	var filters []string
	var args []any
	args = append(args, serializeFloat32(embedding), collection)

	for _, code := range codes {
		if code == "" {
			continue
		}
		upper := strings.ToUpper(code)
		filters = append(filters,
			"instr(upper(c.cpt_codes), ?) > 0",
			"instr(upper(c.icd10_codes), ?) > 0",
			"instr(upper(c.text), ?) > 0")
		args = append(args, upper, strings.ReplaceAll(upper, ".", ""), upper)
	}
	if len(filters) == 0 {
		return s.SearchSemantic(ctx, collection, embedding, topK)
	}

	query := selectExcerpt + " AND (" + strings.Join(filters, " OR ") + ") ORDER BY distance ASC LIMIT ?"
	args = append(args, topK)

	return s.search(ctx, query, args)
}

// SearchSemantic runs unfiltered similarity search within a collection.
func (s *Store) SearchSemantic(ctx context.Context, collection string, embedding []float32, topK int) ([]model.PolicyExcerpt, error) {
	query := selectExcerpt + " ORDER BY distance ASC LIMIT ?"
	args := []any{serializeFloat32(embedding), collection, topK}
	return s.search(ctx, query, args)
}

func (s *Store) search(ctx context.Context, query string, args []any) ([]model.PolicyExcerpt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vec search: %w", err)
	}
	defer rows.Close()

	var out []model.PolicyExcerpt
	for rows.Next() {
		var (
			p        model.PolicyExcerpt
			chapter  sql.NullString
			section  sql.NullString
			rev      sql.NullString
			page     sql.NullString
			distance float64
		)
		if err := rows.Scan(&p.Text, &p.Source, &chapter, &section, &rev, &page, &p.Collection, &distance); err != nil {
			s.log.Warn().Err(err).Msg("failed to scan policy excerpt row")
			continue
		}
		p.Chapter = chapter.String
		p.Section = section.String
		p.Rev = rev.String
		p.Page = page.String
		p.Score = 1.0 - distance
		out = append(out, p)
	}
	return out, rows.Err()
}

// serializeFloat32 encodes an embedding as the little-endian float32 blob
// sqlite-vec expects.
func serializeFloat32(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
