// Package pgvector stores documents and embeddings in PostgreSQL with the
// pgvector extension.
package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"travel-rag/internal/adapter/repository"
	"travel-rag/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
)

var validTable = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Index is a domain.VectorIndex over one table.
type Index struct {
	pool  *pgxpool.Pool
	tx    domain.TransactionManager
	table string
}

// New returns an index over table. The table name must be a plain
// lower-case identifier because it is interpolated into SQL.
func New(pool *pgxpool.Pool, tx domain.TransactionManager, table string) (*Index, error) {
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Index{pool: pool, tx: tx, table: table}, nil
}

func (i *Index) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("pgvector: dimension must be positive, got %d", dimension)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id             text PRIMARY KEY,
			title          text NOT NULL,
			body           text NOT NULL,
			category       text NOT NULL,
			country        text NOT NULL DEFAULT '',
			source_country text NOT NULL DEFAULT '',
			tags           text[] NOT NULL DEFAULT '{}',
			source         text NOT NULL DEFAULT '',
			last_updated   text NOT NULL DEFAULT '',
			reliability    double precision NOT NULL DEFAULT 0.8,
			status         text NOT NULL,
			embedding      vector(%d) NOT NULL
		)`, i.table, dimension),
	}
	for _, stmt := range stmts {
		if _, err := i.pool.Exec(ctx, stmt); err != nil {
			return domain.NewError(domain.KindConnection, "pgvector.ensure_collection", err)
		}
	}

	existing, err := i.dimension(ctx)
	if err != nil {
		return err
	}
	if existing != 0 && existing != dimension {
		return fmt.Errorf("pgvector: table %s has dimension %d, requested %d", i.table, existing, dimension)
	}
	return nil
}

// dimension reads the declared vector size from the catalog.
func (i *Index) dimension(ctx context.Context) (int, error) {
	var typ string
	err := i.pool.QueryRow(ctx, `
		SELECT format_type(a.atttypid, a.atttypmod)
		FROM pg_attribute a
		WHERE a.attrelid = $1::regclass AND a.attname = 'embedding'`, i.table).Scan(&typ)
	if err != nil {
		return 0, domain.NewError(domain.KindConnection, "pgvector.dimension", err)
	}
	return parseVectorType(typ), nil
}

// parseVectorType extracts n from "vector(n)".
func parseVectorType(typ string) int {
	open := strings.IndexByte(typ, '(')
	end := strings.IndexByte(typ, ')')
	if open < 0 || end <= open {
		return 0
	}
	n, err := strconv.Atoi(typ[open+1 : end])
	if err != nil {
		return 0
	}
	return n
}

func (i *Index) upsertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %s (id, title, body, category, country, source_country, tags, source, last_updated, reliability, status, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			category = EXCLUDED.category,
			country = EXCLUDED.country,
			source_country = EXCLUDED.source_country,
			tags = EXCLUDED.tags,
			source = EXCLUDED.source,
			last_updated = EXCLUDED.last_updated,
			reliability = EXCLUDED.reliability,
			status = EXCLUDED.status,
			embedding = EXCLUDED.embedding`, i.table)
}

// Upsert writes all documents in one transaction.
func (i *Index) Upsert(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	query := i.upsertSQL()
	return i.tx.RunInTx(ctx, func(ctx context.Context) error {
		exec := repository.Executor(ctx, i.pool)
		for _, d := range docs {
			doc := d.Document
			tags := doc.Tags
			if tags == nil {
				tags = []string{}
			}
			_, err := exec.Exec(ctx, query,
				doc.ID, doc.Title, doc.Body, doc.Category.String(), doc.Country, doc.SourceCountry,
				tags, doc.Source, doc.LastUpdated, doc.Reliability, doc.Status.String(),
				pgv.NewVector(d.Embedding))
			if err != nil {
				return domain.NewError(domain.KindConnection, "pgvector.upsert", fmt.Errorf("document %s: %w", doc.ID, err))
			}
		}
		return nil
	})
}

// buildQuery returns the nearest-neighbour statement for filter. $1 is the
// query vector and the last placeholder is k.
func buildQuery(table string, filter domain.Filter) (string, []any) {
	var where []string
	var args []any
	if filter.Country != "" {
		args = append(args, filter.Country)
		where = append(where, fmt.Sprintf("country = $%d", len(args)+1))
	}
	if filter.Category != nil {
		args = append(args, filter.Category.String())
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT id, title, body, category, country, source_country, tags, source, last_updated, reliability, status,
		1 - (embedding <=> $1) AS score
		FROM %s`, table)
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, "\n\t\tORDER BY embedding <=> $1, id\n\t\tLIMIT $%d", len(args)+2)
	return b.String(), args
}

func (i *Index) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	sql, filterArgs := buildQuery(i.table, filter)
	args := append([]any{pgv.NewVector(vector)}, filterArgs...)
	args = append(args, k)

	rows, err := repository.Executor(ctx, i.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "pgvector.query", err)
	}
	defer rows.Close()

	var out []domain.ScoredDocument
	for rows.Next() {
		var (
			doc              domain.Document
			category, status string
			score            float64
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body, &category, &doc.Country, &doc.SourceCountry,
			&doc.Tags, &doc.Source, &doc.LastUpdated, &doc.Reliability, &status, &score); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.Category, err = domain.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		if doc.Status, err = domain.ParseDocumentStatus(status); err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		out = append(out, domain.ScoredDocument{Document: doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (i *Index) CollectionStats(ctx context.Context) (domain.CollectionStats, error) {
	stats := domain.CollectionStats{Name: i.table, Status: "empty", ByStatus: map[string]int{}}

	rows, err := i.pool.Query(ctx, fmt.Sprintf(`SELECT status, count(*) FROM %s GROUP BY status`, i.table))
	if err != nil {
		return stats, domain.NewError(domain.KindConnection, "pgvector.stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.ByStatus[status] = n
		stats.Count += n
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("rows error: %w", err)
	}

	if stats.Dimension, err = i.dimension(ctx); err != nil {
		return stats, err
	}
	if stats.Dimension > 0 {
		stats.Status = "green"
	}
	return stats, nil
}

var _ domain.VectorIndex = (*Index)(nil)
