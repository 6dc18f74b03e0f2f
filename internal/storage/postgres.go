package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS news_items (
	id           TEXT PRIMARY KEY,
	link         TEXT NOT NULL UNIQUE,
	category     TEXT NOT NULL DEFAULT '',
	sub_category TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	trust_grade  TEXT NOT NULL DEFAULT 'unknown',
	title        TEXT NOT NULL DEFAULT '',
	summary      TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	doc          JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS news_items_category_idx ON news_items (category, sub_category);
CREATE INDEX IF NOT EXISTS news_items_published_idx ON news_items (published_at DESC);
`

// PostgresStore keeps items in a news_items table with the full document as JSONB
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) SaveNews(ctx context.Context, item *models.NewsItem) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal news item: %w", err)
	}

	var published interface{}
	if !item.PublishedAt.IsZero() {
		published = item.PublishedAt
	}

	tag, err := p.pool.Exec(ctx, `
		INSERT INTO news_items (id, link, category, sub_category, source, trust_grade, title, summary, published_at, created_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (link) DO NOTHING`,
		item.ID, item.Link, item.Category, item.SubCategory, item.Source, string(item.TrustGrade),
		item.Title, item.Summary, published, item.CreatedAt, doc)
	if err != nil {
		return fmt.Errorf("failed to insert news item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (p *PostgresStore) GetNewsByID(ctx context.Context, id string) (*models.NewsItem, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM news_items WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query news item: %w", err)
	}
	return decodeDoc(doc)
}

func (p *PostgresStore) ListNews(ctx context.Context, filter Filter, page, pageSize int) ([]*models.NewsItem, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM news_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count news items: %w", err)
	}

	query, args := buildListQuery(filter, page, pageSize)
	items, err := p.queryDocs(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (p *PostgresStore) SearchNews(ctx context.Context, query string, limit int) ([]*models.NewsItem, error) {
	if limit <= 0 {
		limit = 50
	}
	sql, args := buildSearchQuery(query, limit)
	return p.queryDocs(ctx, sql, args...)
}

func (p *PostgresStore) DeleteNews(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM news_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete news item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStore) queryDocs(ctx context.Context, sql string, args ...interface{}) ([]*models.NewsItem, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news items: %w", err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to read news items: %w", err)
	}

	items := make([]*models.NewsItem, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeDoc(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeDoc(doc []byte) (*models.NewsItem, error) {
	var item models.NewsItem
	if err := json.Unmarshal(doc, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal news item: %w", err)
	}
	return &item, nil
}

// buildWhere renders the WHERE clause of a filter with positional arguments.
func buildWhere(filter Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("category", filter.Category)
	add("sub_category", filter.SubCategory)
	add("source", filter.Source)
	add("trust_grade", string(filter.Grade))

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildListQuery(filter Filter, page, pageSize int) (string, []interface{}) {
	page, pageSize = Normalize(page, pageSize)
	where, args := buildWhere(filter)
	args = append(args, pageSize, (page-1)*pageSize)
	sql := fmt.Sprintf(`SELECT doc FROM news_items%s ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	return sql, args
}

func buildSearchQuery(query string, limit int) (string, []interface{}) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	sql := `SELECT doc FROM news_items
		WHERE title ILIKE $1 OR summary ILIKE $1 OR source ILIKE $1
			OR EXISTS (SELECT 1 FROM jsonb_each(doc->'translations') tr WHERE tr.value->>'title' ILIKE $1)
		ORDER BY published_at DESC NULLS LAST, created_at DESC
		LIMIT $2`
	return sql, []interface{}{pattern, limit}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
