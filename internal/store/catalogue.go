package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/techtribe/techtribe/internal/domain"
)

// CatalogueStore persists website packages with full-text search via FTS5.
type CatalogueStore struct {
	db *DB
}

// NewCatalogueStore creates a catalogue store using the given database.
func NewCatalogueStore(db *DB) *CatalogueStore {
	return &CatalogueStore{db: db}
}

const catalogueColumns = `id, title, description, short_description, features, technologies,
	price, currency, images, demo_url, category, is_featured, is_active, created_at, updated_at`

// Create inserts a new item, assigning id and timestamps.
func (s *CatalogueStore) Create(ctx context.Context, item domain.CatalogueItem) (domain.CatalogueItem, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Currency == "" {
		item.Currency = domain.DefaultCurrency
	}
	now := s.db.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	normalizeLists(&item)

	args, err := catalogueArgs(item)
	if err != nil {
		return domain.CatalogueItem{}, err
	}
	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO catalogue_items (`+catalogueColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if isUniqueViolation(err) {
		return domain.CatalogueItem{}, fmt.Errorf("catalogue item %q: %w", item.ID, domain.ErrConflict)
	}
	if err != nil {
		return domain.CatalogueItem{}, fmt.Errorf("inserting catalogue item: %w", err)
	}
	return item, nil
}

// Get returns an item by id, active or not.
func (s *CatalogueStore) Get(ctx context.Context, id string) (domain.CatalogueItem, error) {
	row := s.db.sql.QueryRowContext(ctx,
		`SELECT `+catalogueColumns+` FROM catalogue_items WHERE id = ?`, id)
	item, err := scanCatalogue(row)
	if err != nil {
		return item, notFound(err, "catalogue item")
	}
	return item, nil
}

// List returns active items newest first, optionally narrowed by category
// or to featured items only.
func (s *CatalogueStore) List(ctx context.Context, f domain.CatalogueFilter) ([]domain.CatalogueItem, error) {
	query := `SELECT ` + catalogueColumns + ` FROM catalogue_items WHERE is_active = 1`
	var args []any
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.FeaturedOnly {
		query += ` AND is_featured = 1`
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limitOr(f.Limit, 100))

	return s.query(ctx, query, args...)
}

// Search finds active items matching the query using FTS5, best match first.
func (s *CatalogueStore) Search(ctx context.Context, q string, limit int) ([]domain.CatalogueItem, error) {
	return s.query(ctx,
		`SELECT ci.id, ci.title, ci.description, ci.short_description, ci.features, ci.technologies,
		        ci.price, ci.currency, ci.images, ci.demo_url, ci.category, ci.is_featured, ci.is_active,
		        ci.created_at, ci.updated_at
		 FROM catalogue_fts
		 JOIN catalogue_items ci ON ci.rowid = catalogue_fts.rowid
		 WHERE catalogue_fts MATCH ? AND ci.is_active = 1
		 ORDER BY rank
		 LIMIT ?`,
		ftsQuery(q), limitOr(limit, 20),
	)
}

// Update applies a partial update. An empty update is rejected with
// domain.ErrInvalidInput.
func (s *CatalogueStore) Update(ctx context.Context, id string, u domain.CatalogueUpdate) (domain.CatalogueItem, error) {
	if u.Empty() {
		return domain.CatalogueItem{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return item, err
	}
	u.Apply(&item)
	normalizeLists(&item)
	item.UpdatedAt = s.db.now().UTC()

	features, _ := json.Marshal(item.Features)
	technologies, _ := json.Marshal(item.Technologies)
	images, _ := json.Marshal(item.Images)
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE catalogue_items SET
		   title = ?, description = ?, short_description = ?, features = ?, technologies = ?,
		   price = ?, currency = ?, images = ?, demo_url = ?, category = ?,
		   is_featured = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		item.Title, item.Description, item.ShortDescription, string(features), string(technologies),
		item.Price, item.Currency, string(images), item.DemoURL, item.Category,
		item.IsFeatured, item.IsActive, formatTime(item.UpdatedAt), id,
	)
	if err != nil {
		return domain.CatalogueItem{}, fmt.Errorf("updating catalogue item: %w", err)
	}
	if err := requireAffected(res, "updating catalogue item"); err != nil {
		return domain.CatalogueItem{}, err
	}
	return item, nil
}

// Delete removes an item.
func (s *CatalogueStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM catalogue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting catalogue item: %w", err)
	}
	return requireAffected(res, "deleting catalogue item")
}

// Count returns the number of items, or only active ones.
func (s *CatalogueStore) Count(ctx context.Context, activeOnly bool) (int, error) {
	if activeOnly {
		return count(ctx, s.db, `SELECT COUNT(*) FROM catalogue_items WHERE is_active = 1`)
	}
	return count(ctx, s.db, `SELECT COUNT(*) FROM catalogue_items`)
}

// SeedIfEmpty inserts items only when the catalogue has none. It reports
// how many were inserted and the resulting total.
func (s *CatalogueStore) SeedIfEmpty(ctx context.Context, items []domain.CatalogueItem) (inserted, total int, err error) {
	existing, err := s.Count(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	if existing > 0 {
		return 0, existing, nil
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	now := s.db.now().UTC()
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.Currency == "" {
			item.Currency = domain.DefaultCurrency
		}
		item.CreatedAt, item.UpdatedAt = now, now
		normalizeLists(&item)
		args, err := catalogueArgs(item)
		if err != nil {
			return 0, 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalogue_items (`+catalogueColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
			return 0, 0, fmt.Errorf("seeding %q: %w", item.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit seed: %w", err)
	}
	s.db.log.Info().Int("count", len(items)).Msg("catalogue seeded")
	return len(items), len(items), nil
}

func (s *CatalogueStore) query(ctx context.Context, query string, args ...any) ([]domain.CatalogueItem, error) {
	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalogue: %w", err)
	}
	defer rows.Close()

	items := []domain.CatalogueItem{}
	for rows.Next() {
		item, err := scanCatalogue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalogue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanCatalogue(row interface{ Scan(...any) error }) (domain.CatalogueItem, error) {
	var item domain.CatalogueItem
	var features, technologies, images, createdAt, updatedAt string
	if err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.ShortDescription, &features, &technologies,
		&item.Price, &item.Currency, &images, &item.DemoURL, &item.Category,
		&item.IsFeatured, &item.IsActive, &createdAt, &updatedAt,
	); err != nil {
		return item, err
	}
	_ = json.Unmarshal([]byte(features), &item.Features)
	_ = json.Unmarshal([]byte(technologies), &item.Technologies)
	_ = json.Unmarshal([]byte(images), &item.Images)
	normalizeLists(&item)
	item.CreatedAt = parseTime(createdAt)
	item.UpdatedAt = parseTime(updatedAt)
	return item, nil
}

func catalogueArgs(item domain.CatalogueItem) ([]any, error) {
	features, err := json.Marshal(item.Features)
	if err != nil {
		return nil, err
	}
	technologies, err := json.Marshal(item.Technologies)
	if err != nil {
		return nil, err
	}
	images, err := json.Marshal(item.Images)
	if err != nil {
		return nil, err
	}
	return []any{
		item.ID, item.Title, item.Description, item.ShortDescription, string(features), string(technologies),
		item.Price, item.Currency, string(images), item.DemoURL, item.Category,
		item.IsFeatured, item.IsActive, formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	}, nil
}

// normalizeLists keeps list fields non-nil so they encode as [] not null.
func normalizeLists(item *domain.CatalogueItem) {
	if item.Features == nil {
		item.Features = []string{}
	}
	if item.Technologies == nil {
		item.Technologies = []string{}
	}
	if item.Images == nil {
		item.Images = []string{}
	}
}

// ftsQuery quotes each term so user input cannot inject FTS5 syntax; terms
// are prefix-matched.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(fields, " ")
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
