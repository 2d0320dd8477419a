package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"travel-search/internal/database"
	"travel-search/internal/domain/catalog"
	"travel-search/internal/domain/search"

	"github.com/google/uuid"
)

type PostgresCatalogRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresCatalogRepository(db database.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db, now: time.Now}
}

const catalogColumns = `id, type, fields, created_at, updated_at`

func (r *PostgresCatalogRepository) FindByID(ctx context.Context, t search.Type, id string) (catalog.Item, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items WHERE type = $1 AND id = $2`,
		t.String(), strings.TrimSpace(id),
	)
	it, err := scanItem(row)
	if err != nil {
		if database.IsNoRows(err) {
			return catalog.Item{}, catalog.ErrNotFound
		}
		return catalog.Item{}, err
	}
	return it, nil
}

// List returns items of type t, newest first. Filter fields match
// case-insensitive substrings of the document's from, to and city.
func (r *PostgresCatalogRepository) List(ctx context.Context, t search.Type, f catalog.Filter) ([]catalog.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+catalogColumns+`
		 FROM catalog_items
		 WHERE type = $1
		   AND ($2::text = '' OR fields->>'from' ILIKE '%' || $2::text || '%')
		   AND ($3::text = '' OR fields->>'to' ILIKE '%' || $3::text || '%')
		   AND ($4::text = '' OR fields->>'city' ILIKE '%' || $4::text || '%')
		 ORDER BY created_at DESC, id`,
		t.String(), strings.TrimSpace(f.From), strings.TrimSpace(f.To), strings.TrimSpace(f.City),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalog.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores fields under a new id. An "id" in fields is ignored.
func (r *PostgresCatalogRepository) Create(ctx context.Context, t search.Type, fields json.RawMessage) (catalog.Item, error) {
	doc, err := stripID(fields)
	if err != nil {
		return catalog.Item{}, err
	}
	now := r.now().UTC()
	row := r.db.QueryRow(ctx,
		`INSERT INTO catalog_items (id, type, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING `+catalogColumns,
		uuid.NewString(), t.String(), doc, now,
	)
	return scanItem(row)
}

// Update replaces the document of an existing item.
func (r *PostgresCatalogRepository) Update(ctx context.Context, t search.Type, id string, fields json.RawMessage) (catalog.Item, error) {
	doc, err := stripID(fields)
	if err != nil {
		return catalog.Item{}, err
	}
	row := r.db.QueryRow(ctx,
		`UPDATE catalog_items SET fields = $3, updated_at = $4
		 WHERE type = $1 AND id = $2
		 RETURNING `+catalogColumns,
		t.String(), strings.TrimSpace(id), doc, r.now().UTC(),
	)
	it, err := scanItem(row)
	if err != nil {
		if database.IsNoRows(err) {
			return catalog.Item{}, catalog.ErrNotFound
		}
		return catalog.Item{}, err
	}
	return it, nil
}

func (r *PostgresCatalogRepository) Delete(ctx context.Context, t search.Type, id string) error {
	affected, err := r.db.Exec(ctx,
		`DELETE FROM catalog_items WHERE type = $1 AND id = $2`,
		t.String(), strings.TrimSpace(id),
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanItem(row database.Row) (catalog.Item, error) {
	var (
		it     catalog.Item
		typ    string
		fields []byte
	)
	if err := row.Scan(&it.ID, &typ, &fields, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return catalog.Item{}, err
	}
	it.Type = search.Type(typ)
	it.Fields = json.RawMessage(fields)
	return it, nil
}

func stripID(fields json.RawMessage) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(fields, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("fields must be a JSON object")
	}
	delete(doc, "id")
	return json.Marshal(doc)
}

var _ catalog.Repository = (*PostgresCatalogRepository)(nil)
