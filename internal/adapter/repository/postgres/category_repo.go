package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// CategoryRepository reads the category reference set seeded by migrations.
type CategoryRepository struct {
	db querier
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: pool}
}

// List returns every category ordered by id.
func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, label, kind FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var (
			c    domain.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Label, &kind); err != nil {
			return nil, err
		}
		c.Kind = domain.CategoryKind(kind)
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

// GetByID returns one category.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var (
		c    domain.Category
		kind string
	)

	err := r.db.QueryRow(ctx, `SELECT id, label, kind FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Label, &kind)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	c.Kind = domain.CategoryKind(kind)

	return &c, nil
}
