package repository

import (
	"context"
	"errors"
	"fmt"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type categoryRepository struct {
	db rowQuerier // Пул соединений с PostgreSQL; категории только читаются
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{db: db}
}

// GetByID получает категорию по ID из PostgreSQL
func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "categorias").ObserveDuration()

	query := `SELECT id, descricao FROM categorias WHERE id = $1`

	var category entity.Category
	err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Description,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}

	return &category, nil
}
