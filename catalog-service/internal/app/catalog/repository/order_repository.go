package repository

import (
	"context"
	"fmt"

	"pdv/pkg/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	db rowQuerier
}

// NewOrderRepository создает репозиторий для проверки заказов, ссылающихся на товар
func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &orderRepository{db: db}
}

// ExistsForProduct возвращает true, если хотя бы один заказ ссылается на товар
func (r *orderRepository) ExistsForProduct(ctx context.Context, productID int64) (bool, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "pedidos").ObserveDuration()

	query := `SELECT EXISTS (SELECT 1 FROM pedidos WHERE produto_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, productID).Scan(&exists); err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return false, fmt.Errorf("failed to check orders for product: %w", err)
	}

	return exists, nil
}
