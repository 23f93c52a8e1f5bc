package repository

import (
	"context"
	"errors"

	"pdv/catalog-service/internal/app/catalog/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const serviceName = "catalog-service"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateImage    = errors.New("image already assigned to another product")
	ErrForeignKey        = errors.New("foreign key violation")
	ErrProductReferenced = errors.New("product is referenced by an order")
	ErrValueOutOfRange   = errors.New("value violates produtos column limits")
)

// Коды ошибок PostgreSQL, которые транслируются в ошибки репозитория
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// ProductRepository - доступ к таблице produtos
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetByImage(ctx context.Context, image string) (*entity.Product, error)
	GetAllWithCategory(ctx context.Context, categoryID *int64) ([]entity.ProductWithCategory, error)
	// DeleteWithImageCleanup удаляет товар и в той же транзакции
	// записывает намерение удалить его изображение. Возвращает nil,
	// если у товара не было изображения.
	DeleteWithImageCleanup(ctx context.Context, id int64) (*entity.ImageDeletion, error)
}

// CategoryRepository - проверка существования категории
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
}

// OrderRepository - проверка зависимых заказов
type OrderRepository interface {
	ExistsForProduct(ctx context.Context, productID int64) (bool, error)
}

// ImageDeletionRepository - outbox удалений изображений
type ImageDeletionRepository interface {
	ListPending(ctx context.Context, maxAttempts, limit int) ([]entity.ImageDeletion, error)
	CountPending(ctx context.Context, maxAttempts int) (int64, error)
	MarkDone(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	// KeyInUse сообщает, ссылается ли на ключ какой-либо товар
	KeyInUse(ctx context.Context, key string) (bool, error)
}

// rowQuerier - часть pgxpool.Pool, которая нужна raw-репозиториям
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
