package repository

import (
	"context"
	"errors"
	"fmt"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/pkg/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create вставляет товар и заполняет сгенерированный ID (INSERT ... RETURNING)
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "produtos").ObserveDuration()

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return translateWriteError(err, "create product")
	}
	return nil
}

// Update перезаписывает все изменяемые поля товара.
// produto_imagem = nil записывается как NULL.
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "produtos").ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"descricao":          product.Description,
			"quantidade_estoque": product.StockQuantity,
			"valor":              product.Price,
			"categoria_id":       product.CategoryID,
			"produto_imagem":     product.Image,
		})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return translateWriteError(result.Error, "update product")
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "produtos").ObserveDuration()

	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}

	return &product, nil
}

// GetByImage ищет товар, который ссылается на данный ключ изображения
func (r *productRepository) GetByImage(ctx context.Context, image string) (*entity.Product, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "produtos").ObserveDuration()

	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "produto_imagem = ?", image)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get product by image: %w", result.Error)
	}

	return &product, nil
}

// GetAllWithCategory возвращает товары вместе с описанием категории.
// Если categoryID задан, выборка ограничивается этой категорией.
func (r *productRepository) GetAllWithCategory(ctx context.Context, categoryID *int64) ([]entity.ProductWithCategory, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "produtos").ObserveDuration()

	query := r.db.WithContext(ctx).
		Table("produtos AS p").
		Select("p.*, c.descricao AS categoria").
		Joins("JOIN categorias AS c ON c.id = p.categoria_id")

	if categoryID != nil {
		query = query.Where("p.categoria_id = ?", *categoryID)
	}

	products := make([]entity.ProductWithCategory, 0)
	if err := query.Scan(&products).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// DeleteWithImageCleanup удаляет товар и ставит его изображение в очередь на удаление.
// Строка товара блокируется (FOR UPDATE), чтобы ключ изображения нельзя было
// изменить между чтением и удалением.
func (r *productRepository) DeleteWithImageCleanup(ctx context.Context, id int64) (*entity.ImageDeletion, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "produtos").ObserveDuration()

	var deletion *entity.ImageDeletion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product entity.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "produto_imagem").
			First(&product, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		result := tx.Delete(&entity.Product{}, "id = ?", id)
		if result.Error != nil {
			if pgErrorCode(result.Error) == pgForeignKeyViolation {
				return ErrProductReferenced
			}
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}

		if !product.HasImage() {
			return nil
		}

		deletion = &entity.ImageDeletion{
			ProductID: id,
			ObjectKey: *product.Image,
		}
		if err := tx.Create(deletion).Error; err != nil {
			return fmt.Errorf("failed to enqueue image deletion: %w", err)
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrProductNotFound) && !errors.Is(err, ErrProductReferenced) {
			metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		}
		return nil, err
	}

	return deletion, nil
}

// translateWriteError переводит нарушения ограничений produtos в ошибки репозитория
func translateWriteError(err error, op string) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return ErrDuplicateImage
	case pgForeignKeyViolation:
		return ErrForeignKey
	case pgCheckViolation, pgNumericOutOfRange:
		return ErrValueOutOfRange
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
