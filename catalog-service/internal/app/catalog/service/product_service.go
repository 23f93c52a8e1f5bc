package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/catalog-service/internal/app/catalog/repository"
	"pdv/catalog-service/internal/app/catalog/util"
	"pdv/pkg/logger"
	"pdv/pkg/metrics"

	"github.com/shopspring/decimal"
)

// ProductService реализует сценарии работы с товарами: проверки целостности,
// уникальность изображения, зависимость от заказов и очистку хранилища
type ProductService struct {
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	orderRepo     repository.OrderRepository
	categoryCache util.CategoryCache
	storage       util.ObjectStorage
	publisher     util.MessagePublisher
	cleaner       ImageCleaner
	categoryTTL   time.Duration
}

// NewProductService создает сервис товаров с внедрением зависимостей
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	orderRepo repository.OrderRepository,
	categoryCache util.CategoryCache,
	storage util.ObjectStorage,
	publisher util.MessagePublisher,
	cleaner ImageCleaner,
	categoryTTL time.Duration,
) *ProductService {
	return &ProductService{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		orderRepo:     orderRepo,
		categoryCache: categoryCache,
		storage:       storage,
		publisher:     publisher,
		cleaner:       cleaner,
		categoryTTL:   categoryTTL,
	}
}

// CreateProduct проверяет ввод, уникальность изображения и категорию, затем сохраняет товар
func (s *ProductService) CreateProduct(ctx context.Context, req *entity.ProductRequest) (*entity.Product, error) {
	product, err := buildProduct(req)
	if err != nil {
		metrics.RecordProductRejected("create", "validation")
		return nil, err
	}

	if product.HasImage() {
		if err := s.ensureImageAvailable(ctx, *product.Image, 0); err != nil {
			return nil, s.reject("create", err)
		}
	}

	if err := s.ensureCategoryExists(ctx, product.CategoryID); err != nil {
		return nil, s.reject("create", err)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, s.reject("create", translateRepoError(err, "create"))
	}

	metrics.ProductsCreated.Inc()
	logger.Info().
		Int64("product_id", product.ID).
		Int64("category_id", product.CategoryID).
		Msg("Product created")

	s.publishProductEvent(ctx, entity.EventProductCreated, product)

	return product, nil
}

// UpdateProduct перезаписывает товар. Если ссылка на изображение меняется,
// старый объект удаляется из хранилища до обновления строки; при отказе
// хранилища строка не изменяется.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *entity.ProductRequest) error {
	product, err := buildProduct(req)
	if err != nil {
		metrics.RecordProductRejected("update", "validation")
		return err
	}
	product.ID = id

	if err := s.ensureCategoryExists(ctx, product.CategoryID); err != nil {
		return s.reject("update", err)
	}

	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return s.reject("update", translateRepoError(err, "get"))
	}

	if product.HasImage() {
		if err := s.ensureImageAvailable(ctx, *product.Image, id); err != nil {
			return s.reject("update", err)
		}
	}

	// Та же ссылка не удаляет объект: товар продолжает на него указывать
	if existing.HasImage() && !sameImage(existing.Image, product.Image) {
		if err := s.storage.DeleteObject(ctx, *existing.Image); err != nil {
			metrics.RecordImageDeletion("update", false)
			logger.Error().
				Err(err).
				Int64("product_id", id).
				Str("object_key", *existing.Image).
				Msg("Failed to delete previous product image, update aborted")
			return &StorageError{Key: *existing.Image, Err: err}
		}
		metrics.RecordImageDeletion("update", true)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return s.reject("update", translateRepoError(err, "update"))
	}

	metrics.ProductsUpdated.Inc()
	logger.Info().Int64("product_id", id).Msg("Product updated")

	s.publishProductEvent(ctx, entity.EventProductUpdated, product)

	return nil
}

// ListProducts возвращает товары с описанием категории, при необходимости по одной категории.
// Несуществующая категория дает пустой список.
func (s *ProductService) ListProducts(ctx context.Context, categoryID *int64) ([]entity.ProductWithCategory, error) {
	products, err := s.productRepo.GetAllWithCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct получает товар по ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "get")
	}
	return product, nil
}

// DeleteProduct удаляет товар, если на него не ссылается ни один заказ.
// Строка удаляется вместе с записью в outbox; сам объект удаляется сразу
// после коммита, а при неудаче - фоновой задачей очистки.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.productRepo.GetByID(ctx, id); err != nil {
		return translateRepoError(err, "get")
	}

	hasOrders, err := s.orderRepo.ExistsForProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product orders: %w", err)
	}
	if hasOrders {
		return s.reject("delete", ErrProductHasOrders)
	}

	deletion, err := s.productRepo.DeleteWithImageCleanup(ctx, id)
	if err != nil {
		return s.reject("delete", translateRepoError(err, "delete"))
	}

	metrics.ProductsDeleted.Inc()
	logger.Info().Int64("product_id", id).Msg("Product deleted")

	if deletion != nil {
		if err := s.cleaner.Process(ctx, deletion); err != nil {
			logger.Warn().
				Err(err).
				Int64("product_id", id).
				Str("object_key", deletion.ObjectKey).
				Msg("Image deletion deferred to cleanup job")
		}
	}

	s.publishProductEvent(ctx, entity.EventProductDeleted, &entity.Product{ID: id})

	return nil
}

// ensureCategoryExists проверяет категорию сначала в Redis, затем в PostgreSQL.
// Ошибки кеша не критичны: запрос уходит в БД.
func (s *ProductService) ensureCategoryExists(ctx context.Context, categoryID int64) error {
	cached, err := s.categoryCache.GetCategory(ctx, categoryID)
	if err != nil {
		logger.Warn().Err(err).Int64("category_id", categoryID).Msg("Category cache read failed")
	} else if cached != nil {
		return nil
	}

	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}

	if err := s.categoryCache.SetCategory(ctx, category, s.categoryTTL); err != nil {
		logger.Warn().Err(err).Int64("category_id", categoryID).Msg("Category cache write failed")
	}

	return nil
}

// ensureImageAvailable возвращает ErrImageAlreadyAssigned, если изображение
// принадлежит другому товару. ownerID = 0 для нового товара.
func (s *ProductService) ensureImageAvailable(ctx context.Context, image string, ownerID int64) error {
	holder, err := s.productRepo.GetByImage(ctx, image)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check image ownership: %w", err)
	}

	if holder.ID != ownerID {
		return ErrImageAlreadyAssigned
	}
	return nil
}

// publishProductEvent отправляет событие в Kafka. Ошибка только логируется:
// операция над товаром уже завершена.
func (s *ProductService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product) {
	event := entity.ProductEvent{
		EventType:   eventType,
		ProductID:   product.ID,
		Description: product.Description,
		Price:       product.Price,
		CategoryID:  product.CategoryID,
		Image:       product.Image,
		Timestamp:   time.Now().UTC(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal product event")
		return
	}

	key := strconv.FormatInt(product.ID, 10)
	if err := s.publisher.PublishMessage(ctx, key, eventData); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Int64("product_id", product.ID).
			Msg("Failed to publish product event")
	}
}

// reject учитывает отказ в метриках и возвращает ошибку без изменений
func (s *ProductService) reject(operation string, err error) error {
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		metrics.RecordProductRejected(operation, "category_not_found")
	case errors.Is(err, ErrImageAlreadyAssigned):
		metrics.RecordProductRejected(operation, "image_conflict")
	case errors.Is(err, ErrProductHasOrders):
		metrics.RecordProductRejected(operation, "has_orders")
	case errors.Is(err, ErrProductNotFound):
		metrics.RecordProductRejected(operation, "not_found")
	}
	return err
}

// Пределы колонок produtos: valor NUMERIC(12,2), quantidade_estoque INTEGER
var maxPrice = decimal.New(1, 10)

const (
	maxPriceScale    = 2
	maxStockQuantity = math.MaxInt32
)

// ValidateProductValues проверяет переданные числовые поля: сначала
// количество, затем цена. Отсутствующие поля пропускаются.
func ValidateProductValues(req *entity.ProductRequest) error {
	if req.StockQuantity != nil {
		switch {
		case *req.StockQuantity < 0:
			return ErrInvalidQuantity
		case *req.StockQuantity > maxStockQuantity:
			return ErrQuantityTooLarge
		}
	}

	if req.Price != nil {
		switch {
		case !req.Price.IsPositive():
			return ErrInvalidPrice
		case !req.Price.Equal(req.Price.Truncate(maxPriceScale)):
			return ErrPriceScale
		case req.Price.GreaterThanOrEqual(maxPrice):
			return ErrPriceTooLarge
		}
	}

	return nil
}

// buildProduct проверяет запрос и собирает сущность.
// Сначала числовые значения, затем обязательные поля.
func buildProduct(req *entity.ProductRequest) (*entity.Product, error) {
	if err := ValidateProductValues(req); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(req.Description) == "":
		return nil, missingField("descricao")
	case req.StockQuantity == nil:
		return nil, missingField("quantidade_estoque")
	case req.Price == nil:
		return nil, missingField("valor")
	case req.CategoryID == nil:
		return nil, missingField("categoria_id")
	}

	return &entity.Product{
		Description:   req.Description,
		StockQuantity: *req.StockQuantity,
		Price:         *req.Price,
		CategoryID:    *req.CategoryID,
		Image:         normalizeImage(req.Image),
	}, nil
}

// normalizeImage превращает пустую ссылку в NULL
func normalizeImage(image *string) *string {
	if image == nil || strings.TrimSpace(*image) == "" {
		return nil
	}
	value := *image
	return &value
}

func sameImage(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// translateRepoError переводит ошибки репозитория в ошибки сервиса
func translateRepoError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicateImage):
		return ErrImageAlreadyAssigned
	case errors.Is(err, repository.ErrForeignKey):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrProductReferenced):
		return ErrProductHasOrders
	case errors.Is(err, repository.ErrValueOutOfRange):
		return ErrValueOutOfRange
	}
	return fmt.Errorf("failed to %s product: %w", op, err)
}
