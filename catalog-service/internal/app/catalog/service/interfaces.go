package service

import (
	"context"

	"pdv/catalog-service/internal/app/catalog/entity"
)

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, req *entity.ProductRequest) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *entity.ProductRequest) error
	ListProducts(ctx context.Context, categoryID *int64) ([]entity.ProductWithCategory, error)
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ImageCleaner выполняет отложенное удаление изображения из outbox
type ImageCleaner interface {
	Process(ctx context.Context, deletion *entity.ImageDeletion) error
}

// ImageCleanupServiceInterface используется cron-планировщиком и health check'ом
type ImageCleanupServiceInterface interface {
	ImageCleaner
	ProcessPending(ctx context.Context) (CleanupResult, error)
	PendingCount(ctx context.Context) (int64, error)
}
