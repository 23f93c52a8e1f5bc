package util

import (
	"context"
	"time"

	"pdv/catalog-service/internal/app/catalog/entity"
)

const serviceName = "catalog-service"

// CategoryCache интерфейс Redis-кеша категорий.
// GetCategory возвращает (nil, nil) при промахе.
type CategoryCache interface {
	GetCategory(ctx context.Context, id int64) (*entity.Category, error)
	SetCategory(ctx context.Context, category *entity.Category, ttl time.Duration) error
}

// ObjectStorage - шлюз к объектному хранилищу изображений.
// DeleteObject идемпотентен: отсутствующий объект не является ошибкой.
type ObjectStorage interface {
	DeleteObject(ctx context.Context, key string) error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}
