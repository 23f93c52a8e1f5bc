package repository

import (
	"context"
	"fmt"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/pkg/metrics"

	"gorm.io/gorm"
)

type imageDeletionRepository struct {
	db *gorm.DB
}

// NewImageDeletionRepository создает репозиторий outbox-таблицы exclusoes_imagem
func NewImageDeletionRepository(db *gorm.DB) ImageDeletionRepository {
	return &imageDeletionRepository{db: db}
}

// ListPending возвращает самые старые записи, у которых еще остались попытки
func (r *imageDeletionRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]entity.ImageDeletion, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "exclusoes_imagem").ObserveDuration()

	var deletions []entity.ImageDeletion
	result := r.db.WithContext(ctx).
		Where("tentativas < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&deletions)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list pending image deletions: %w", result.Error)
	}

	return deletions, nil
}

func (r *imageDeletionRepository) CountPending(ctx context.Context, maxAttempts int) (int64, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "exclusoes_imagem").ObserveDuration()

	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.ImageDeletion{}).
		Where("tentativas < ?", maxAttempts).
		Count(&count)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return 0, fmt.Errorf("failed to count pending image deletions: %w", result.Error)
	}

	return count, nil
}

// MarkDone удаляет запись после успешного удаления объекта.
// Повторный вызов для уже удаленной записи не является ошибкой.
func (r *imageDeletionRepository) MarkDone(ctx context.Context, id int64) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "exclusoes_imagem").ObserveDuration()

	if err := r.db.WithContext(ctx).Delete(&entity.ImageDeletion{}, "id = ?", id).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return fmt.Errorf("failed to mark image deletion %d as done: %w", id, err)
	}
	return nil
}

// MarkFailed увеличивает счетчик попыток и сохраняет текст последней ошибки
func (r *imageDeletionRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "exclusoes_imagem").ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.ImageDeletion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tentativas":  gorm.Expr("tentativas + 1"),
			"ultimo_erro": reason,
		})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to mark image deletion %d as failed: %w", id, result.Error)
	}
	return nil
}

// KeyInUse проверяет, что ключ снова принадлежит живому товару.
// Такой объект удалять нельзя: запись outbox устарела.
func (r *imageDeletionRepository) KeyInUse(ctx context.Context, key string) (bool, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "produtos").ObserveDuration()

	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("produto_imagem = ?", key).
		Count(&count)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return false, fmt.Errorf("failed to check image key usage: %w", result.Error)
	}

	return count > 0, nil
}
