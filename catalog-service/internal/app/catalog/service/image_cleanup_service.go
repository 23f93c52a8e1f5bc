package service

import (
	"context"
	"fmt"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/catalog-service/internal/app/catalog/repository"
	"pdv/catalog-service/internal/app/catalog/util"
	"pdv/pkg/logger"
	"pdv/pkg/metrics"
)

// CleanupResult - итог одного прохода очистки
type CleanupResult struct {
	Processed int
	Deleted   int
	Skipped   int
	Failed    int
}

// ImageCleanupService удаляет объекты, поставленные в outbox exclusoes_imagem.
// Удаление идемпотентно, поэтому повторная обработка записи безопасна.
type ImageCleanupService struct {
	deletions   repository.ImageDeletionRepository
	storage     util.ObjectStorage
	batchSize   int
	maxAttempts int
}

func NewImageCleanupService(
	deletions repository.ImageDeletionRepository,
	storage util.ObjectStorage,
	batchSize int,
	maxAttempts int,
) *ImageCleanupService {
	return &ImageCleanupService{
		deletions:   deletions,
		storage:     storage,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Process - немедленная попытка сразу после удаления товара
func (s *ImageCleanupService) Process(ctx context.Context, deletion *entity.ImageDeletion) error {
	_, err := s.attempt(ctx, deletion, "delete")
	return err
}

// ProcessPending обрабатывает одну пачку записей outbox (вызывается по cron)
func (s *ImageCleanupService) ProcessPending(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult

	pending, err := s.deletions.ListPending(ctx, s.maxAttempts, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to load pending image deletions: %w", err)
	}

	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		result.Processed++

		deleted, err := s.attempt(ctx, &pending[i], "sweeper")
		if err != nil {
			result.Failed++
			logger.Warn().
				Err(err).
				Int64("deletion_id", pending[i].ID).
				Str("object_key", pending[i].ObjectKey).
				Int("attempts", pending[i].Attempts+1).
				Msg("Image deletion retry failed")
			continue
		}
		if !deleted {
			result.Skipped++
			continue
		}
		result.Deleted++
	}

	if _, err := s.PendingCount(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to refresh pending image deletions gauge")
	}

	return result, nil
}

// PendingCount возвращает число записей, которые еще будут повторены
func (s *ImageCleanupService) PendingCount(ctx context.Context) (int64, error) {
	count, err := s.deletions.CountPending(ctx, s.maxAttempts)
	if err != nil {
		return 0, err
	}
	metrics.ImageDeletionsPending.Set(float64(count))
	return count, nil
}

// attempt возвращает false, если объект не удалялся, потому что ключ
// уже снова принадлежит товару. Запись outbox в этом случае закрывается.
func (s *ImageCleanupService) attempt(ctx context.Context, deletion *entity.ImageDeletion, source string) (bool, error) {
	inUse, err := s.deletions.KeyInUse(ctx, deletion.ObjectKey)
	if err != nil {
		return false, fmt.Errorf("failed to check image key %q: %w", deletion.ObjectKey, err)
	}
	if inUse {
		if err := s.deletions.MarkDone(ctx, deletion.ID); err != nil {
			return false, fmt.Errorf("failed to mark image deletion done: %w", err)
		}
		logger.Info().
			Int64("deletion_id", deletion.ID).
			Int64("product_id", deletion.ProductID).
			Str("object_key", deletion.ObjectKey).
			Str("source", source).
			Msg("Image key reassigned to another product, deletion skipped")
		return false, nil
	}

	if err := s.storage.DeleteObject(ctx, deletion.ObjectKey); err != nil {
		metrics.RecordImageDeletion(source, false)

		if markErr := s.deletions.MarkFailed(ctx, deletion.ID, err.Error()); markErr != nil {
			logger.Error().Err(markErr).Int64("deletion_id", deletion.ID).Msg("Failed to record image deletion failure")
		}
		if deletion.Attempts+1 >= s.maxAttempts {
			logger.Error().
				Int64("deletion_id", deletion.ID).
				Int64("product_id", deletion.ProductID).
				Str("object_key", deletion.ObjectKey).
				Msg("Image deletion exhausted retries, manual cleanup required")
		}
		return false, fmt.Errorf("failed to delete image %q: %w", deletion.ObjectKey, err)
	}

	metrics.RecordImageDeletion(source, true)

	if err := s.deletions.MarkDone(ctx, deletion.ID); err != nil {
		return false, fmt.Errorf("failed to mark image deletion done: %w", err)
	}

	logger.Info().
		Int64("product_id", deletion.ProductID).
		Str("object_key", deletion.ObjectKey).
		Str("source", source).
		Msg("Product image deleted from storage")
	return true, nil
}
