package util

import (
	"context"
	"errors"
	"fmt"

	"pdv/pkg/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Storage удаляет изображения товаров из S3-совместимого хранилища
// (Backblaze B2, MinIO). Загрузка выполняется отдельным сервисом.
type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage создает клиент с явным endpoint и статическими ключами.
// Автоматические повторы отключены: ошибка возвращается вызывающему сразу.
func NewS3Storage(endpoint, region, bucket, accessKeyID, secretAccessKey string) *S3Storage {
	client := s3.New(s3.Options{
		Region:           region,
		BaseEndpoint:     aws.String(endpoint),
		UsePathStyle:     true,
		Credentials:      credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		RetryMaxAttempts: 1,
	})

	return &S3Storage{client: client, bucket: bucket}
}

// DeleteObject удаляет объект по ключу. NoSuchKey считается успехом,
// поэтому повторное удаление безопасно.
func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	timer := metrics.NewStorageTimer(serviceName, "delete")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			timer.NotFound()
			return nil
		}
		timer.Error()
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}

	timer.Success()
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
