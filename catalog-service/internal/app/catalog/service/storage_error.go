package service

import "fmt"

// StorageError - отказ шлюза хранилища при удалении старого изображения.
// errors.Is(err, ErrImageStorage) == true; Err содержит исходную ошибку шлюза.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to delete image %q: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrImageStorage
}
