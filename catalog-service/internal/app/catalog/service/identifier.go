package service

import (
	"strconv"
	"strings"
)

// ParseID разбирает идентификатор товара из пути.
// Допускаются только положительные целые числа в десятичной записи.
func ParseID(raw string) (int64, error) {
	id, err := parseNumeral(raw)
	if err != nil || id <= 0 {
		return 0, ErrInvalidParameter
	}
	return id, nil
}

// ParseCategoryFilter разбирает необязательный фильтр categoria_id.
// Пустое значение означает отсутствие фильтра.
func ParseCategoryFilter(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	id, err := parseNumeral(raw)
	if err != nil || id < 0 {
		return nil, &ValidationError{Field: "categoria_id", Message: ErrInvalidParameter.Message}
	}
	return &id, nil
}

// parseNumeral принимает только цифры (с необязательным знаком):
// "1e3", "0x10", "1.0", "NaN" и "Infinity" отклоняются
func parseNumeral(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}
