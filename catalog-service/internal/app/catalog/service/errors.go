package service

import "errors"

// ValidationError - некорректный ввод (400). Field указывает нарушенное поле,
// Message - текст для клиента.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

var (
	ErrInvalidQuantity = &ValidationError{
		Field:   "quantidade_estoque",
		Message: "A quantidade em estoque deve ser igual ou maior que zero!",
	}
	ErrInvalidPrice = &ValidationError{
		Field:   "valor",
		Message: "O valor do produto deve ser maior que zero!",
	}
	ErrPriceScale = &ValidationError{
		Field:   "valor",
		Message: "O valor do produto deve ter no máximo duas casas decimais!",
	}
	ErrPriceTooLarge = &ValidationError{
		Field:   "valor",
		Message: "O valor do produto excede o limite permitido!",
	}
	ErrQuantityTooLarge = &ValidationError{
		Field:   "quantidade_estoque",
		Message: "A quantidade em estoque excede o limite permitido!",
	}
	// ErrValueOutOfRange - значение отклонено ограничениями таблицы produtos
	ErrValueOutOfRange = &ValidationError{
		Field:   "produto",
		Message: "Os valores informados estão fora dos limites permitidos!",
	}
	ErrInvalidParameter = &ValidationError{
		Field:   "id",
		Message: "Parâmetro inválido, insira somente números!",
	}
)

// Ошибки бизнес-логики для обработки в handlers
var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrImageAlreadyAssigned = errors.New("image already assigned to another product")
	ErrProductHasOrders     = errors.New("product is referenced by an order")
	ErrImageStorage         = errors.New("failed to delete previous image from storage")
)

// missingField строит ValidationError для отсутствующего обязательного поля
func missingField(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "O campo " + field + " é obrigatório",
	}
}
