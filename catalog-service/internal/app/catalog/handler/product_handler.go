package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"pdv/catalog-service/internal/app/catalog/entity"
	"pdv/catalog-service/internal/app/catalog/service"
	"pdv/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidBody       = "Corpo da requisição inválido"
	msgImageAssigned     = "Imagem já cadastrada em outro produto"
	msgCategoryNotFound  = "Categoria não encontrada, informe outra categoria."
	msgProductNotExists  = "Produto não existe, informe outro 'id'"
	msgProductNotFound   = "Produto não encontrado"
	msgProductHasOrders  = "O produto não pode ser excluído, pois está vinculado a um pedido"
	msgProductDeleted    = "Produto excluído com sucesso!"
	msgInternalError     = "O servidor apresentou um erro!"
	msgImageStorageError = "Certifique-se de que 'produto_imagem' seja o valor da propriedade 'path' no upload de arquivo. Caso esteja correto, comunique nosso suporte."
)

// ProductHandler обрабатывает HTTP запросы для товаров с использованием Gin
type ProductHandler struct {
	productService service.ProductServiceInterface
	validator      *validator.Validate
}

// NewProductHandler создает новый обработчик товаров.
// Ошибки валидации используют JSON-имена полей (descricao, valor, ...).
func NewProductHandler(productService service.ProductServiceInterface) *ProductHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ProductHandler{
		productService: productService,
		validator:      v,
	}
}

// CreateProduct обрабатывает POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, ok := h.bindProductRequest(c)
	if !ok {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct обрабатывает PUT /products/:id
// Успех - 201 без тела
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, msgProductNotExists)
		return
	}

	req, ok := h.bindProductRequest(c)
	if !ok {
		return
	}

	if err := h.productService.UpdateProduct(c.Request.Context(), id, req); err != nil {
		h.handleServiceError(c, err, msgProductNotExists)
		return
	}

	c.Status(http.StatusCreated)
	c.Writer.WriteHeaderNow()
}

// ListProducts обрабатывает GET /products?categoria_id=
func (h *ProductHandler) ListProducts(c *gin.Context) {
	categoryID, err := service.ParseCategoryFilter(c.Query("categoria_id"))
	if err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}

	products, err := h.productService.ListProducts(c.Request.Context(), categoryID)
	if err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}
	if products == nil {
		products = []entity.ProductWithCategory{}
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products})
}

// GetProduct обрабатывает GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: msgProductDeleted})
}

// bindProductRequest декодирует тело и проверяет его: числовые значения
// раньше обязательных полей. При ошибке ответ уже записан.
func (h *ProductHandler) bindProductRequest(c *gin.Context) (*entity.ProductRequest, bool) {
	var req entity.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Message: msgInvalidBody})
		return nil, false
	}

	if err := service.ValidateProductValues(&req); err != nil {
		h.handleServiceError(c, err, msgProductNotFound)
		return nil, false
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Message: formatValidationError(err)})
		return nil, false
	}

	return &req, true
}

// handleServiceError переводит ошибку сервиса в HTTP ответ.
// notFoundMessage различается для update и get/delete.
func (h *ProductHandler) handleServiceError(c *gin.Context, err error, notFoundMessage string) {
	var validationErr *service.ValidationError
	var storageErr *service.StorageError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Message: validationErr.Message})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{
			Message: msgImageStorageError,
			Error:   storageErr.Err.Error(),
		})
	case errors.Is(err, service.ErrImageAlreadyAssigned):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Message: msgImageAssigned})
	case errors.Is(err, service.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Message: msgCategoryNotFound})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Message: notFoundMessage})
	case errors.Is(err, service.ErrProductHasOrders):
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Message: msgProductHasOrders})
	default:
		logger.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("Unhandled product service error")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Message: msgInternalError})
	}
}

// formatValidationError форматирует первую ошибку валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return "O campo " + validationErrors[0].Field() + " é obrigatório"
	}
	return msgInvalidBody
}
