package entity

import "github.com/shopspring/decimal"

// ProductRequest - тело POST /products и PUT /products/:id.
// Указатели позволяют отличить отсутствующее поле от нулевого значения,
// поэтому quantidade_estoque = 0 проходит required.
type ProductRequest struct {
	Description   string           `json:"descricao" validate:"required"`
	StockQuantity *int64           `json:"quantidade_estoque" validate:"required"`
	Price         *decimal.Decimal `json:"valor" validate:"required"`
	CategoryID    *int64           `json:"categoria_id" validate:"required"`
	Image         *string          `json:"produto_imagem"`
}

type ErrorResponse struct {
	Message string `json:"mensagem"`
	Error   string `json:"erro,omitempty"`
}

type MessageResponse struct {
	Message string `json:"mensagem"`
}

type ProductListResponse struct {
	Products []ProductWithCategory `json:"listagem"`
}
