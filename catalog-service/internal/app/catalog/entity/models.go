package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// valor сериализуется числом (50.5), а не строкой ("50.5")
	decimal.MarshalJSONWithoutQuotes = true
}

// Product представляет товар в таблице produtos
type Product struct {
	ID            int64           `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Description   string          `json:"descricao" gorm:"column:descricao;not null"`
	StockQuantity int64           `json:"quantidade_estoque" gorm:"column:quantidade_estoque;not null"`
	Price         decimal.Decimal `json:"valor" gorm:"column:valor;type:numeric(12,2);not null"`
	CategoryID    int64           `json:"categoria_id" gorm:"column:categoria_id;not null"`
	Image         *string         `json:"produto_imagem" gorm:"column:produto_imagem"` // ключ объекта в хранилище, NULL если нет
}

func (Product) TableName() string {
	return "produtos"
}

// HasImage сообщает, ссылается ли товар на объект в хранилище
func (p *Product) HasImage() bool {
	return p.Image != nil && *p.Image != ""
}

// ProductWithCategory - строка листинга: товар + описание категории из JOIN
type ProductWithCategory struct {
	Product
	Category string `json:"categoria" gorm:"column:categoria"`
}

// Category представляет категорию товаров (только чтение)
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Description string `json:"descricao" db:"descricao"`
}

// ImageDeletion - запись outbox о необходимости удалить объект из хранилища.
// Создается в той же транзакции, что и удаление товара.
type ImageDeletion struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int64     `gorm:"column:produto_id;not null"`
	ObjectKey string    `gorm:"column:chave;not null"`
	Attempts  int       `gorm:"column:tentativas;not null"`
	LastError *string   `gorm:"column:ultimo_erro"`
	CreatedAt time.Time `gorm:"column:criado_em;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:atualizado_em;autoUpdateTime"`
}

func (ImageDeletion) TableName() string {
	return "exclusoes_imagem"
}

// Типы событий для топика product_events
const (
	EventProductCreated = "PRODUCT_CREATED"
	EventProductUpdated = "PRODUCT_UPDATED"
	EventProductDeleted = "PRODUCT_DELETED"
)

// ProductEvent представляет событие изменения продукта для Kafka
type ProductEvent struct {
	EventType   string          `json:"event_type"`
	ProductID   int64           `json:"product_id"`
	Description string          `json:"descricao,omitempty"`
	Price       decimal.Decimal `json:"valor"`
	CategoryID  int64           `json:"categoria_id,omitempty"`
	Image       *string         `json:"produto_imagem"`
	Timestamp   time.Time       `json:"timestamp"`
}
