package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"pdv/catalog-service/internal/app/catalog/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProductRepositoryTestSuite тестовый suite для gorm-репозитория товаров
type ProductRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  ProductRepository
	sqlDB *sql.DB
}

func TestProductRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProductRepositoryTestSuite))
}

func (s *ProductRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewProductRepository(s.db)
}

func (s *ProductRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

var productColumns = []string{"id", "descricao", "quantidade_estoque", "valor", "categoria_id", "produto_imagem"}

// ===================== Create Tests =====================

func (s *ProductRepositoryTestSuite) TestCreate_Success() {
	product := &entity.Product{
		Description:   "Mouse",
		StockQuantity: 5,
		Price:         decimal.NewFromInt(50),
		CategoryID:    1,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "produtos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Create(context.Background(), product)

	// Assert
	s.NoError(err)
	s.Equal(int64(1), product.ID)
	s.Nil(product.Image)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestCreate_DuplicateImage() {
	image := "produtos/mouse.png"
	product := &entity.Product{
		Description:   "Mouse",
		StockQuantity: 5,
		Price:         decimal.NewFromInt(50),
		CategoryID:    1,
		Image:         &image,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "produtos"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "produtos_produto_imagem_key"})
	s.mock.ExpectRollback()

	// Act
	err := s.repo.Create(context.Background(), product)

	// Assert
	s.ErrorIs(err, ErrDuplicateImage)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestCreate_UnknownCategory() {
	product := &entity.Product{
		Description:   "Mouse",
		StockQuantity: 5,
		Price:         decimal.NewFromInt(50),
		CategoryID:    99,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "produtos"`)).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	s.mock.ExpectRollback()

	// Act
	err := s.repo.Create(context.Background(), product)

	// Assert
	s.ErrorIs(err, ErrForeignKey)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestCreate_ValueOutOfRange() {
	tests := []struct {
		name string
		code string
	}{
		{name: "check constraint", code: "23514"},
		{name: "numeric overflow", code: "22003"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			product := &entity.Product{
				Description:   "Mouse",
				StockQuantity: 5,
				Price:         decimal.NewFromInt(50),
				CategoryID:    1,
			}

			s.mock.ExpectBegin()
			s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "produtos"`)).
				WillReturnError(&pgconn.PgError{Code: tt.code})
			s.mock.ExpectRollback()

			// Act
			err := s.repo.Create(context.Background(), product)

			// Assert
			s.ErrorIs(err, ErrValueOutOfRange)
			s.NoError(s.mock.ExpectationsWereMet())
		})
	}
}

// ===================== Update Tests =====================

func (s *ProductRepositoryTestSuite) TestUpdate_Success() {
	product := &entity.Product{
		ID:            7,
		Description:   "Teclado",
		StockQuantity: 0,
		Price:         decimal.RequireFromString("120.50"),
		CategoryID:    2,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "produtos" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Update(context.Background(), product)

	// Assert
	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestUpdate_NotFound() {
	product := &entity.Product{ID: 404, Description: "x", Price: decimal.NewFromInt(1), CategoryID: 1}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "produtos" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.Update(context.Background(), product)

	// Assert
	s.ErrorIs(err, ErrProductNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestUpdate_DuplicateImage() {
	image := "produtos/taken.png"
	product := &entity.Product{ID: 7, Description: "x", Price: decimal.NewFromInt(1), CategoryID: 1, Image: &image}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "produtos" SET`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	s.mock.ExpectRollback()

	// Act
	err := s.repo.Update(context.Background(), product)

	// Assert
	s.ErrorIs(err, ErrDuplicateImage)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== GetByID / GetByImage Tests =====================

func (s *ProductRepositoryTestSuite) TestGetByID_Success() {
	rows := sqlmock.NewRows(productColumns).
		AddRow(int64(7), "Mouse", int64(5), "50.00", int64(1), "produtos/mouse.png")

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "produtos" WHERE id = $1`)).
		WillReturnRows(rows)

	// Act
	product, err := s.repo.GetByID(context.Background(), 7)

	// Assert
	s.NoError(err)
	s.Require().NotNil(product)
	s.Equal(int64(7), product.ID)
	s.Equal("Mouse", product.Description)
	s.True(decimal.NewFromInt(50).Equal(product.Price))
	s.Require().NotNil(product.Image)
	s.Equal("produtos/mouse.png", *product.Image)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetByID_NotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "produtos" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	// Act
	product, err := s.repo.GetByID(context.Background(), 404)

	// Assert
	s.ErrorIs(err, ErrProductNotFound)
	s.Nil(product)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetByID_DBError() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "produtos" WHERE id = $1`)).
		WillReturnError(sql.ErrConnDone)

	// Act
	product, err := s.repo.GetByID(context.Background(), 7)

	// Assert
	s.Error(err)
	s.NotErrorIs(err, ErrProductNotFound)
	s.Nil(product)
	s.Contains(err.Error(), "failed to get product")
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetByImage_Found() {
	rows := sqlmock.NewRows(productColumns).
		AddRow(int64(3), "Monitor", int64(1), "900.00", int64(2), "produtos/monitor.png")

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "produtos" WHERE produto_imagem = $1`)).
		WillReturnRows(rows)

	// Act
	product, err := s.repo.GetByImage(context.Background(), "produtos/monitor.png")

	// Assert
	s.NoError(err)
	s.Require().NotNil(product)
	s.Equal(int64(3), product.ID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetByImage_NotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "produtos" WHERE produto_imagem = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	// Act
	product, err := s.repo.GetByImage(context.Background(), "produtos/free.png")

	// Assert
	s.ErrorIs(err, ErrProductNotFound)
	s.Nil(product)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== GetAllWithCategory Tests =====================

func (s *ProductRepositoryTestSuite) TestGetAllWithCategory_NoFilter() {
	rows := sqlmock.NewRows(append(productColumns, "categoria")).
		AddRow(int64(1), "Mouse", int64(5), "50.00", int64(1), nil, "Informática").
		AddRow(int64(2), "Camiseta", int64(10), "35.90", int64(2), nil, "Moda")

	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT p.*, c.descricao AS categoria FROM produtos AS p JOIN categorias AS c ON c.id = p.categoria_id`,
	)).WillReturnRows(rows)

	// Act
	products, err := s.repo.GetAllWithCategory(context.Background(), nil)

	// Assert
	s.NoError(err)
	s.Require().Len(products, 2)
	s.Equal("Informática", products[0].Category)
	s.Equal("Moda", products[1].Category)
	s.Nil(products[0].Image)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetAllWithCategory_Filtered() {
	categoryID := int64(2)
	rows := sqlmock.NewRows(append(productColumns, "categoria")).
		AddRow(int64(2), "Camiseta", int64(10), "35.90", int64(2), nil, "Moda")

	s.mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.categoria_id = $1`)).
		WithArgs(categoryID).
		WillReturnRows(rows)

	// Act
	products, err := s.repo.GetAllWithCategory(context.Background(), &categoryID)

	// Assert
	s.NoError(err)
	s.Require().Len(products, 1)
	s.Equal(categoryID, products[0].CategoryID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestGetAllWithCategory_EmptyIsNotNil() {
	categoryID := int64(42)
	s.mock.ExpectQuery(regexp.QuoteMeta(`WHERE p.categoria_id = $1`)).
		WillReturnRows(sqlmock.NewRows(append(productColumns, "categoria")))

	// Act
	products, err := s.repo.GetAllWithCategory(context.Background(), &categoryID)

	// Assert
	s.NoError(err)
	s.NotNil(products)
	s.Empty(products)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== DeleteWithImageCleanup Tests =====================

const lockProductQuery = `SELECT (.+) FROM "produtos" WHERE id = \$1 (.+)FOR UPDATE`

func (s *ProductRepositoryTestSuite) TestDeleteWithImageCleanup_WithImage() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockProductQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "produto_imagem"}).AddRow(int64(7), "produtos/mouse.png"))
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "produtos" WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "exclusoes_imagem"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	s.mock.ExpectCommit()

	// Act
	deletion, err := s.repo.DeleteWithImageCleanup(context.Background(), 7)

	// Assert
	s.NoError(err)
	s.Require().NotNil(deletion)
	s.Equal(int64(3), deletion.ID)
	s.Equal(int64(7), deletion.ProductID)
	s.Equal("produtos/mouse.png", deletion.ObjectKey)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestDeleteWithImageCleanup_WithoutImage() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockProductQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "produto_imagem"}).AddRow(int64(7), nil))
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "produtos" WHERE id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	deletion, err := s.repo.DeleteWithImageCleanup(context.Background(), 7)

	// Assert
	s.NoError(err)
	s.Nil(deletion)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestDeleteWithImageCleanup_NotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockProductQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "produto_imagem"}))
	s.mock.ExpectRollback()

	// Act
	deletion, err := s.repo.DeleteWithImageCleanup(context.Background(), 404)

	// Assert
	s.ErrorIs(err, ErrProductNotFound)
	s.Nil(deletion)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestDeleteWithImageCleanup_ReferencedByOrder() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockProductQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "produto_imagem"}).AddRow(int64(7), "produtos/mouse.png"))
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "produtos" WHERE id = $1`)).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	s.mock.ExpectRollback()

	// Act
	deletion, err := s.repo.DeleteWithImageCleanup(context.Background(), 7)

	// Assert
	s.ErrorIs(err, ErrProductReferenced)
	s.Nil(deletion)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ProductRepositoryTestSuite) TestDeleteWithImageCleanup_OutboxInsertFails() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockProductQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "produto_imagem"}).AddRow(int64(7), "produtos/mouse.png"))
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "produtos" WHERE id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "exclusoes_imagem"`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	deletion, err := s.repo.DeleteWithImageCleanup(context.Background(), 7)

	// Assert
	s.Error(err)
	s.Contains(err.Error(), "failed to enqueue image deletion")
	s.Nil(deletion)
	s.NoError(s.mock.ExpectationsWereMet())
}
