package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ImageDeletionRepositoryTestSuite struct {
	suite.Suite
	mock  sqlmock.Sqlmock
	repo  ImageDeletionRepository
	sqlDB *sql.DB
}

func TestImageDeletionRepositorySuite(t *testing.T) {
	suite.Run(t, new(ImageDeletionRepositoryTestSuite))
}

func (s *ImageDeletionRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewImageDeletionRepository(db)
}

func (s *ImageDeletionRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

func (s *ImageDeletionRepositoryTestSuite) TestListPending() {
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "produto_id", "chave", "tentativas", "ultimo_erro", "criado_em", "atualizado_em"}).
		AddRow(int64(1), int64(7), "produtos/a.png", 0, nil, now, now).
		AddRow(int64(2), int64(8), "produtos/b.png", 3, "timeout", now, now)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "exclusoes_imagem" WHERE tentativas < $1 ORDER BY id ASC`)).
		WillReturnRows(rows)

	// Act
	deletions, err := s.repo.ListPending(context.Background(), 10, 50)

	// Assert
	s.NoError(err)
	s.Require().Len(deletions, 2)
	s.Equal("produtos/a.png", deletions[0].ObjectKey)
	s.Equal(3, deletions[1].Attempts)
	s.Require().NotNil(deletions[1].LastError)
	s.Equal("timeout", *deletions[1].LastError)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ImageDeletionRepositoryTestSuite) TestListPending_DBError() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "exclusoes_imagem"`)).
		WillReturnError(sql.ErrConnDone)

	// Act
	deletions, err := s.repo.ListPending(context.Background(), 10, 50)

	// Assert
	s.Error(err)
	s.Nil(deletions)
	s.Contains(err.Error(), "failed to list pending image deletions")
}

func (s *ImageDeletionRepositoryTestSuite) TestCountPending() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "exclusoes_imagem" WHERE tentativas < $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	// Act
	count, err := s.repo.CountPending(context.Background(), 10)

	// Assert
	s.NoError(err)
	s.Equal(int64(4), count)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ImageDeletionRepositoryTestSuite) TestMarkDone() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "exclusoes_imagem" WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.MarkDone(context.Background(), 5)

	// Assert
	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ImageDeletionRepositoryTestSuite) TestMarkFailed() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "exclusoes_imagem" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	// Act
	err := s.repo.MarkFailed(context.Background(), 5, "connection refused")

	// Assert
	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ImageDeletionRepositoryTestSuite) TestMarkFailed_DBError() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "exclusoes_imagem" SET`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	err := s.repo.MarkFailed(context.Background(), 5, "connection refused")

	// Assert
	s.Error(err)
	s.Contains(err.Error(), "failed to mark image deletion 5 as failed")
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ImageDeletionRepositoryTestSuite) TestKeyInUse() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "produtos" WHERE produto_imagem = $1`)).
		WithArgs("produtos/mouse.png").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "produtos" WHERE produto_imagem = $1`)).
		WithArgs("produtos/free.png").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	// Act
	inUse, err := s.repo.KeyInUse(context.Background(), "produtos/mouse.png")
	s.NoError(err)
	s.True(inUse)

	inUse, err = s.repo.KeyInUse(context.Background(), "produtos/free.png")
	s.NoError(err)
	s.False(inUse)

	// Assert
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ImageDeletionRepositoryTestSuite) TestKeyInUse_DBError() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "produtos"`)).
		WillReturnError(sql.ErrConnDone)

	// Act
	inUse, err := s.repo.KeyInUse(context.Background(), "produtos/mouse.png")

	// Assert
	s.Error(err)
	s.False(inUse)
}
