package util

import (
	"context"
	"testing"
	"time"

	"pdv/catalog-service/internal/app/catalog/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"
)

// RedisClientTestSuite тестовый suite для кеша категорий
type RedisClientTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *RedisClient
	ctx       context.Context
}

func TestRedisClientSuite(t *testing.T) {
	suite.Run(t, new(RedisClientTestSuite))
}

func (s *RedisClientTestSuite) SetupTest() {
	var err error
	s.miniRedis, err = miniredis.Run()
	s.Require().NoError(err)

	s.client, err = NewRedisClient(s.miniRedis.Addr(), "", 0)
	s.Require().NoError(err)

	s.ctx = context.Background()
}

func (s *RedisClientTestSuite) TearDownTest() {
	s.client.Close()
	s.miniRedis.Close()
}

func (s *RedisClientTestSuite) TestGetCategory_Miss() {
	category, err := s.client.GetCategory(s.ctx, 1)

	s.NoError(err)
	s.Nil(category)
}

func (s *RedisClientTestSuite) TestSetAndGetCategory() {
	// Arrange
	category := &entity.Category{ID: 3, Description: "Informática"}

	// Act
	err := s.client.SetCategory(s.ctx, category, time.Minute)
	s.Require().NoError(err)
	cached, err := s.client.GetCategory(s.ctx, 3)

	// Assert
	s.NoError(err)
	s.Require().NotNil(cached)
	s.Equal(*category, *cached)
	s.True(s.miniRedis.Exists("category:3"))
}

func (s *RedisClientTestSuite) TestSetCategory_TTL() {
	category := &entity.Category{ID: 4, Description: "Moda"}
	s.Require().NoError(s.client.SetCategory(s.ctx, category, 10*time.Minute))

	s.Equal(10*time.Minute, s.miniRedis.TTL("category:4"))

	s.miniRedis.FastForward(11 * time.Minute)

	cached, err := s.client.GetCategory(s.ctx, 4)
	s.NoError(err)
	s.Nil(cached)
}

func (s *RedisClientTestSuite) TestGetCategory_CorruptedValue() {
	s.Require().NoError(s.miniRedis.Set("category:5", "{not json"))

	cached, err := s.client.GetCategory(s.ctx, 5)

	s.Error(err)
	s.Nil(cached)
	s.Contains(err.Error(), "failed to unmarshal category")
}

func (s *RedisClientTestSuite) TestGetCategory_ServerError() {
	s.miniRedis.SetError("LOADING Redis is loading the dataset in memory")
	defer s.miniRedis.SetError("")

	cached, err := s.client.GetCategory(s.ctx, 1)

	s.Error(err)
	s.Nil(cached)
	s.Contains(err.Error(), "failed to get category from cache")
}

func (s *RedisClientTestSuite) TestPing() {
	s.NoError(s.client.Ping(s.ctx))
}
