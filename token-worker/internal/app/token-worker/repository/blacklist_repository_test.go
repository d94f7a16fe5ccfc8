package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// SessionBlacklistRepositoryTestSuite тестовый suite для Redis repository
type SessionBlacklistRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	repo      SessionBlacklistRepository
}

func TestSessionBlacklistRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionBlacklistRepositoryTestSuite))
}

func (s *SessionBlacklistRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.repo = NewSessionBlacklistRepository(s.client)
}

func (s *SessionBlacklistRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *SessionBlacklistRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== BlockUser Tests =====================

func (s *SessionBlacklistRepositoryTestSuite) TestBlockUser_SetsMarkerWithTTL() {
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_123)

	// Act
	err := s.repo.BlockUser(ctx, 42, at, 2*time.Hour)

	// Assert
	s.NoError(err)
	value, getErr := s.miniRedis.Get("blacklist:user:42")
	s.NoError(getErr)
	s.Equal(strconv.FormatInt(at.UnixMilli(), 10), value)
	s.Equal(2*time.Hour, s.miniRedis.TTL("blacklist:user:42"))
}

func (s *SessionBlacklistRepositoryTestSuite) TestBlockUser_KeepsNewerMarker() {
	ctx := context.Background()
	newer := time.UnixMilli(1_700_000_500_000)
	older := time.UnixMilli(1_700_000_000_000)
	s.NoError(s.repo.BlockUser(ctx, 42, newer, time.Hour))

	// Act
	err := s.repo.BlockUser(ctx, 42, older, time.Hour)

	// Assert
	s.NoError(err)
	value, _ := s.miniRedis.Get("blacklist:user:42")
	s.Equal(strconv.FormatInt(newer.UnixMilli(), 10), value)
}

func (s *SessionBlacklistRepositoryTestSuite) TestBlockUser_MarkerExpires() {
	ctx := context.Background()
	s.NoError(s.repo.BlockUser(ctx, 7, time.Now(), time.Minute))

	// Act
	s.miniRedis.FastForward(time.Minute + time.Second)

	// Assert
	s.False(s.miniRedis.Exists("blacklist:user:7"))
}

func (s *SessionBlacklistRepositoryTestSuite) TestBlockUser_StoreError() {
	ctx := context.Background()
	s.miniRedis.SetError("LOADING Redis is loading the dataset in memory")
	defer s.miniRedis.SetError("")

	// Act
	err := s.repo.BlockUser(ctx, 42, time.Now(), time.Hour)

	// Assert
	s.Error(err)
}
