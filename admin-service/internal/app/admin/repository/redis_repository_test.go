package repository

import (
	"context"
	"testing"
	"time"

	"adminplus/admin-service/internal/app/admin/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RedisRepositoryTestSuite - черный список, rate limit и капчи поверх miniredis
type RedisRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	blacklist BlacklistRepository
	limiter   RateLimitRepository
	captcha   CaptchaRepository
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.blacklist = NewRedisBlacklistRepository(s.client)
	s.limiter = NewRedisRateLimitRepository(s.client)
	s.captcha = NewRedisCaptchaRepository(s.client)
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *RedisRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== Blacklist Tests =====================

func (s *RedisRepositoryTestSuite) TestBlacklist_AddAndCheck() {
	ctx := context.Background()

	// Act
	err := s.blacklist.Add(ctx, "access-token", 42, time.Now().Add(10*time.Minute))
	s.Require().NoError(err)

	// Assert
	listed, err := s.blacklist.IsBlacklisted(ctx, "access-token")
	s.NoError(err)
	s.True(listed)

	listed, err = s.blacklist.IsBlacklisted(ctx, "other-token")
	s.NoError(err)
	s.False(listed)
}

func (s *RedisRepositoryTestSuite) TestBlacklist_StoresHashNotToken() {
	ctx := context.Background()

	s.Require().NoError(s.blacklist.Add(ctx, "access-token", 42, time.Now().Add(time.Minute)))

	s.False(s.miniRedis.Exists(blacklistTokenPrefix + "access-token"))
	s.True(s.miniRedis.Exists(blacklistTokenPrefix + util.HashToken("access-token")))
}

func (s *RedisRepositoryTestSuite) TestBlacklist_TTLMatchesRemainingLifetime() {
	ctx := context.Background()

	s.Require().NoError(s.blacklist.Add(ctx, "access-token", 42, time.Now().Add(10*time.Minute)))

	ttl := s.miniRedis.TTL(blacklistTokenKey("access-token"))
	s.InDelta(10*time.Minute, ttl, float64(2*time.Second))

	// Запись самоуничтожается вместе с истечением токена
	s.miniRedis.FastForward(10*time.Minute + time.Second)

	listed, err := s.blacklist.IsBlacklisted(ctx, "access-token")
	s.NoError(err)
	s.False(listed)
}

func (s *RedisRepositoryTestSuite) TestBlacklist_ExpiredTokenSkipped() {
	ctx := context.Background()

	err := s.blacklist.Add(ctx, "old-token", 42, time.Now().Add(-time.Minute))

	s.NoError(err)
	s.Empty(s.miniRedis.Keys())
}

func (s *RedisRepositoryTestSuite) TestBlacklist_UserMarker() {
	ctx := context.Background()
	at := time.UnixMilli(time.Now().UnixMilli())

	// Нет отметки
	_, found, err := s.blacklist.UserBlockedAt(ctx, 7)
	s.NoError(err)
	s.False(found)

	// Act
	s.Require().NoError(s.blacklist.BlockUser(ctx, 7, at, 2*time.Hour))

	// Assert
	blockedAt, found, err := s.blacklist.UserBlockedAt(ctx, 7)
	s.NoError(err)
	s.True(found)
	s.True(at.Equal(blockedAt))
	s.Equal(2*time.Hour, s.miniRedis.TTL(blacklistUserKey(7)))
}

func (s *RedisRepositoryTestSuite) TestBlacklist_StoreUnavailable() {
	ctx := context.Background()
	s.miniRedis.SetError("connection refused")
	defer s.miniRedis.SetError("")

	_, err := s.blacklist.IsBlacklisted(ctx, "access-token")
	s.Error(err)

	_, _, err = s.blacklist.UserBlockedAt(ctx, 1)
	s.Error(err)
}

// ===================== Rate Limit Tests =====================

func (s *RedisRepositoryTestSuite) TestRateLimit_FirstHitSetsWindow() {
	ctx := context.Background()

	count, ttl, err := s.limiter.Increment(ctx, "rate_limit:login:10.0.0.1", time.Minute)

	s.NoError(err)
	s.Equal(int64(1), count)
	s.InDelta(time.Minute, ttl, float64(time.Second))
	s.Equal(time.Minute, s.miniRedis.TTL("rate_limit:login:10.0.0.1"))
}

func (s *RedisRepositoryTestSuite) TestRateLimit_CountsWithinWindow() {
	ctx := context.Background()
	key := "rate_limit:login:10.0.0.1"

	for i := int64(1); i <= 5; i++ {
		count, _, err := s.limiter.Increment(ctx, key, time.Minute)
		s.Require().NoError(err)
		s.Equal(i, count)
	}

	// Последующие запросы не продлевают окно
	s.miniRedis.FastForward(30 * time.Second)
	_, ttl, err := s.limiter.Increment(ctx, key, time.Minute)
	s.NoError(err)
	s.LessOrEqual(ttl, 30*time.Second)
}

func (s *RedisRepositoryTestSuite) TestRateLimit_WindowResets() {
	ctx := context.Background()
	key := "rate_limit:general:10.0.0.2"

	for i := 0; i < 3; i++ {
		_, _, err := s.limiter.Increment(ctx, key, time.Minute)
		s.Require().NoError(err)
	}

	s.miniRedis.FastForward(time.Minute + time.Millisecond)

	count, _, err := s.limiter.Increment(ctx, key, time.Minute)
	s.NoError(err)
	s.Equal(int64(1), count)
}

func (s *RedisRepositoryTestSuite) TestRateLimit_HealsKeyWithoutTTL() {
	ctx := context.Background()
	key := "rate_limit:login:10.0.0.3"
	s.Require().NoError(s.miniRedis.Set(key, "3"))

	count, ttl, err := s.limiter.Increment(ctx, key, time.Minute)

	s.NoError(err)
	s.Equal(int64(4), count)
	s.Equal(time.Minute, ttl)
	s.Equal(time.Minute, s.miniRedis.TTL(key))
}

// ===================== Captcha Tests =====================

func (s *RedisRepositoryTestSuite) TestCaptcha_SingleUse() {
	ctx := context.Background()
	s.Require().NoError(s.captcha.Save(ctx, "cid", "1234", 2*time.Minute))

	code, found, err := s.captcha.Take(ctx, "cid")
	s.NoError(err)
	s.True(found)
	s.Equal("1234", code)

	_, found, err = s.captcha.Take(ctx, "cid")
	s.NoError(err)
	s.False(found)
}

func (s *RedisRepositoryTestSuite) TestCaptcha_Expired() {
	ctx := context.Background()
	s.Require().NoError(s.captcha.Save(ctx, "cid", "1234", 2*time.Minute))

	s.miniRedis.FastForward(2*time.Minute + time.Second)

	_, found, err := s.captcha.Take(ctx, "cid")
	s.NoError(err)
	s.False(found)
}
