package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// RefreshTokenRepositoryTestSuite тестовый suite для GORM repository
type RefreshTokenRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  RefreshTokenRepository
	sqlDB *sql.DB
}

func TestRefreshTokenRepositorySuite(t *testing.T) {
	suite.Run(t, new(RefreshTokenRepositoryTestSuite))
}

func (s *RefreshTokenRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewRefreshTokenRepository(s.db)
}

func (s *RefreshTokenRepositoryTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.sqlDB.Close()
}

// ===================== RevokeAllForUser Tests =====================

func (s *RefreshTokenRepositoryTestSuite) TestRevokeAllForUser_Success() {
	ctx := context.Background()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "sys_refresh_token" SET "revoked"=\$1 WHERE user_id = \$2 AND revoked = \$3`).
		WithArgs(true, int64(42), false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	s.mock.ExpectCommit()

	// Act
	count, err := s.repo.RevokeAllForUser(ctx, 42)

	// Assert
	s.NoError(err)
	s.Equal(int64(3), count)
}

func (s *RefreshTokenRepositoryTestSuite) TestRevokeAllForUser_DBError() {
	ctx := context.Background()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "sys_refresh_token"`).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	count, err := s.repo.RevokeAllForUser(ctx, 42)

	// Assert
	s.Error(err)
	s.Zero(count)
	s.Contains(err.Error(), "failed to revoke user refresh tokens")
}

// ===================== PurgeExpired Tests =====================

func (s *RefreshTokenRepositoryTestSuite) TestPurgeExpired_Success() {
	ctx := context.Background()
	before := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`DELETE FROM "sys_refresh_token" WHERE .*expiry_date < \$1 OR \(revoked = \$2 AND created_at < \$3\)`).
		WithArgs(before, true, before).
		WillReturnResult(sqlmock.NewResult(0, 12))
	s.mock.ExpectCommit()

	// Act
	count, err := s.repo.PurgeExpired(ctx, before)

	// Assert
	s.NoError(err)
	s.Equal(int64(12), count)
}

func (s *RefreshTokenRepositoryTestSuite) TestPurgeExpired_DBError() {
	ctx := context.Background()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`DELETE FROM "sys_refresh_token"`).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	// Act
	_, err := s.repo.PurgeExpired(ctx, time.Now())

	// Assert
	s.Error(err)
	s.Contains(err.Error(), "failed to purge refresh tokens")
}
