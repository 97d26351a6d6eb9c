package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"heartgram/internal/models"
	"heartgram/internal/repositories"
	"heartgram/pkg/logger"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AnalyticsServiceTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	service *AnalyticsService
	ctx     context.Context
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.service = NewAnalyticsService(
		repositories.NewTenantRepo(mock),
		repositories.NewMemberRepo(mock),
		repositories.NewOperatorRepo(mock),
		nil, time.Minute, logger.Nop(),
	)
	suite.ctx = context.Background()
}

func (suite *AnalyticsServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (suite *AnalyticsServiceTestSuite) expectCounts() {
	suite.mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM events GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(models.TenantStatusActive, 4).
			AddRow(models.TenantStatusInactive, 1).
			AddRow(models.TenantStatusCompleted, 2))
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guests`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(120))
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM operators WHERE role = \$1`).
		WithArgs(models.RoleCouple).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(6))
}

func (suite *AnalyticsServiceTestSuite) TestPlatformStats() {
	suite.expectCounts()

	stats, err := suite.service.PlatformStats(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, stats.TotalEvents)
	assert.Equal(suite.T(), 4, stats.ActiveEvents)
	assert.Equal(suite.T(), 1, stats.InactiveEvents)
	assert.Equal(suite.T(), 2, stats.CompletedEvents)
	assert.Equal(suite.T(), 120, stats.TotalGuests)
	assert.Equal(suite.T(), 6, stats.TotalCouples)
	assert.False(suite.T(), stats.GeneratedAt.IsZero())
}

func (suite *AnalyticsServiceTestSuite) TestRefreshPlatformStats_WithoutCache() {
	suite.expectCounts()

	assert.NoError(suite.T(), suite.service.RefreshPlatformStats(suite.ctx))
}

func (suite *AnalyticsServiceTestSuite) TestCalculatePlatformStats_StoreError() {
	suite.mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM events GROUP BY status`).
		WillReturnError(errors.New("connection reset"))

	_, err := suite.service.CalculatePlatformStats(suite.ctx)
	assert.Error(suite.T(), err)
}
