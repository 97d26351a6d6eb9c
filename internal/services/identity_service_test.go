package services

import (
	"context"
	"strings"
	"testing"

	"heartgram/internal/common"
	"heartgram/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type IdentityServiceTestSuite struct {
	suite.Suite
	operators *MockOperatorRepository
	members   *MockMemberRepository
	hasher    *Hasher
	service   IdentityService
	ctx       context.Context
}

func (suite *IdentityServiceTestSuite) SetupTest() {
	suite.operators = &MockOperatorRepository{}
	suite.members = &MockMemberRepository{}
	suite.hasher = testHasher()
	suite.service = NewIdentityService(suite.operators, suite.members, suite.hasher)
	suite.ctx = context.Background()

	suite.operators.Test(suite.T())
	suite.members.Test(suite.T())
}

func (suite *IdentityServiceTestSuite) TearDownTest() {
	suite.operators.AssertExpectations(suite.T())
	suite.members.AssertExpectations(suite.T())
}

func TestIdentityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceTestSuite))
}

func (suite *IdentityServiceTestSuite) TestCreateOperator_HashesSecret() {
	suite.operators.On("Create", suite.ctx, mock.AnythingOfType("*models.Operator")).Return(nil).Once()

	op, err := suite.service.CreateOperator(suite.ctx, " Sam@Example.com ", "hunter22", models.RoleCouple, "Sam")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "sam@example.com", op.Email)
	assert.NotEqual(suite.T(), "hunter22", op.PasswordHash)
	assert.NoError(suite.T(), suite.hasher.Compare(op.PasswordHash, "hunter22"))
}

func (suite *IdentityServiceTestSuite) TestCreateOperator_Validation() {
	_, err := suite.service.CreateOperator(suite.ctx, "not-an-email", "hunter22", models.RoleCouple, "Sam")
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	_, err = suite.service.CreateOperator(suite.ctx, "sam@example.com", "123", models.RoleCouple, "Sam")
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	_, err = suite.service.CreateOperator(suite.ctx, "sam@example.com", "hunter22", models.RoleGuest, "Sam")
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	_, err = suite.service.CreateOperator(suite.ctx, "sam@example.com", "hunter22", models.RoleCouple, " ")
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	_, err = suite.service.CreateOperator(suite.ctx, "sam@example.com", strings.Repeat("x", 73), models.RoleCouple, "Sam")
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	assert.NotErrorIs(suite.T(), err, common.ErrInternal)
}

func (suite *IdentityServiceTestSuite) TestCreateOperator_DuplicateEmail() {
	suite.operators.On("Create", suite.ctx, mock.Anything).Return(common.ErrConflict).Once()

	_, err := suite.service.CreateOperator(suite.ctx, "sam@example.com", "hunter22", models.RoleCouple, "Sam")
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *IdentityServiceTestSuite) TestCreateMember_BlankPhoneDropped() {
	tenantID := uuid.New()
	blank := "  "
	suite.members.On("Create", suite.ctx, mock.MatchedBy(func(m *models.Member) bool {
		return m.TenantID == tenantID && m.Phone == nil && m.Email == "ana@example.com"
	})).Return(nil).Once()

	member, err := suite.service.CreateMember(suite.ctx, tenantID, " Ana ", "ANA@example.com", "abcd1234", &blank)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Ana", member.Name)
	assert.True(suite.T(), suite.service.VerifyMemberSecret(member, "abcd1234"))
	assert.False(suite.T(), suite.service.VerifyMemberSecret(member, "wrong"))
}

func (suite *IdentityServiceTestSuite) TestFindOperatorByCredentials() {
	hash, err := suite.hasher.Hash("hunter22")
	require.NoError(suite.T(), err)
	stored := &models.Operator{ID: uuid.New(), Email: "sam@example.com", PasswordHash: hash, Role: models.RoleCouple}
	suite.operators.On("GetByEmail", suite.ctx, "sam@example.com").Return(stored, nil).Times(3)

	couple := models.RoleCouple
	found, err := suite.service.FindOperatorByCredentials(suite.ctx, "SAM@example.com", "hunter22", &couple)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored.ID, found.ID)

	_, err = suite.service.FindOperatorByCredentials(suite.ctx, "sam@example.com", "wrong", &couple)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	admin := models.RoleAdmin
	_, err = suite.service.FindOperatorByCredentials(suite.ctx, "sam@example.com", "hunter22", &admin)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *IdentityServiceTestSuite) TestFindOperatorByCredentials_UnknownEmail() {
	suite.operators.On("GetByEmail", suite.ctx, "ghost@example.com").Return(nil, common.ErrNotFound).Once()

	_, err := suite.service.FindOperatorByCredentials(suite.ctx, "ghost@example.com", "whatever", nil)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
