package services

import (
	"context"
	"testing"
	"time"

	"localmart/internal/caching"
	"localmart/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	suite.Suite
	cacheSvc *MockCacheService
	svc      AuthService
	context  context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.cacheSvc = new(MockCacheService)
	suite.svc = NewAuthService(suite.cacheSvc, "test-secret", 15*time.Minute, 24*time.Hour)
	suite.context = context.Background()
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestGenerateAndValidate_Roundtrip() {
	principal := common.Principal{Kind: common.PrincipalStore, ID: uuid.New()}
	suite.cacheSvc.On("SetString", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), 24*time.Hour).
		Return(nil)

	tokens, err := suite.svc.GenerateTokens(suite.context, principal)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Bearer", tokens.TokenType)
	assert.NotEmpty(suite.T(), tokens.RefreshToken)

	claims, err := suite.svc.ValidateToken(suite.context, tokens.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.PrincipalStore, claims.Kind)
	assert.Equal(suite.T(), principal.ID.String(), claims.Subject)
}

func (suite *AuthServiceTestSuite) TestValidateToken_WrongSecret() {
	principal := common.Principal{Kind: common.PrincipalUser, ID: uuid.New()}
	suite.cacheSvc.On("SetString", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).
		Return(nil)

	other := NewAuthService(suite.cacheSvc, "different-secret", 15*time.Minute, 24*time.Hour)
	tokens, err := other.GenerateTokens(suite.context, principal)
	assert.NoError(suite.T(), err)

	_, err = suite.svc.ValidateToken(suite.context, tokens.AccessToken)
	assert.Equal(suite.T(), common.KindAuthentication, common.KindOf(err))
}

func (suite *AuthServiceTestSuite) TestValidateToken_Garbage() {
	_, err := suite.svc.ValidateToken(suite.context, "not-a-jwt")
	assert.Equal(suite.T(), common.KindAuthentication, common.KindOf(err))
}

func (suite *AuthServiceTestSuite) TestValidateToken_Expired() {
	principal := common.Principal{Kind: common.PrincipalUser, ID: uuid.New()}
	suite.cacheSvc.On("SetString", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).
		Return(nil)

	expired := NewAuthService(suite.cacheSvc, "test-secret", -time.Minute, 24*time.Hour)
	tokens, err := expired.GenerateTokens(suite.context, principal)
	assert.NoError(suite.T(), err)

	_, err = suite.svc.ValidateToken(suite.context, tokens.AccessToken)
	assert.Equal(suite.T(), common.KindAuthentication, common.KindOf(err))
}

func (suite *AuthServiceTestSuite) TestRefreshTokens_RotatesSingleUse() {
	principal := common.Principal{Kind: common.PrincipalUser, ID: uuid.New()}

	suite.cacheSvc.On("GetString", mock.Anything, mock.AnythingOfType("string")).
		Return(principal.Kind+":"+principal.ID.String(), nil).Once()
	suite.cacheSvc.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()
	suite.cacheSvc.On("SetString", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).
		Return(nil)

	tokens, err := suite.svc.RefreshTokens(suite.context, "old-refresh-token")
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), "old-refresh-token", tokens.RefreshToken)

	claims, err := suite.svc.ValidateToken(suite.context, tokens.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), principal.ID.String(), claims.Subject)
	suite.cacheSvc.AssertExpectations(suite.T())
}

func (suite *AuthServiceTestSuite) TestRefreshTokens_ExpiredOrRevoked() {
	suite.cacheSvc.On("GetString", mock.Anything, mock.AnythingOfType("string")).
		Return("", caching.ErrCacheMiss)

	_, err := suite.svc.RefreshTokens(suite.context, "stale-token")
	assert.Equal(suite.T(), common.KindAuthentication, common.KindOf(err))
}

func (suite *AuthServiceTestSuite) TestRevokeRefreshToken() {
	suite.cacheSvc.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	err := suite.svc.RevokeRefreshToken(suite.context, "some-token")
	assert.NoError(suite.T(), err)
}
