package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialworks/adherence-api/internal/dto"
	"github.com/trialworks/adherence-api/internal/models"
	"github.com/trialworks/adherence-api/internal/service"
)

type fakeAccountRepo struct {
	account *models.Account
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	if f.account == nil || f.account.Email != email {
		return nil, sql.ErrNoRows
	}
	return f.account, nil
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id string) (*models.Account, error) {
	if f.account == nil || f.account.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.account, nil
}

func newAuthFixture(t *testing.T) *service.AuthService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := service.HashPassword("correct-horse")
	require.NoError(t, err)
	repo := &fakeAccountRepo{account: &models.Account{
		ID:           "staff-1",
		Email:        "coordinator@trialworks.org",
		FullName:     "Study Coordinator",
		PasswordHash: hash,
		Role:         models.RoleCoordinator,
		Active:       true,
	}}
	return service.NewAuthService(repo, nil, service.AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "adherence-api",
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := NewAuthHandler(newAuthFixture(t))

	body, _ := json.Marshal(dto.LoginRequest{
		Email:    "coordinator@trialworks.org",
		Password: "correct-horse",
	})
	c, w := participantContext(t, http.MethodPost, "/auth/login", body)
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	require.NotNil(t, envelope.Data.Account)
	assert.Empty(t, envelope.Data.Account.PasswordHash, "hash must never serialize")
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	handler := NewAuthHandler(newAuthFixture(t))

	body, _ := json.Marshal(dto.LoginRequest{
		Email:    "coordinator@trialworks.org",
		Password: "wrong-password",
	})
	c, w := participantContext(t, http.MethodPost, "/auth/login", body)
	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	handler := NewAuthHandler(newAuthFixture(t))

	c, w := participantContext(t, http.MethodPost, "/auth/login", []byte(`{"email":"not-an-email"}`))
	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
