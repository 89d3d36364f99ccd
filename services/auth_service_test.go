package services

import (
	"context"
	"testing"
	"time"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	return NewAuthService(users, "test-secret", time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := newAuthFixture()

	user, token, err := service.Register(context.Background(), RegisterInput{
		Username: "player-one",
		Email:    "Player@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.Equal(t, "player@example.com", user.Email)

	// Пароль не хранится в открытом виде.
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	loggedIn, loginToken, err := service.Login(context.Background(), models.Credentials{
		Email:    "player@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, _ := newAuthFixture()

	_, _, err := service.Register(context.Background(), RegisterInput{
		Username: "player-one",
		Email:    "player@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = service.Login(context.Background(), models.Credentials{
		Email:    "player@example.com",
		Password: "wrong-horse",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(context.Background(), models.Credentials{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	service, _ := newAuthFixture()

	_, _, err := service.Register(context.Background(), RegisterInput{
		Username: "", Email: "a@b.c", Password: "long-enough",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, _, err = service.Register(context.Background(), RegisterInput{
		Username: "player", Email: "a@b.c", Password: "short",
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestParseToken(t *testing.T) {
	service, _ := newAuthFixture()

	user, token, err := service.Register(context.Background(), RegisterInput{
		Username: "player-one",
		Email:    "player@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	userID, role, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleMember, role)

	_, _, err = service.ParseToken(token + "tampered")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Токен, подписанный другим секретом, не принимается.
	other := NewAuthService(newFakeUserRepo(), "other-secret", time.Hour)
	_, _, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_Expired(t *testing.T) {
	users := newFakeUserRepo()
	service := NewAuthService(users, "test-secret", -time.Minute)

	_, token, err := service.Register(context.Background(), RegisterInput{
		Username: "player-one",
		Email:    "player@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = service.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
