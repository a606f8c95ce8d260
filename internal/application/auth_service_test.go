package application

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/pkg/credential"
)

func newAuthFixture(t *testing.T, status entity.Status) (*AuthService, *entity.User) {
	t.Helper()
	users := newFakeUserRepo()
	hasher := credential.NewHasher("test-pepper", bcrypt.MinCost)
	hash, err := hasher.Hash("open sesame")
	require.NoError(t, err)

	u := &entity.User{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana.silva@example.com",
		Password:  hash,
		Status:    status,
		Role:      entity.RoleStudent,
	}
	require.NoError(t, users.Create(context.Background(), u))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &AuthService{Users: users, Hasher: hasher, Logger: logger}, u
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newAuthFixture(t, entity.StatusActive)

	u, err := svc.Authenticate(context.Background(), "Ana.Silva@Example.com", "open sesame")
	require.NoError(t, err)
	assert.Equal(t, "ana.silva@example.com", u.Email)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, entity.StatusActive)

	_, err := svc.Authenticate(context.Background(), "ana.silva@example.com", "closed sesame")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t, entity.StatusActive)

	// unknown email and wrong password are indistinguishable to the caller
	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "open sesame")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateGatesOnStatus(t *testing.T) {
	for _, status := range []entity.Status{
		entity.StatusPendingEmail,
		entity.StatusPendingApproval,
		entity.StatusDenied,
		entity.StatusDeactivated,
	} {
		t.Run(string(status), func(t *testing.T) {
			svc, _ := newAuthFixture(t, status)
			_, err := svc.Authenticate(context.Background(), "ana.silva@example.com", "open sesame")
			assert.ErrorIs(t, err, ErrAccountNotActive)
		})
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, u := newAuthFixture(t, entity.StatusActive)

	got, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Phone: "+5511999990000"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "+5511999990000", got.Phone)
	assert.True(t, got.UpdatedAt.After(time.Time{}))
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(t, entity.StatusActive)

	_, err := svc.UpdateProfile(context.Background(), "missing-id", UpdateProfileInput{FirstName: "X"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
