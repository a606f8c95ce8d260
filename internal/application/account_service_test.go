package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/internal/domain/repository"
	"github.com/campuskit/campus-api/pkg/credential"
)

type fakeUserRepo struct {
	byID map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.byID[id]
	if !ok || u.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.byID {
		if u.Email == email && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]entity.User, error) {
	out := make([]entity.User, 0, len(r.byID))
	for _, u := range r.byID {
		if u.DeletedAt == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeTokenRepo struct {
	users  *fakeUserRepo
	tokens map[string]*entity.VerificationToken
}

func newFakeTokenRepo(users *fakeUserRepo) *fakeTokenRepo {
	return &fakeTokenRepo{users: users, tokens: map[string]*entity.VerificationToken{}}
}

func (r *fakeTokenRepo) Issue(_ context.Context, t *entity.VerificationToken) error {
	now := time.Now()
	for _, old := range r.tokens {
		if old.UserID == t.UserID && old.Purpose == t.Purpose && old.ConsumedAt == nil && old.DeletedAt == nil {
			old.DeletedAt = &now
		}
	}
	t.ID = uuid.NewString()
	t.CreatedAt = now
	cp := *t
	r.tokens[t.ID] = &cp
	return nil
}

func (r *fakeTokenRepo) GetActive(_ context.Context, userID string, purpose entity.Purpose) (*entity.VerificationToken, error) {
	var latest *entity.VerificationToken
	for _, t := range r.tokens {
		if t.UserID != userID || t.Purpose != purpose || t.ConsumedAt != nil || t.DeletedAt != nil {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeTokenRepo) ConsumeAndSaveUser(ctx context.Context, tokenID string, u *entity.User) error {
	t, ok := r.tokens[tokenID]
	if !ok || !t.Usable(time.Now()) {
		return repository.ErrNotFound
	}
	now := time.Now()
	t.ConsumedAt = &now
	return r.users.Update(ctx, u)
}

func newTestService(t *testing.T) (*AccountService, *fakeUserRepo, *fakeTokenRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo(users)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := &AccountService{
		Users:           users,
		Tokens:          tokens,
		Hasher:          credential.NewHasher("test-pepper", bcrypt.MinCost),
		ActivationOTP:   credential.NewOTPIssuer("otp-secret", 6, 5*time.Minute),
		ResetOTP:        credential.NewOTPIssuer("otp-secret", 6, 15*time.Minute),
		RequireApproval: true,
		Logger:          logger,
	}
	return svc, users, tokens
}

func registered(t *testing.T, svc *AccountService) *entity.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Maya",
		LastName:  "Chen",
		Phone:     "+14155550100",
		Email:     "Maya.Chen@Example.com",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)
	return u
}

// issuedCode digs the current active token out of the fake repo and recovers
// the plaintext code by walking the 6-digit space against the stored digest.
// The service itself never exposes the code outside the email job.
func issuedCode(t *testing.T, svc *AccountService, tokens *fakeTokenRepo, userID string, purpose entity.Purpose) string {
	t.Helper()
	tok, err := tokens.GetActive(context.Background(), userID, purpose)
	require.NoError(t, err)
	issuer := svc.issuerFor(purpose)
	for i := 0; i < 1_000_000; i++ {
		code := padCode(i)
		if issuer.Digest(code) == tok.TokenHash {
			return code
		}
	}
	t.Fatal("no code matches stored digest")
	return ""
}

func padCode(n int) string {
	const digits = "0123456789"
	b := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		b[i] = digits[n%10]
		n /= 10
	}
	return string(b)
}

func TestRegisterNormalizesEmailAndIssuesCode(t *testing.T) {
	svc, users, tokens := newTestService(t)
	u := registered(t, svc)

	assert.Equal(t, "maya.chen@example.com", u.Email)
	assert.Equal(t, entity.StatusPendingEmail, u.Status)
	assert.Equal(t, entity.RoleStudent, u.Role)

	stored, err := users.GetByEmail(context.Background(), "maya.chen@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", stored.Password)

	tok, err := tokens.GetActive(context.Background(), u.ID, entity.PurposeAccountActivation)
	require.NoError(t, err)
	assert.Equal(t, entity.TokenTypeOTP, tok.TokenType)
	assert.True(t, tok.ExpiresAt.After(time.Now()))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "MAYA.CHEN@example.com",
		Password: "another password",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestActivateEmailHappyPath(t *testing.T) {
	svc, _, tokens := newTestService(t)
	u := registered(t, svc)
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)

	got, err := svc.ActivateEmail(context.Background(), u.Email, code)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingApproval, got.Status)

	// the code is single-use
	_, err = svc.ActivateEmail(context.Background(), u.Email, code)
	assert.ErrorIs(t, err, ErrTokenExpiredOrConsumed)
}

func TestActivateEmailWithoutApprovalStep(t *testing.T) {
	svc, _, tokens := newTestService(t)
	svc.RequireApproval = false
	u := registered(t, svc)
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)

	got, err := svc.ActivateEmail(context.Background(), u.Email, code)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status)
}

func TestActivateEmailWrongCode(t *testing.T) {
	svc, _, tokens := newTestService(t)
	u := registered(t, svc)
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err := svc.ActivateEmail(context.Background(), u.Email, wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// a wrong attempt does not burn the code
	_, err = svc.ActivateEmail(context.Background(), u.Email, code)
	assert.NoError(t, err)
}

func TestActivateEmailExpiredCode(t *testing.T) {
	svc, _, tokens := newTestService(t)
	u := registered(t, svc)
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)

	for _, tok := range tokens.tokens {
		tok.ExpiresAt = time.Now().Add(-time.Minute)
	}

	// expired wins over the digest check even when the code is right
	_, err := svc.ActivateEmail(context.Background(), u.Email, code)
	assert.ErrorIs(t, err, ErrTokenExpiredOrConsumed)
}

func TestResendSupersedesPreviousCode(t *testing.T) {
	svc, _, tokens := newTestService(t)
	u := registered(t, svc)
	first := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)

	require.NoError(t, svc.ResendActivation(context.Background(), u.Email))
	second := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)

	if first != second {
		_, err := svc.ActivateEmail(context.Background(), u.Email, first)
		assert.Error(t, err)
	}
	_, err := svc.ActivateEmail(context.Background(), u.Email, second)
	assert.NoError(t, err)
}

func TestResendRequiresPendingEmail(t *testing.T) {
	svc, users, _ := newTestService(t)
	u := registered(t, svc)

	u.Status = entity.StatusActive
	require.NoError(t, users.Update(context.Background(), u))

	err := svc.ResendActivation(context.Background(), u.Email)
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, tokens := newTestService(t)
	u := registered(t, svc)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), u.Email))
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposePasswordReset)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), u.Email, code, "brand new password"))

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	ok, err := svc.Hasher.Compare("brand new password", stored.Password)
	require.NoError(t, err)
	assert.True(t, ok)

	// reset code is single-use too
	err = svc.ConfirmPasswordReset(context.Background(), u.Email, code, "yet another one")
	assert.ErrorIs(t, err, ErrTokenExpiredOrConsumed)
}

func TestPasswordResetWrongCodeKeepsOldPassword(t *testing.T) {
	svc, users, tokens := newTestService(t)
	u := registered(t, svc)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), u.Email))
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposePasswordReset)

	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}
	err := svc.ConfirmPasswordReset(context.Background(), u.Email, wrong, "attacker password")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	ok, err := svc.Hasher.Compare("correct horse battery", stored.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApprovalLifecycle(t *testing.T) {
	svc, _, tokens := newTestService(t)
	u := registered(t, svc)
	code := issuedCode(t, svc, tokens, u.ID, entity.PurposeAccountActivation)
	_, err := svc.ActivateEmail(context.Background(), u.Email, code)
	require.NoError(t, err)

	got, err := svc.Approve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status)

	got, err = svc.Deactivate(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeactivated, got.Status)

	got, err = svc.Reactivate(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status)
}

func TestDenyOnlyFromPendingApproval(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registered(t, svc)

	// still PendingEmailActivation
	_, err := svc.Deny(context.Background(), u.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)
}

func TestSoftDeleteHidesUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	u := registered(t, svc)

	require.NoError(t, svc.SoftDelete(context.Background(), u.ID))

	_, err := users.GetByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// terminal: nothing moves a deleted account
	_, err = svc.Approve(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileFirstRegistration(t *testing.T) {
	svc, _, tokens := newTestService(t)
	svc.ProfileFirst = true
	u, err := svc.Register(context.Background(), RegisterInput{
		Email:    "li.wei@example.com",
		Password: "some password",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingProfile, u.Status)

	// no activation code for the profile-first variant
	_, err = tokens.GetActive(context.Background(), u.ID, entity.PurposeAccountActivation)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := svc.CompleteProfile(context.Background(), u.ID, RegisterInput{
		FirstName: "Li",
		LastName:  "Wei",
		Phone:     "+6281234567890",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingApproval, got.Status)
	assert.Equal(t, "Li", got.FirstName)

	// completing twice is a state error
	_, err = svc.CompleteProfile(context.Background(), u.ID, RegisterInput{FirstName: "Li"})
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)
}

func TestResetInitUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
